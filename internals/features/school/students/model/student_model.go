// internals/features/school/students/model/student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Minimal student record: the fee ledger only needs identity and tenant.
// Full student administration lives in the school CRUD service.
type StudentModel struct {
	StudentID          uuid.UUID      `json:"student_id" gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey"`
	StudentSchoolID    uuid.UUID      `json:"student_school_id" gorm:"column:student_school_id;type:uuid;not null;index:idx_students_school"`
	StudentFullName    string         `json:"student_full_name" gorm:"column:student_full_name;type:varchar(120);not null"`
	StudentAdmissionNo *string        `json:"student_admission_no,omitempty" gorm:"column:student_admission_no;type:varchar(40)"`
	StudentCreatedAt   time.Time      `json:"student_created_at" gorm:"column:student_created_at;autoCreateTime"`
	StudentUpdatedAt   *time.Time     `json:"student_updated_at,omitempty" gorm:"column:student_updated_at;autoUpdateTime"`
	StudentDeletedAt   gorm.DeletedAt `json:"student_deleted_at,omitempty" gorm:"column:student_deleted_at;index"`
}

func (StudentModel) TableName() string { return "students" }
