// internals/features/school/students/model/parent_student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ParentStudentModel is the ownership edge between a parent account and a
// student. Payment initiation verifies this edge before the ledger is touched.
type ParentStudentModel struct {
	ParentStudentID           uuid.UUID `json:"parent_student_id" gorm:"column:parent_student_id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParentStudentParentUserID uuid.UUID `json:"parent_student_parent_user_id" gorm:"column:parent_student_parent_user_id;type:uuid;not null;uniqueIndex:uq_parent_students_edge,priority:1"`
	ParentStudentStudentID    uuid.UUID `json:"parent_student_student_id" gorm:"column:parent_student_student_id;type:uuid;not null;uniqueIndex:uq_parent_students_edge,priority:2"`
	ParentStudentRelationship *string   `json:"parent_student_relationship,omitempty" gorm:"column:parent_student_relationship;type:varchar(30)"`
	ParentStudentCreatedAt    time.Time `json:"parent_student_created_at" gorm:"column:parent_student_created_at;autoCreateTime"`
}

func (ParentStudentModel) TableName() string { return "parent_students" }
