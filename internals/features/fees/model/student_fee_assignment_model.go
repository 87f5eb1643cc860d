// internals/features/fees/model/student_fee_assignment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- ENUM student_fee_assignment_status ----------------------------------------
type StudentFeeAssignmentStatus string

const (
	AssignmentActive    StudentFeeAssignmentStatus = "active"
	AssignmentFullyPaid StudentFeeAssignmentStatus = "fully_paid"
	AssignmentCancelled StudentFeeAssignmentStatus = "cancelled"
)

// StudentFeeAssignmentModel binds one student to one fee structure for one
// academic year. paid_amount is a cached rollup: the reconciler recomputes it
// on every successful transaction and it must always equal the sum of
// completed payment_transactions for this assignment. Readers that need strict
// correctness recompute from the transaction log instead.
type StudentFeeAssignmentModel struct {
	// PK
	StudentFeeAssignmentID uuid.UUID `json:"student_fee_assignment_id" gorm:"column:student_fee_assignment_id;type:uuid;default:gen_random_uuid();primaryKey"`

	// FKs
	StudentFeeAssignmentStudentID      uuid.UUID `json:"student_fee_assignment_student_id" gorm:"column:student_fee_assignment_student_id;type:uuid;not null;index:idx_sfa_student"`
	StudentFeeAssignmentFeeStructureID uuid.UUID `json:"student_fee_assignment_fee_structure_id" gorm:"column:student_fee_assignment_fee_structure_id;type:uuid;not null;index:idx_sfa_structure"`
	StudentFeeAssignmentPaymentPlanID  *uuid.UUID `json:"student_fee_assignment_payment_plan_id,omitempty" gorm:"column:student_fee_assignment_payment_plan_id;type:uuid;index:idx_sfa_plan"`
	StudentFeeAssignmentAcademicYearID uuid.UUID `json:"student_fee_assignment_academic_year_id" gorm:"column:student_fee_assignment_academic_year_id;type:uuid;not null"`

	// Ledger rollup
	StudentFeeAssignmentTotalDue   float64                    `json:"student_fee_assignment_total_due" gorm:"column:student_fee_assignment_total_due;type:numeric(14,2);not null;check:student_fee_assignment_total_due >= 0"`
	StudentFeeAssignmentPaidAmount float64                    `json:"student_fee_assignment_paid_amount" gorm:"column:student_fee_assignment_paid_amount;type:numeric(14,2);not null;default:0"`
	StudentFeeAssignmentStatus     StudentFeeAssignmentStatus `json:"student_fee_assignment_status" gorm:"column:student_fee_assignment_status;type:varchar(20);not null;default:active;index:idx_sfa_status"`

	// Timestamps
	StudentFeeAssignmentCreatedAt time.Time      `json:"student_fee_assignment_created_at" gorm:"column:student_fee_assignment_created_at;autoCreateTime"`
	StudentFeeAssignmentUpdatedAt *time.Time     `json:"student_fee_assignment_updated_at,omitempty" gorm:"column:student_fee_assignment_updated_at;autoUpdateTime"`
	StudentFeeAssignmentDeletedAt gorm.DeletedAt `json:"student_fee_assignment_deleted_at,omitempty" gorm:"column:student_fee_assignment_deleted_at;index"`
}

func (StudentFeeAssignmentModel) TableName() string { return "student_fee_assignments" }

func (a StudentFeeAssignmentModel) Remaining() float64 {
	if rem := a.StudentFeeAssignmentTotalDue - a.StudentFeeAssignmentPaidAmount; rem > 0 {
		return rem
	}
	return 0
}
