// internals/features/fees/dto/fee_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	m "shulepay_backend/internals/features/fees/model"
)

/* ================== REQUESTS ================== */

type ListAssignmentsQuery struct {
	StudentID *uuid.UUID `query:"student_id" validate:"omitempty"`
	Status    *string    `query:"status"     validate:"omitempty,oneof=active fully_paid cancelled"`
	Limit     int        `query:"limit"      validate:"omitempty,gte=1,lte=100"`
	Offset    int        `query:"offset"     validate:"omitempty,gte=0"`
}

// CategoryProgressQuery asks for one student's progress against one fee
// category; the response body is service.CategoryProgress.
type CategoryProgressQuery struct {
	StudentID      uuid.UUID `query:"student_id"       validate:"required"`
	FeeStructureID uuid.UUID `query:"fee_structure_id" validate:"required"`
}

/* ================== RESPONSES ================== */

type AssignmentItemResponse struct {
	StudentFeeAssignmentID             uuid.UUID                    `json:"student_fee_assignment_id"`
	StudentFeeAssignmentStudentID      uuid.UUID                    `json:"student_fee_assignment_student_id"`
	StudentFeeAssignmentFeeStructureID uuid.UUID                    `json:"student_fee_assignment_fee_structure_id"`
	StudentFeeAssignmentPaymentPlanID  *uuid.UUID                   `json:"student_fee_assignment_payment_plan_id,omitempty"`
	StudentFeeAssignmentTotalDue  float64                      `json:"student_fee_assignment_total_due"`
	StudentFeeAssignmentPaid      float64                      `json:"student_fee_assignment_paid_amount"`
	StudentFeeAssignmentRemaining float64                      `json:"student_fee_assignment_remaining"`
	StudentFeeAssignmentStatus    m.StudentFeeAssignmentStatus `json:"student_fee_assignment_status"`
	StudentFeeAssignmentCreatedAt time.Time                    `json:"student_fee_assignment_created_at"`
}

type AssignmentListResponse struct {
	Items []AssignmentItemResponse `json:"items"`
	Total int64                    `json:"total"`
}

/* ================== MAPPERS ================== */

func FromAssignmentModel(x m.StudentFeeAssignmentModel) AssignmentItemResponse {
	return AssignmentItemResponse{
		StudentFeeAssignmentID:             x.StudentFeeAssignmentID,
		StudentFeeAssignmentStudentID:      x.StudentFeeAssignmentStudentID,
		StudentFeeAssignmentFeeStructureID: x.StudentFeeAssignmentFeeStructureID,
		StudentFeeAssignmentPaymentPlanID:  x.StudentFeeAssignmentPaymentPlanID,
		StudentFeeAssignmentTotalDue:  x.StudentFeeAssignmentTotalDue,
		StudentFeeAssignmentPaid:      x.StudentFeeAssignmentPaidAmount,
		StudentFeeAssignmentRemaining: x.Remaining(),
		StudentFeeAssignmentStatus:    x.StudentFeeAssignmentStatus,
		StudentFeeAssignmentCreatedAt: x.StudentFeeAssignmentCreatedAt,
	}
}

func FromAssignmentModels(list []m.StudentFeeAssignmentModel, total int64) AssignmentListResponse {
	out := make([]AssignmentItemResponse, 0, len(list))
	for _, it := range list {
		out = append(out, FromAssignmentModel(it))
	}
	return AssignmentListResponse{Items: out, Total: total}
}
