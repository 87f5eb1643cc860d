// internals/features/payment/payments/dto/payment_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	m "shulepay_backend/internals/features/payment/payments/model"
)

/* ================== REQUESTS ================== */

// InitiatePaymentRequest starts an M-Pesa collection for one installment.
// Either payment_installment_number or selected_month identifies the
// installment within the plan; omit both for a one-time fee.
type InitiatePaymentRequest struct {
	PaymentStudentID        uuid.UUID  `json:"payment_student_id"         validate:"required"`
	PaymentPlanID           *uuid.UUID `json:"payment_plan_id"            validate:"omitempty"`
	PaymentInstallmentNumber *int      `json:"payment_installment_number" validate:"omitempty,gte=1"`
	SelectedMonth           *int       `json:"selected_month"             validate:"omitempty,min=1,max=12"`
	PaymentAmount           float64    `json:"payment_amount"             validate:"required,gt=0"`
	PaymentMethod           string     `json:"payment_method"             validate:"required,oneof=mpesa"`
	PhoneNumber             string     `json:"phone_number"               validate:"required,e164"`
	PaymentDescription      *string    `json:"payment_description"        validate:"omitempty,max=255"`
}

// SimulateWebhookQuery drives the sandbox confirmation endpoint.
type SimulateWebhookQuery struct {
	PaymentID uuid.UUID `query:"paymentId" validate:"required"`
}

type ListMyPaymentsQuery struct {
	Status *string `query:"status" validate:"omitempty,oneof=pending completed failed"`
	Limit  int     `query:"limit"  validate:"omitempty,gte=1,lte=100"`
	Offset int     `query:"offset" validate:"omitempty,gte=0"`
}

/* ================== RESPONSES ================== */

// InitiatePaymentResponse: transaction_id is the provider's
// output_TransactionID (empty on rejection); transaction_reference is the
// reference we handed the provider and key payments by.
type InitiatePaymentResponse struct {
	Success              bool      `json:"success"`
	PaymentID            uuid.UUID `json:"payment_id"`
	TransactionID        string    `json:"transaction_id,omitempty"`
	TransactionReference string    `json:"transaction_reference"`
	ResponseCode         string    `json:"response_code,omitempty"`
	ResponseDescription  string    `json:"response_description,omitempty"`
}

type PaymentItemResponse struct {
	PaymentID                   uuid.UUID       `json:"payment_id"`
	PaymentStudentID            uuid.UUID       `json:"payment_student_id"`
	PaymentPlanID               *uuid.UUID      `json:"payment_plan_id,omitempty"`
	PaymentInstallmentNumber    *int            `json:"payment_installment_number,omitempty"`
	PaymentInstallmentLabel     *string         `json:"payment_installment_label,omitempty"`
	PaymentAmount               float64         `json:"payment_amount"`
	PaymentMethod               string          `json:"payment_method"`
	PaymentStatus               m.PaymentStatus `json:"payment_status"`
	PaymentTransactionReference string          `json:"payment_transaction_reference"`
	PaymentCreatedAt            time.Time       `json:"payment_created_at"`
	PaymentUpdatedAt            *time.Time      `json:"payment_updated_at,omitempty"`
}

type PaymentListResponse struct {
	Items []PaymentItemResponse `json:"items"`
	Total int64                 `json:"total"`
}

// ReconcileResponse is the webhook outcome. already_applied marks a replay;
// partial marks money-moved-but-bookkeeping-incomplete (safe to retry).
type ReconcileResponse struct {
	PaymentID        uuid.UUID       `json:"payment_id"`
	PaymentStatus    m.PaymentStatus `json:"payment_status"`
	TransactionID    *uuid.UUID      `json:"transaction_id,omitempty"`
	InstallmentLabel *string         `json:"installment_label,omitempty"`
	AssignmentStatus *string         `json:"assignment_status,omitempty"`
	AssignmentPaid   *float64        `json:"assignment_paid_amount,omitempty"`
	AlreadyApplied   bool            `json:"already_applied"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// GatewayStatusResponse relays queryTransactionStatus for one payment.
type GatewayStatusResponse struct {
	PaymentID            uuid.UUID       `json:"payment_id"`
	PaymentStatus        m.PaymentStatus `json:"payment_status"`
	TransactionReference string          `json:"transaction_reference"`
	GatewayResponseCode  string          `json:"gateway_response_code"`
	GatewayStatus        string          `json:"gateway_transaction_status"`
}

/* ================== MAPPERS ================== */

func FromPaymentModel(x m.PaymentModel) PaymentItemResponse {
	return PaymentItemResponse{
		PaymentID:                   x.PaymentID,
		PaymentStudentID:            x.PaymentStudentID,
		PaymentPlanID:               x.PaymentPlanID,
		PaymentInstallmentNumber:    x.PaymentInstallmentNumber,
		PaymentInstallmentLabel:     x.PaymentInstallmentLabel,
		PaymentAmount:               x.PaymentAmount,
		PaymentMethod:               x.PaymentMethod,
		PaymentStatus:               x.PaymentStatus,
		PaymentTransactionReference: x.PaymentTransactionRef,
		PaymentCreatedAt:            x.PaymentCreatedAt,
		PaymentUpdatedAt:            x.PaymentUpdatedAt,
	}
}

func FromPaymentModels(list []m.PaymentModel, total int64) PaymentListResponse {
	out := make([]PaymentItemResponse, 0, len(list))
	for _, it := range list {
		out = append(out, FromPaymentModel(it))
	}
	return PaymentListResponse{Items: out, Total: total}
}
