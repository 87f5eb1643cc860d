// internals/features/feerates/dto/fee_rate_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	m "shulepay_backend/internals/features/feerates/model"
)

/* ================== REQUESTS ================== */

type ProposeFeeRateRequest struct {
	PaymentFeeRateSchoolID   uuid.UUID `json:"payment_fee_rate_school_id"   validate:"required"`
	PaymentFeeRatePercentage float64   `json:"payment_fee_rate_percentage"  validate:"required,gte=0,lte=100"`
}

type RejectFeeRateRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type ListFeeRatesQuery struct {
	SchoolID *uuid.UUID `query:"school_id" validate:"omitempty"`
	Status   *string    `query:"status"    validate:"omitempty,oneof=pending_school pending_admin active rejected_by_school rejected_by_admin expired"`
	Limit    int        `query:"limit"     validate:"omitempty,gte=1,lte=100"`
	Offset   int        `query:"offset"    validate:"omitempty,gte=0"`
}

/* ================== RESPONSES ================== */

type FeeRateItemResponse struct {
	PaymentFeeRateID             uuid.UUID              `json:"payment_fee_rate_id"`
	PaymentFeeRateSchoolID       uuid.UUID              `json:"payment_fee_rate_school_id"`
	PaymentFeeRatePercentage     float64                `json:"payment_fee_rate_percentage"`
	PaymentFeeRateStatus         m.PaymentFeeRateStatus `json:"payment_fee_rate_status"`
	PaymentFeeRateProposedByRole string                 `json:"payment_fee_rate_proposed_by_role"`
	PaymentFeeRateRejectionReason *string               `json:"payment_fee_rate_rejection_reason,omitempty"`
	PaymentFeeRateActivatedAt    *time.Time             `json:"payment_fee_rate_activated_at,omitempty"`
	PaymentFeeRateEffectiveFrom  *time.Time             `json:"payment_fee_rate_effective_from,omitempty"`
	PaymentFeeRateEffectiveUntil *time.Time             `json:"payment_fee_rate_effective_until,omitempty"`
	PaymentFeeRateCreatedAt      time.Time              `json:"payment_fee_rate_created_at"`
}

type FeeRateListResponse struct {
	Items []FeeRateItemResponse `json:"items"`
	Total int64                 `json:"total"`
}

/* ================== MAPPERS ================== */

func FromFeeRateModel(x m.PaymentFeeRateModel) FeeRateItemResponse {
	return FeeRateItemResponse{
		PaymentFeeRateID:              x.PaymentFeeRateID,
		PaymentFeeRateSchoolID:        x.PaymentFeeRateSchoolID,
		PaymentFeeRatePercentage:      x.PaymentFeeRatePercentage,
		PaymentFeeRateStatus:          x.PaymentFeeRateStatus,
		PaymentFeeRateProposedByRole:  string(x.PaymentFeeRateProposedByRole),
		PaymentFeeRateRejectionReason: x.PaymentFeeRateRejectionReason,
		PaymentFeeRateActivatedAt:     x.PaymentFeeRateActivatedAt,
		PaymentFeeRateEffectiveFrom:   x.PaymentFeeRateEffectiveFrom,
		PaymentFeeRateEffectiveUntil:  x.PaymentFeeRateEffectiveUntil,
		PaymentFeeRateCreatedAt:       x.PaymentFeeRateCreatedAt,
	}
}

func FromFeeRateModels(list []m.PaymentFeeRateModel, total int64) FeeRateListResponse {
	out := make([]FeeRateItemResponse, 0, len(list))
	for _, it := range list {
		out = append(out, FromFeeRateModel(it))
	}
	return FeeRateListResponse{Items: out, Total: total}
}
