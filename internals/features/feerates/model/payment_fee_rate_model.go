// internals/features/feerates/model/payment_fee_rate_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shulepay_backend/internals/constants"
)

// --- ENUM payment_fee_rate_status ----------------------------------------------
type PaymentFeeRateStatus string

const (
	FeeRatePendingSchool    PaymentFeeRateStatus = "pending_school"
	FeeRatePendingAdmin     PaymentFeeRateStatus = "pending_admin"
	FeeRateActive           PaymentFeeRateStatus = "active"
	FeeRateRejectedBySchool PaymentFeeRateStatus = "rejected_by_school"
	FeeRateRejectedByAdmin  PaymentFeeRateStatus = "rejected_by_admin"
	FeeRateExpired          PaymentFeeRateStatus = "expired"
)

func (s PaymentFeeRateStatus) Pending() bool {
	return s == FeeRatePendingSchool || s == FeeRatePendingAdmin
}

// PaymentFeeRateModel is the platform commission percentage for one school,
// governed by dual approval: whichever party proposes, the other must sign
// off before the rate activates. At most one pending rate per school at a
// time, enforced by the partial unique index uq_fee_rates_one_pending
// (created by database.EnsureIndexes; partial indexes have no gorm tag).
type PaymentFeeRateModel struct {
	// PK
	PaymentFeeRateID uuid.UUID `json:"payment_fee_rate_id" gorm:"column:payment_fee_rate_id;type:uuid;default:gen_random_uuid();primaryKey"`

	// Tenant
	PaymentFeeRateSchoolID uuid.UUID `json:"payment_fee_rate_school_id" gorm:"column:payment_fee_rate_school_id;type:uuid;not null;index:idx_fee_rates_school"`

	PaymentFeeRatePercentage float64              `json:"payment_fee_rate_percentage" gorm:"column:payment_fee_rate_percentage;type:numeric(5,2);not null;check:payment_fee_rate_percentage >= 0 AND payment_fee_rate_percentage <= 100"`
	PaymentFeeRateStatus     PaymentFeeRateStatus `json:"payment_fee_rate_status" gorm:"column:payment_fee_rate_status;type:varchar(30);not null;index:idx_fee_rates_status"`

	// Proposal
	PaymentFeeRateProposedByID   uuid.UUID      `json:"payment_fee_rate_proposed_by_id" gorm:"column:payment_fee_rate_proposed_by_id;type:uuid;not null"`
	PaymentFeeRateProposedByRole constants.Role `json:"payment_fee_rate_proposed_by_role" gorm:"column:payment_fee_rate_proposed_by_role;type:varchar(30);not null"`

	// Sign-offs
	PaymentFeeRateSchoolApprovedBy *uuid.UUID `json:"payment_fee_rate_school_approved_by,omitempty" gorm:"column:payment_fee_rate_school_approved_by;type:uuid"`
	PaymentFeeRateSchoolApprovedAt *time.Time `json:"payment_fee_rate_school_approved_at,omitempty" gorm:"column:payment_fee_rate_school_approved_at"`
	PaymentFeeRateAdminApprovedBy  *uuid.UUID `json:"payment_fee_rate_admin_approved_by,omitempty" gorm:"column:payment_fee_rate_admin_approved_by;type:uuid"`
	PaymentFeeRateAdminApprovedAt  *time.Time `json:"payment_fee_rate_admin_approved_at,omitempty" gorm:"column:payment_fee_rate_admin_approved_at"`

	PaymentFeeRateRejectionReason *string `json:"payment_fee_rate_rejection_reason,omitempty" gorm:"column:payment_fee_rate_rejection_reason;type:text"`

	// Effectivity
	PaymentFeeRateActivatedAt    *time.Time `json:"payment_fee_rate_activated_at,omitempty" gorm:"column:payment_fee_rate_activated_at"`
	PaymentFeeRateEffectiveFrom  *time.Time `json:"payment_fee_rate_effective_from,omitempty" gorm:"column:payment_fee_rate_effective_from"`
	PaymentFeeRateEffectiveUntil *time.Time `json:"payment_fee_rate_effective_until,omitempty" gorm:"column:payment_fee_rate_effective_until"`

	// Timestamps
	PaymentFeeRateCreatedAt time.Time      `json:"payment_fee_rate_created_at" gorm:"column:payment_fee_rate_created_at;autoCreateTime"`
	PaymentFeeRateUpdatedAt *time.Time     `json:"payment_fee_rate_updated_at,omitempty" gorm:"column:payment_fee_rate_updated_at;autoUpdateTime"`
	PaymentFeeRateDeletedAt gorm.DeletedAt `json:"payment_fee_rate_deleted_at,omitempty" gorm:"column:payment_fee_rate_deleted_at;index"`
}

func (PaymentFeeRateModel) TableName() string { return "payment_fee_rates" }
