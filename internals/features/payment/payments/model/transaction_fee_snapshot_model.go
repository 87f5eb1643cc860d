// internals/features/payment/payments/model/transaction_fee_snapshot_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionFeeSnapshotModel freezes the commission percentage in effect the
// moment a payment completed, so historical billing is decoupled from later
// rate changes. Immutable.
type TransactionFeeSnapshotModel struct {
	TransactionFeeSnapshotID uuid.UUID `json:"transaction_fee_snapshot_id" gorm:"column:transaction_fee_snapshot_id;type:uuid;default:gen_random_uuid();primaryKey"`

	TransactionFeeSnapshotPaymentID uuid.UUID  `json:"transaction_fee_snapshot_payment_id" gorm:"column:transaction_fee_snapshot_payment_id;type:uuid;not null;uniqueIndex:uq_fee_snapshots_payment"`
	TransactionFeeSnapshotSchoolID  uuid.UUID  `json:"transaction_fee_snapshot_school_id" gorm:"column:transaction_fee_snapshot_school_id;type:uuid;not null;index:idx_fee_snapshots_school"`
	TransactionFeeSnapshotFeeRateID *uuid.UUID `json:"transaction_fee_snapshot_fee_rate_id,omitempty" gorm:"column:transaction_fee_snapshot_fee_rate_id;type:uuid"`

	TransactionFeeSnapshotFeePercentage    float64 `json:"transaction_fee_snapshot_fee_percentage" gorm:"column:transaction_fee_snapshot_fee_percentage;type:numeric(5,2);not null"`
	TransactionFeeSnapshotCommissionAmount float64 `json:"transaction_fee_snapshot_commission_amount" gorm:"column:transaction_fee_snapshot_commission_amount;type:numeric(14,2);not null"`

	TransactionFeeSnapshotCreatedAt time.Time `json:"transaction_fee_snapshot_created_at" gorm:"column:transaction_fee_snapshot_created_at;autoCreateTime"`
}

func (TransactionFeeSnapshotModel) TableName() string { return "transaction_fee_snapshots" }
