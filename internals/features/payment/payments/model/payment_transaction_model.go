// internals/features/payment/payments/model/payment_transaction_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentTransactionStatus string

const (
	TransactionCompleted PaymentTransactionStatus = "completed"
)

// PaymentTransactionModel is the append-only record of a successful
// application of a Payment against a fee assignment. Never updated, never
// deleted; the sum of amount_paid per (assignment, plan) is the category's
// paid total. The unique index on payment_id makes double application of one
// confirmation structurally impossible.
type PaymentTransactionModel struct {
	// PK
	PaymentTransactionID uuid.UUID `json:"payment_transaction_id" gorm:"column:payment_transaction_id;type:uuid;default:gen_random_uuid();primaryKey"`

	// FKs
	PaymentTransactionPaymentID            uuid.UUID  `json:"payment_transaction_payment_id" gorm:"column:payment_transaction_payment_id;type:uuid;not null;uniqueIndex:uq_payment_transactions_payment"`
	PaymentTransactionFeeAssignmentID      *uuid.UUID `json:"payment_transaction_fee_assignment_id,omitempty" gorm:"column:payment_transaction_fee_assignment_id;type:uuid;index:idx_ptx_assignment"`
	PaymentTransactionPaymentPlanID        *uuid.UUID `json:"payment_transaction_payment_plan_id,omitempty" gorm:"column:payment_transaction_payment_plan_id;type:uuid;index:idx_ptx_plan"`

	// What was applied
	PaymentTransactionInstallmentNumber *int                     `json:"payment_transaction_installment_number,omitempty" gorm:"column:payment_transaction_installment_number"`
	PaymentTransactionInstallmentLabel  string                   `json:"payment_transaction_installment_label" gorm:"column:payment_transaction_installment_label;type:varchar(60);not null"`
	PaymentTransactionAmountPaid        float64                  `json:"payment_transaction_amount_paid" gorm:"column:payment_transaction_amount_paid;type:numeric(14,2);not null;check:payment_transaction_amount_paid > 0"`
	PaymentTransactionStatus            PaymentTransactionStatus `json:"payment_transaction_status" gorm:"column:payment_transaction_status;type:varchar(20);not null;default:completed"`
	PaymentTransactionGatewayTxID       *string                  `json:"payment_transaction_gateway_transaction_id,omitempty" gorm:"column:payment_transaction_gateway_transaction_id;type:varchar(60)"`
	PaymentTransactionNotes             *string                  `json:"payment_transaction_notes,omitempty" gorm:"column:payment_transaction_notes;type:text"`

	// Append-only: created_at only, no update/delete columns.
	PaymentTransactionCreatedAt time.Time `json:"payment_transaction_created_at" gorm:"column:payment_transaction_created_at;autoCreateTime"`
}

func (PaymentTransactionModel) TableName() string { return "payment_transactions" }
