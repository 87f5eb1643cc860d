// internals/features/payment/payments/model/payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- ENUM payment_status --------------------------------------------------------
// Statuses only ever move pending → {completed, failed}; terminal rows are
// immutable. The reconciler enforces this with conditional updates
// (WHERE payment_status = 'pending'), never by trusting in-memory state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentModel is one attempt to pay a fee. One row per initiation; the raw
// gateway response is kept verbatim for audit/dispute handling.
type PaymentModel struct {
	// PK
	PaymentID uuid.UUID `json:"payment_id" gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey"`

	// Who/what
	PaymentStudentID uuid.UUID  `json:"payment_student_id" gorm:"column:payment_student_id;type:uuid;not null;index:idx_payments_student"`
	PaymentParentID  uuid.UUID  `json:"payment_parent_id" gorm:"column:payment_parent_id;type:uuid;not null;index:idx_payments_parent"`
	PaymentPlanID    *uuid.UUID `json:"payment_plan_id,omitempty" gorm:"column:payment_plan_id;type:uuid;index:idx_payments_plan"`

	// Amounts / method
	PaymentAmount float64 `json:"payment_amount" gorm:"column:payment_amount;type:numeric(14,2);not null;check:payment_amount > 0"`
	PaymentMethod string  `json:"payment_method" gorm:"column:payment_method;type:varchar(30);not null;default:mpesa"`

	// Lifecycle
	PaymentStatus            PaymentStatus  `json:"payment_status" gorm:"column:payment_status;type:varchar(20);not null;default:pending;index:idx_payments_status"`
	PaymentTransactionRef    string         `json:"payment_transaction_reference" gorm:"column:payment_transaction_reference;type:varchar(60);not null;uniqueIndex:uq_payments_txref"`
	PaymentGatewayResponse   datatypes.JSON `json:"payment_gateway_response,omitempty" gorm:"column:payment_gateway_response;type:jsonb"`
	PaymentInstallmentNumber *int           `json:"payment_installment_number,omitempty" gorm:"column:payment_installment_number"`
	PaymentInstallmentLabel  *string        `json:"payment_installment_label,omitempty" gorm:"column:payment_installment_label;type:varchar(60)"`
	PaymentDescription       *string        `json:"payment_description,omitempty" gorm:"column:payment_description;type:text"`
	PaymentDate              *time.Time     `json:"payment_date,omitempty" gorm:"column:payment_date"`

	// Timestamps
	PaymentCreatedAt time.Time      `json:"payment_created_at" gorm:"column:payment_created_at;autoCreateTime"`
	PaymentUpdatedAt *time.Time     `json:"payment_updated_at,omitempty" gorm:"column:payment_updated_at;autoUpdateTime"`
	PaymentDeletedAt gorm.DeletedAt `json:"payment_deleted_at,omitempty" gorm:"column:payment_deleted_at;index"`
}

func (PaymentModel) TableName() string { return "payments" }

func (p PaymentModel) Terminal() bool {
	return p.PaymentStatus == PaymentCompleted || p.PaymentStatus == PaymentFailed
}
