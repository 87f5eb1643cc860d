// internals/features/fees/model/payment_plan_model.go
package model

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- ENUM payment_plan_type ---------------------------------------------------
type PaymentPlanType string

const (
	PaymentPlanInstallment PaymentPlanType = "installment"
	PaymentPlanOneTime     PaymentPlanType = "one_time"
	PaymentPlanUpfront     PaymentPlanType = "upfront"
)

// Installment is one scheduled partial payment inside a plan. Stored ordered
// by number inside the plan's JSON column.
type Installment struct {
	InstallmentNumber int        `json:"installment_number"`
	Amount            float64    `json:"amount"`
	Label             string     `json:"label"`
	DueDate           *time.Time `json:"due_date,omitempty"`
}

type PaymentPlanModel struct {
	// PK
	PaymentPlanID uuid.UUID `json:"payment_plan_id" gorm:"column:payment_plan_id;type:uuid;default:gen_random_uuid();primaryKey"`

	// FK fee_structures
	PaymentPlanFeeStructureID uuid.UUID `json:"payment_plan_fee_structure_id" gorm:"column:payment_plan_fee_structure_id;type:uuid;not null;index:idx_payment_plans_structure"`

	PaymentPlanName string          `json:"payment_plan_name" gorm:"column:payment_plan_name;type:varchar(80);not null"`
	PaymentPlanType PaymentPlanType `json:"payment_plan_type" gorm:"column:payment_plan_type;type:varchar(20);not null;default:installment"`

	// Ordered [{installment_number, amount, label, due_date}]; empty for
	// one_time / upfront plans.
	PaymentPlanInstallments datatypes.JSON `json:"payment_plan_installments" gorm:"column:payment_plan_installments;type:jsonb"`

	// Timestamps
	PaymentPlanCreatedAt time.Time      `json:"payment_plan_created_at" gorm:"column:payment_plan_created_at;autoCreateTime"`
	PaymentPlanUpdatedAt *time.Time     `json:"payment_plan_updated_at,omitempty" gorm:"column:payment_plan_updated_at;autoUpdateTime"`
	PaymentPlanDeletedAt gorm.DeletedAt `json:"payment_plan_deleted_at,omitempty" gorm:"column:payment_plan_deleted_at;index"`
}

func (PaymentPlanModel) TableName() string { return "payment_plans" }

// DecodeInstallments parses the JSON column. A nil/empty column decodes to an
// empty slice, which is what one_time/upfront plans carry.
func (p PaymentPlanModel) DecodeInstallments() ([]Installment, error) {
	if len(p.PaymentPlanInstallments) == 0 {
		return nil, nil
	}
	var items []Installment
	if err := sonic.Unmarshal(p.PaymentPlanInstallments, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// InstallmentByNumber finds the installment with the given number.
func (p PaymentPlanModel) InstallmentByNumber(n int) (*Installment, error) {
	items, err := p.DecodeInstallments()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].InstallmentNumber == n {
			return &items[i], nil
		}
	}
	return nil, nil
}

// TotalAmount sums the plan's installment amounts.
func (p PaymentPlanModel) TotalAmount() (float64, error) {
	items, err := p.DecodeInstallments()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		total += it.Amount
	}
	return total, nil
}
