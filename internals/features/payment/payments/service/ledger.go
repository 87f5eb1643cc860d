// internals/features/payment/payments/service/ledger.go
package service

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shulepay_backend/internals/features/payment/payments/model"
)

// ErrPaymentNotPending: a terminal payment cannot take another gateway result.
var ErrPaymentNotPending = errors.New("ledger: payment is not pending")

// LedgerService owns the Payment entity and its status machine. It enforces
// data integrity only; parent↔student ownership is the controller's job.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// InstallmentContext is the optional plan/installment the payment targets.
type InstallmentContext struct {
	PaymentPlanID     *uuid.UUID
	InstallmentNumber *int
	InstallmentLabel  *string
}

// CreatePendingPayment inserts one pending attempt. The transaction reference
// is what we hand to the gateway and must be unique per attempt.
func (s *LedgerService) CreatePendingPayment(studentID, parentID uuid.UUID, amount float64, method string, description *string, inst InstallmentContext) (*model.PaymentModel, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("ledger: amount must be positive")
	}
	if method == "" {
		method = "mpesa"
	}

	payment := model.PaymentModel{
		PaymentStudentID:         studentID,
		PaymentParentID:          parentID,
		PaymentPlanID:            inst.PaymentPlanID,
		PaymentAmount:            amount,
		PaymentMethod:            method,
		PaymentStatus:            model.PaymentPending,
		PaymentTransactionRef:    newTransactionReference(),
		PaymentInstallmentNumber: inst.InstallmentNumber,
		PaymentInstallmentLabel:  inst.InstallmentLabel,
		PaymentDescription:       description,
	}
	if err := s.DB.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("ledger: create payment: %w", err)
	}
	return &payment, nil
}

// RecordGatewayResult stores the raw provider response verbatim. An accepted
// collection stays pending (the async confirmation finishes it); a rejected
// one is failed immediately. Guarded by the pending-only condition so a
// late/duplicate result can never touch a terminal row.
func (s *LedgerService) RecordGatewayResult(paymentID uuid.UUID, accepted bool, raw []byte) (*model.PaymentModel, error) {
	updates := map[string]interface{}{}
	if len(raw) > 0 {
		updates["payment_gateway_response"] = datatypes.JSON(raw)
	}
	if !accepted {
		updates["payment_status"] = model.PaymentFailed
	}

	if len(updates) > 0 {
		res := s.DB.Model(&model.PaymentModel{}).
			Where("payment_id = ? AND payment_status = ?", paymentID, model.PaymentPending).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("ledger: record gateway result: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrPaymentNotPending
		}
	}

	var payment model.PaymentModel
	if err := s.DB.Where("payment_id = ?", paymentID).First(&payment).Error; err != nil {
		return nil, fmt.Errorf("ledger: reload payment: %w", err)
	}
	return &payment, nil
}

// newTransactionReference builds the provider-visible reference. Short,
// uppercase, unique per attempt.
func newTransactionReference() string {
	id := uuid.NewString()
	return "SHP-" + id[:8]
}

// extractGatewayTxID pulls output_TransactionID out of a stored raw gateway
// payload; empty string when absent or unparseable.
func extractGatewayTxID(raw []byte) string {
	var body struct {
		OutputTransactionID string `json:"output_TransactionID"`
	}
	if err := sonic.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.OutputTransactionID
}
