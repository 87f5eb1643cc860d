// internals/features/payment/payments/service/reconciler.go
package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	feemodel "shulepay_backend/internals/features/fees/model"
	ratemodel "shulepay_backend/internals/features/feerates/model"
	"shulepay_backend/internals/features/payment/payments/model"
	studentmodel "shulepay_backend/internals/features/school/students/model"
)

var (
	ErrPaymentNotFound = errors.New("reconcile: payment not found")
	// ErrPaymentAlreadyFailed: a failed payment is terminal; a confirmation
	// for it is a protocol violation, not something to repair.
	ErrPaymentAlreadyFailed = errors.New("reconcile: payment already failed")
)

// FullPaymentLabel is the installment label for one_time/upfront plans and
// the last-resort fallback when no installment can be resolved.
const FullPaymentLabel = "Full Payment"

// ReconcilerService applies asynchronous gateway confirmations to the ledger.
type ReconcilerService struct {
	DB *gorm.DB
}

func NewReconcilerService(db *gorm.DB) *ReconcilerService {
	return &ReconcilerService{DB: db}
}

// ReconcileResult is what one confirmation did.
// AlreadyApplied: the confirmation was a replay; nothing changed.
// PartialSuccess: the payment is completed (money moved) but the ledger step
// failed — bookkeeping is incomplete and needs the next replay or an operator.
type ReconcileResult struct {
	Payment        *model.PaymentModel
	Transaction    *model.PaymentTransactionModel
	Assignment     *feemodel.StudentFeeAssignmentModel
	AlreadyApplied bool
	PartialSuccess bool
	Warnings       []string
}

// ApplyConfirmation is the single entry point for gateway confirmations (real
// webhook or the simulation surrogate). Safe to call any number of times for
// the same payment: the conditional status update plus the unique index on
// payment_transactions.payment_id make double application impossible, and a
// replay after a partial failure resumes the unfinished ledger work.
func (s *ReconcilerService) ApplyConfirmation(paymentID uuid.UUID, gatewayPayload []byte, fallbackLabel *string) (*ReconcileResult, error) {
	res := &ReconcileResult{}

	// --- 1) Claim the payment: pending → completed, exactly one winner. ---
	// The WHERE on payment_status is the serialization point for concurrent
	// confirmations; losers fall through to the replay/repair path below.
	now := time.Now()
	updates := map[string]interface{}{
		"payment_status": model.PaymentCompleted,
		"payment_date":   now,
	}
	if len(gatewayPayload) > 0 {
		updates["payment_gateway_response"] = datatypes.JSON(gatewayPayload)
	}
	claim := s.DB.Model(&model.PaymentModel{}).
		Where("payment_id = ? AND payment_status = ?", paymentID, model.PaymentPending).
		Updates(updates)
	if claim.Error != nil {
		return nil, fmt.Errorf("reconcile: claim payment: %w", claim.Error)
	}
	claimed := claim.RowsAffected == 1

	var payment model.PaymentModel
	if err := s.DB.Where("payment_id = ?", paymentID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("reconcile: load payment: %w", err)
	}
	res.Payment = &payment

	if payment.PaymentStatus == model.PaymentFailed {
		return nil, ErrPaymentAlreadyFailed
	}

	if !claimed {
		// Someone completed it before us. If its transaction exists the
		// replay is a pure no-op; if not, a previous run died between the
		// claim and the ledger step, so resume the ledger work.
		var existing model.PaymentTransactionModel
		err := s.DB.Where("payment_transaction_payment_id = ?", paymentID).First(&existing).Error
		if err == nil {
			res.Transaction = &existing
			res.AlreadyApplied = true
			return res, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reconcile: check existing transaction: %w", err)
		}
		log.Printf("[RECONCILE] payment %s completed without transaction, resuming ledger step", paymentID)
	}

	// --- 2) Ledger step: assignment rollup + immutable transaction row. ---
	if err := s.applyLedger(&payment, fallbackLabel, res); err != nil {
		// The claim above already committed: the money moved. Surface the
		// gap loudly instead of pretending the whole thing failed.
		log.Printf("[RECONCILE][PARTIAL] payment %s completed but ledger update failed: %v", paymentID, err)
		res.PartialSuccess = true
		res.Warnings = append(res.Warnings, "ledger update failed: "+err.Error())
		return res, nil
	}

	return res, nil
}

func (s *ReconcilerService) applyLedger(payment *model.PaymentModel, fallbackLabel *string, res *ReconcileResult) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		// Resolve plan → fee structure → active assignment, locking the
		// assignment row for the rollup update.
		var plan *feemodel.PaymentPlanModel
		if payment.PaymentPlanID != nil {
			var p feemodel.PaymentPlanModel
			err := tx.Where("payment_plan_id = ?", *payment.PaymentPlanID).First(&p).Error
			switch {
			case err == nil:
				plan = &p
			case errors.Is(err, gorm.ErrRecordNotFound):
				res.Warnings = append(res.Warnings, "payment plan not found")
			default:
				return fmt.Errorf("load plan: %w", err)
			}
		}

		var assignment *feemodel.StudentFeeAssignmentModel
		if plan != nil {
			var a feemodel.StudentFeeAssignmentModel
			err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("student_fee_assignment_student_id = ? AND student_fee_assignment_fee_structure_id = ? AND student_fee_assignment_status = ?",
					payment.PaymentStudentID, plan.PaymentPlanFeeStructureID, feemodel.AssignmentActive).
				First(&a).Error
			switch {
			case err == nil:
				assignment = &a
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Degrade: complete the payment anyway and record the gap.
				log.Printf("[RECONCILE][WARN] payment %s: no active fee assignment for student %s", payment.PaymentID, payment.PaymentStudentID)
				res.Warnings = append(res.Warnings, "no matching active fee assignment")
			default:
				return fmt.Errorf("load assignment: %w", err)
			}
		}

		label, gatewayTxID := s.resolveLabel(payment, plan, fallbackLabel)

		txRow := model.PaymentTransactionModel{
			PaymentTransactionPaymentID:         payment.PaymentID,
			PaymentTransactionPaymentPlanID:     payment.PaymentPlanID,
			PaymentTransactionInstallmentNumber: payment.PaymentInstallmentNumber,
			PaymentTransactionInstallmentLabel:  label,
			PaymentTransactionAmountPaid:        payment.PaymentAmount,
			PaymentTransactionStatus:            model.TransactionCompleted,
			PaymentTransactionGatewayTxID:       gatewayTxID,
		}
		if assignment != nil {
			txRow.PaymentTransactionFeeAssignmentID = &assignment.StudentFeeAssignmentID
		}
		if err := tx.Create(&txRow).Error; err != nil {
			msg := strings.ToLower(err.Error())
			if strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") {
				// Lost a race against another replay after the winner already
				// appended the row: nothing left to do, and crucially no
				// second rollup increment.
				res.AlreadyApplied = true
				return nil
			}
			return fmt.Errorf("append transaction: %w", err)
		}
		res.Transaction = &txRow

		if assignment != nil {
			newPaid := assignment.StudentFeeAssignmentPaidAmount + payment.PaymentAmount
			newStatus := feemodel.AssignmentActive
			if newPaid >= assignment.StudentFeeAssignmentTotalDue {
				newStatus = feemodel.AssignmentFullyPaid
			}
			if err := tx.Model(&feemodel.StudentFeeAssignmentModel{}).
				Where("student_fee_assignment_id = ?", assignment.StudentFeeAssignmentID).
				Updates(map[string]interface{}{
					"student_fee_assignment_paid_amount": newPaid,
					"student_fee_assignment_status":      newStatus,
				}).Error; err != nil {
				return fmt.Errorf("update assignment rollup: %w", err)
			}
			assignment.StudentFeeAssignmentPaidAmount = newPaid
			assignment.StudentFeeAssignmentStatus = newStatus
			res.Assignment = assignment
		}

		s.snapshotCommission(tx, payment, res)
		return nil
	})
}

// resolveLabel picks the installment label: the plan's installment list by
// number, then the label stored on the payment, then the caller-supplied
// fallback, then "Full Payment".
func (s *ReconcilerService) resolveLabel(payment *model.PaymentModel, plan *feemodel.PaymentPlanModel, fallback *string) (string, *string) {
	var gatewayTxID *string
	if len(payment.PaymentGatewayResponse) > 0 {
		if id := extractGatewayTxID(payment.PaymentGatewayResponse); id != "" {
			gatewayTxID = &id
		}
	}

	if plan != nil && payment.PaymentInstallmentNumber != nil {
		if inst, err := plan.InstallmentByNumber(*payment.PaymentInstallmentNumber); err == nil && inst != nil && inst.Label != "" {
			return inst.Label, gatewayTxID
		}
	}
	if payment.PaymentInstallmentLabel != nil && *payment.PaymentInstallmentLabel != "" {
		return *payment.PaymentInstallmentLabel, gatewayTxID
	}
	if fallback != nil && *fallback != "" {
		return *fallback, gatewayTxID
	}
	return FullPaymentLabel, gatewayTxID
}

// snapshotCommission freezes the school's active commission rate against this
// payment. Best effort: a missing rate or student is a warning, never a
// reconciliation failure.
func (s *ReconcilerService) snapshotCommission(tx *gorm.DB, payment *model.PaymentModel, res *ReconcileResult) {
	var student studentmodel.StudentModel
	if err := tx.Where("student_id = ?", payment.PaymentStudentID).First(&student).Error; err != nil {
		res.Warnings = append(res.Warnings, "commission snapshot skipped: student not found")
		return
	}

	var rate ratemodel.PaymentFeeRateModel
	if err := tx.
		Where("payment_fee_rate_school_id = ? AND payment_fee_rate_status = ?",
			student.StudentSchoolID, ratemodel.FeeRateActive).
		First(&rate).Error; err != nil {
		res.Warnings = append(res.Warnings, "commission snapshot skipped: no active fee rate")
		return
	}

	snapshot := model.TransactionFeeSnapshotModel{
		TransactionFeeSnapshotPaymentID:        payment.PaymentID,
		TransactionFeeSnapshotSchoolID:         student.StudentSchoolID,
		TransactionFeeSnapshotFeeRateID:        &rate.PaymentFeeRateID,
		TransactionFeeSnapshotFeePercentage:    rate.PaymentFeeRatePercentage,
		TransactionFeeSnapshotCommissionAmount: payment.PaymentAmount * rate.PaymentFeeRatePercentage / 100,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&snapshot).Error; err != nil {
		log.Printf("[RECONCILE][WARN] payment %s: commission snapshot failed: %v", payment.PaymentID, err)
		res.Warnings = append(res.Warnings, "commission snapshot failed")
	}
}
