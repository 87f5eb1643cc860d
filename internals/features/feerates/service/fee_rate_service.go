// internals/features/feerates/service/fee_rate_service.go
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shulepay_backend/internals/constants"
	"shulepay_backend/internals/features/feerates/model"
)

var (
	// ErrPendingRateExists: at most one proposal may be in flight per school.
	ErrPendingRateExists = errors.New("feerate: a pending rate already exists for this school")
	ErrRateNotFound      = errors.New("feerate: rate not found")
	// ErrNotPending: approve/reject only apply to a pending rate.
	ErrNotPending = errors.New("feerate: rate is not pending")
	// ErrWrongParty: the party whose sign-off is awaited is the only one who
	// may approve; the proposer cannot approve their own proposal.
	ErrWrongParty     = errors.New("feerate: this party may not act on the rate in its current state")
	ErrReasonRequired = errors.New("feerate: rejection reason is required")
)

// FeeRateService runs the dual-approval workflow for platform commission
// percentages. Every transition happens inside a transaction with the rate
// row locked.
type FeeRateService struct {
	DB *gorm.DB
}

func NewFeeRateService(db *gorm.DB) *FeeRateService {
	return &FeeRateService{DB: db}
}

// Propose opens a new rate. A school proposal waits on the platform
// (pending_admin); a platform proposal waits on the school (pending_school).
func (s *FeeRateService) Propose(schoolID, proposerID uuid.UUID, role constants.Role, percentage float64) (*model.PaymentFeeRateModel, error) {
	var status model.PaymentFeeRateStatus
	switch {
	case constants.CanActForSchool(role):
		status = model.FeeRatePendingAdmin
	case constants.CanActForPlatform(role):
		status = model.FeeRatePendingSchool
	default:
		return nil, ErrWrongParty
	}
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("feerate: percentage out of range: %v", percentage)
	}

	rate := model.PaymentFeeRateModel{
		PaymentFeeRateSchoolID:       schoolID,
		PaymentFeeRatePercentage:     percentage,
		PaymentFeeRateStatus:         status,
		PaymentFeeRateProposedByID:   proposerID,
		PaymentFeeRateProposedByRole: role,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.PaymentFeeRateModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_fee_rate_school_id = ? AND payment_fee_rate_status IN ?",
				schoolID, []model.PaymentFeeRateStatus{model.FeeRatePendingSchool, model.FeeRatePendingAdmin}).
			First(&existing).Error
		if err == nil {
			return ErrPendingRateExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("feerate: check pending: %w", err)
		}

		if err := tx.Create(&rate).Error; err != nil {
			// backed by the partial unique index on pending statuses
			msg := strings.ToLower(err.Error())
			if strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") {
				return ErrPendingRateExists
			}
			return fmt.Errorf("feerate: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// Approve records the counterparty's sign-off and activates the rate. The
// state already encodes whose sign-off is awaited, so a same-party approval
// surfaces as ErrWrongParty.
func (s *FeeRateService) Approve(rateID, approverID uuid.UUID, role constants.Role) (*model.PaymentFeeRateModel, error) {
	var rate model.PaymentFeeRateModel
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockRate(tx, rateID, &rate); err != nil {
			return err
		}

		now := time.Now()
		switch rate.PaymentFeeRateStatus {
		case model.FeeRatePendingSchool:
			if !constants.CanActForSchool(role) {
				return ErrWrongParty
			}
			rate.PaymentFeeRateSchoolApprovedBy = &approverID
			rate.PaymentFeeRateSchoolApprovedAt = &now
		case model.FeeRatePendingAdmin:
			if !constants.CanActForPlatform(role) {
				return ErrWrongParty
			}
			rate.PaymentFeeRateAdminApprovedBy = &approverID
			rate.PaymentFeeRateAdminApprovedAt = &now
		default:
			return ErrNotPending
		}

		// Both parties have now signed off (the proposal itself counts as the
		// proposer's side); close out any prior active rate first.
		if err := tx.Model(&model.PaymentFeeRateModel{}).
			Where("payment_fee_rate_school_id = ? AND payment_fee_rate_status = ? AND payment_fee_rate_id <> ?",
				rate.PaymentFeeRateSchoolID, model.FeeRateActive, rate.PaymentFeeRateID).
			Updates(map[string]interface{}{
				"payment_fee_rate_status":          model.FeeRateExpired,
				"payment_fee_rate_effective_until": now,
			}).Error; err != nil {
			return fmt.Errorf("feerate: supersede prior active: %w", err)
		}

		rate.PaymentFeeRateStatus = model.FeeRateActive
		rate.PaymentFeeRateActivatedAt = &now
		rate.PaymentFeeRateEffectiveFrom = &now

		if err := tx.Save(&rate).Error; err != nil {
			return fmt.Errorf("feerate: activate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// Reject moves a pending rate to the rejecting party's terminal state.
// A reason is mandatory — rejections feed back into negotiation.
func (s *FeeRateService) Reject(rateID, rejectorID uuid.UUID, role constants.Role, reason string) (*model.PaymentFeeRateModel, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var rate model.PaymentFeeRateModel
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockRate(tx, rateID, &rate); err != nil {
			return err
		}
		if !rate.PaymentFeeRateStatus.Pending() {
			return ErrNotPending
		}

		var status model.PaymentFeeRateStatus
		switch {
		case constants.CanActForSchool(role):
			status = model.FeeRateRejectedBySchool
		case constants.CanActForPlatform(role):
			status = model.FeeRateRejectedByAdmin
		default:
			return ErrWrongParty
		}

		rate.PaymentFeeRateStatus = status
		rate.PaymentFeeRateRejectionReason = &reason
		if err := tx.Save(&rate).Error; err != nil {
			return fmt.Errorf("feerate: reject: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// List returns a school's rates (or all schools when schoolID is nil),
// optionally filtered by status, newest first.
func (s *FeeRateService) List(schoolID *uuid.UUID, status *model.PaymentFeeRateStatus, limit, offset int) ([]model.PaymentFeeRateModel, int64, error) {
	q := s.DB.Model(&model.PaymentFeeRateModel{})
	if schoolID != nil {
		q = q.Where("payment_fee_rate_school_id = ?", *schoolID)
	}
	if status != nil {
		q = q.Where("payment_fee_rate_status = ?", *status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("feerate: count: %w", err)
	}

	var rows []model.PaymentFeeRateModel
	if err := q.Order("payment_fee_rate_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("feerate: list: %w", err)
	}
	return rows, total, nil
}

// ExpirePending times out stale proposals. The timeout policy was never
// pinned down by product; the TTL lives in env (see the sweeper).
func (s *FeeRateService) ExpirePending(olderThan time.Time) (int64, error) {
	res := s.DB.Model(&model.PaymentFeeRateModel{}).
		Where("payment_fee_rate_status IN ? AND payment_fee_rate_created_at < ?",
			[]model.PaymentFeeRateStatus{model.FeeRatePendingSchool, model.FeeRatePendingAdmin}, olderThan).
		Update("payment_fee_rate_status", model.FeeRateExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("feerate: expire pending: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func lockRate(tx *gorm.DB, rateID uuid.UUID, out *model.PaymentFeeRateModel) error {
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_fee_rate_id = ?", rateID).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRateNotFound
	}
	if err != nil {
		return fmt.Errorf("feerate: load rate: %w", err)
	}
	return nil
}
