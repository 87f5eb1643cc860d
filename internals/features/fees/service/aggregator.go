// internals/features/fees/service/aggregator.go
package service

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shulepay_backend/internals/features/fees/model"
)

// CategoryMatchTolerance is the relative band for linking a legacy plan back
// to its fee category by amount: 5% of the category's net price.
const CategoryMatchTolerance = 0.05

// AggregatorService is the read side of the ledger: per-student, per-category
// progress computed from the append-only transaction log, never from the
// cached rollup.
type AggregatorService struct {
	DB *gorm.DB
}

func NewAggregatorService(db *gorm.DB) *AggregatorService {
	return &AggregatorService{DB: db}
}

// CategoryProgress is the parent-facing view of one fee category.
type CategoryProgress struct {
	StudentID      uuid.UUID `json:"student_id"`
	FeeStructureID uuid.UUID `json:"fee_structure_id"`
	TotalDue       float64   `json:"total_due"`
	PaidAmount     float64   `json:"paid_amount"`
	Remaining      float64   `json:"remaining"`
}

// ComputeCategoryProgress sums completed transactions whose plan belongs to
// the category. Due is the sum of the category plans' installment amounts.
func (s *AggregatorService) ComputeCategoryProgress(studentID, feeStructureID uuid.UUID) (*CategoryProgress, error) {
	var plans []model.PaymentPlanModel
	if err := s.DB.
		Where("payment_plan_fee_structure_id = ?", feeStructureID).
		Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("aggregate: load plans: %w", err)
	}

	var totalDue float64
	planIDs := make([]uuid.UUID, 0, len(plans))
	for _, p := range plans {
		planIDs = append(planIDs, p.PaymentPlanID)
		t, err := p.TotalAmount()
		if err != nil {
			return nil, fmt.Errorf("aggregate: decode plan %s: %w", p.PaymentPlanID, err)
		}
		totalDue += t
	}

	var paid float64
	if len(planIDs) > 0 {
		row := s.DB.Raw(`
			SELECT COALESCE(SUM(pt.payment_transaction_amount_paid), 0)
			FROM payment_transactions pt
			JOIN payments p ON p.payment_id = pt.payment_transaction_payment_id
			WHERE p.payment_student_id = ?
			  AND pt.payment_transaction_payment_plan_id IN ?
			  AND pt.payment_transaction_status = ?
		`, studentID, planIDs, "completed").Row()
		if err := row.Scan(&paid); err != nil {
			return nil, fmt.Errorf("aggregate: sum transactions: %w", err)
		}
	}

	return &CategoryProgress{
		StudentID:      studentID,
		FeeStructureID: feeStructureID,
		TotalDue:       totalDue,
		PaidAmount:     paid,
		Remaining:      math.Max(0, totalDue-paid),
	}, nil
}

// MatchCategoryForPlan links a legacy plan to a fee category by amount: the
// first category whose discounted price is within the tolerance band of the
// plan's installment total wins. Tie-breaking is unspecified; first match in
// caller order wins.
func MatchCategoryForPlan(planTotal float64, categories []model.FeeStructureModel) *model.FeeStructureModel {
	for i := range categories {
		expected := categories[i].NetAmount()
		if expected <= 0 {
			continue
		}
		if math.Abs(planTotal-expected) <= CategoryMatchTolerance*expected {
			return &categories[i]
		}
	}
	return nil
}
