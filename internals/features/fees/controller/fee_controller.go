// internals/features/fees/controller/fee_controller.go
package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"shulepay_backend/internals/features/fees/dto"
	"shulepay_backend/internals/features/fees/model"
	"shulepay_backend/internals/features/fees/service"
	helper "shulepay_backend/internals/helpers"
)

var validate = validator.New()

// FeeController serves fee assignments and per-category payment progress.
type FeeController struct {
	DB         *gorm.DB
	Aggregator *service.AggregatorService
}

func NewFeeController(db *gorm.DB) *FeeController {
	return &FeeController{DB: db, Aggregator: service.NewAggregatorService(db)}
}

// ListAssignments: GET /api/fees/assignments
func (ctl *FeeController) ListAssignments(c *fiber.Ctx) error {
	var q dto.ListAssignmentsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := validate.Struct(q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	base := ctl.DB.Model(&model.StudentFeeAssignmentModel{})
	if q.StudentID != nil {
		base = base.Where("student_fee_assignment_student_id = ?", *q.StudentID)
	}
	if q.Status != nil {
		base = base.Where("student_fee_assignment_status = ?", *q.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to count assignments")
	}

	var rows []model.StudentFeeAssignmentModel
	if err := base.Order("student_fee_assignment_created_at DESC").
		Limit(q.Limit).Offset(q.Offset).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list assignments")
	}

	return helper.JsonOK(c, "OK", dto.FromAssignmentModels(rows, total))
}

// CategoryProgress: GET /api/fees/progress?student_id=...&fee_structure_id=...
// Progress is recomputed from the transaction log, not read off the cached
// assignment rollup.
func (ctl *FeeController) CategoryProgress(c *fiber.Ctx) error {
	var q dto.CategoryProgressQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := validate.Struct(q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := ctl.Aggregator.ComputeCategoryProgress(q.StudentID, q.FeeStructureID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to compute progress")
	}
	return helper.JsonOK(c, "OK", progress)
}
