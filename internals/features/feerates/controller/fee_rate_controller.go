// internals/features/feerates/controller/fee_rate_controller.go
package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shulepay_backend/internals/features/feerates/dto"
	"shulepay_backend/internals/features/feerates/model"
	"shulepay_backend/internals/features/feerates/service"
	helper "shulepay_backend/internals/helpers"
)

var validate = validator.New()

// FeeRateController exposes the dual-approval commission workflow. Route
// guards decide which party may reach which endpoint; the service enforces
// the state machine regardless.
type FeeRateController struct {
	Service *service.FeeRateService
}

func NewFeeRateController(db *gorm.DB) *FeeRateController {
	return &FeeRateController{Service: service.NewFeeRateService(db)}
}

// Propose: POST /api/fee-rates
// Platform admins name the target school in the body; school-side callers
// always act on their own school from the token.
func (ctl *FeeRateController) Propose(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	role, err := helper.GetRoleFromToken(c)
	if err != nil {
		return err
	}

	var req dto.ProposeFeeRateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	schoolID := req.PaymentFeeRateSchoolID
	if tokenSchool, err := helper.GetSchoolIDFromToken(c); err == nil && tokenSchool != uuid.Nil {
		schoolID = tokenSchool
	}
	req.PaymentFeeRateSchoolID = schoolID
	if err := validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	rate, err := ctl.Service.Propose(schoolID, userID, role, req.PaymentFeeRatePercentage)
	switch {
	case errors.Is(err, service.ErrPendingRateExists):
		return helper.JsonError(c, fiber.StatusConflict, "A pending rate already exists for this school")
	case errors.Is(err, service.ErrWrongParty):
		return helper.JsonError(c, fiber.StatusForbidden, "This role may not propose fee rates")
	case err != nil:
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	return helper.JsonCreated(c, "Fee rate proposed", dto.FromFeeRateModel(*rate))
}

// Approve: POST /api/fee-rates/:id/approve
func (ctl *FeeRateController) Approve(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	role, err := helper.GetRoleFromToken(c)
	if err != nil {
		return err
	}
	rateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid fee rate id")
	}

	rate, err := ctl.Service.Approve(rateID, userID, role)
	switch {
	case errors.Is(err, service.ErrRateNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Fee rate not found")
	case errors.Is(err, service.ErrNotPending):
		return helper.JsonError(c, fiber.StatusConflict, "Fee rate is not awaiting approval")
	case errors.Is(err, service.ErrWrongParty):
		return helper.JsonError(c, fiber.StatusForbidden, "The proposing party may not approve its own rate")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to approve fee rate")
	}
	return helper.JsonUpdated(c, "Fee rate activated", dto.FromFeeRateModel(*rate))
}

// Reject: POST /api/fee-rates/:id/reject
func (ctl *FeeRateController) Reject(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	role, err := helper.GetRoleFromToken(c)
	if err != nil {
		return err
	}
	rateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid fee rate id")
	}

	var req dto.RejectFeeRateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "A rejection reason is required")
	}

	rate, err := ctl.Service.Reject(rateID, userID, role, req.Reason)
	switch {
	case errors.Is(err, service.ErrRateNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Fee rate not found")
	case errors.Is(err, service.ErrNotPending):
		return helper.JsonError(c, fiber.StatusConflict, "Fee rate is not awaiting approval")
	case errors.Is(err, service.ErrReasonRequired):
		return helper.JsonError(c, fiber.StatusBadRequest, "A rejection reason is required")
	case errors.Is(err, service.ErrWrongParty):
		return helper.JsonError(c, fiber.StatusForbidden, "This role may not reject fee rates")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to reject fee rate")
	}
	return helper.JsonUpdated(c, "Fee rate rejected", dto.FromFeeRateModel(*rate))
}

// List: GET /api/fee-rates
// School-side callers are pinned to their own school; platform admins may
// filter freely.
func (ctl *FeeRateController) List(c *fiber.Ctx) error {
	var q dto.ListFeeRatesQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := validate.Struct(q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	if tokenSchool, err := helper.GetSchoolIDFromToken(c); err == nil && tokenSchool != uuid.Nil {
		q.SchoolID = &tokenSchool
	}

	var status *model.PaymentFeeRateStatus
	if q.Status != nil {
		s := model.PaymentFeeRateStatus(*q.Status)
		status = &s
	}

	rows, total, err := ctl.Service.List(q.SchoolID, status, q.Limit, q.Offset)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list fee rates")
	}
	return helper.JsonOK(c, "OK", dto.FromFeeRateModels(rows, total))
}
