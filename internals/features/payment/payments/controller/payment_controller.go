// internals/features/payment/payments/controller/payment_controller.go
package controller

import (
	"errors"
	"log"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shulepay_backend/internals/cache"
	feemodel "shulepay_backend/internals/features/fees/model"
	"shulepay_backend/internals/features/payment/gateway"
	"shulepay_backend/internals/features/payment/payments/dto"
	"shulepay_backend/internals/features/payment/payments/model"
	"shulepay_backend/internals/features/payment/payments/service"
	studentmodel "shulepay_backend/internals/features/school/students/model"
	helper "shulepay_backend/internals/helpers"
)

var validate = validator.New()

// PaymentController glues the parent-facing payment endpoints to the gateway
// client and the ledger/reconciler services.
type PaymentController struct {
	DB         *gorm.DB
	Gateway    *gateway.Client
	Ledger     *service.LedgerService
	Reconciler *service.ReconcilerService

	// StudentLinks caches the set of student IDs a parent may act for.
	StudentLinks *cache.ProfileCache[uuid.UUID, []uuid.UUID]
}

func NewPaymentController(db *gorm.DB, gw *gateway.Client, links *cache.ProfileCache[uuid.UUID, []uuid.UUID]) *PaymentController {
	return &PaymentController{
		DB:           db,
		Gateway:      gw,
		Ledger:       service.NewLedgerService(db),
		Reconciler:   service.NewReconcilerService(db),
		StudentLinks: links,
	}
}

// ===================== INITIATE =====================

// InitiatePayment: POST /api/payments/initiate
// Creates a pending payment, opens a gateway session (honoring the provider
// cooldown), fires the C2B request, and records the gateway verdict. An
// accepted request stays pending until the confirmation webhook lands.
func (ctl *PaymentController) InitiatePayment(c *fiber.Ctx) error {
	parentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req dto.InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	owns, err := ctl.parentOwnsStudent(parentID, req.PaymentStudentID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to verify student link")
	}
	if !owns {
		return helper.JsonError(c, fiber.StatusForbidden, "Student is not linked to this account")
	}

	inst, err := ctl.resolveInstallment(&req)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	payment, err := ctl.Ledger.CreatePendingPayment(
		req.PaymentStudentID, parentID, req.PaymentAmount, req.PaymentMethod, req.PaymentDescription, inst)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create payment")
	}

	ctx := c.Context()
	session, err := ctl.Gateway.OpenSession(ctx)
	if err != nil {
		ctl.recordGatewayFailure(payment.PaymentID, err)
		return helper.JsonError(c, fiber.StatusBadGateway, "Payment gateway is unavailable")
	}
	if err := ctl.Gateway.WaitReady(ctx, session); err != nil {
		ctl.recordGatewayFailure(payment.PaymentID, err)
		return helper.JsonError(c, fiber.StatusBadGateway, "Payment gateway is unavailable")
	}

	desc := "School fee payment"
	if req.PaymentDescription != nil {
		desc = *req.PaymentDescription
	}
	result, err := ctl.Gateway.InitiateCollection(
		ctx, session, req.PhoneNumber, req.PaymentAmount, payment.PaymentTransactionRef, desc)
	if err != nil {
		ctl.recordGatewayFailure(payment.PaymentID, err)
		return helper.JsonError(c, fiber.StatusBadGateway, "Payment gateway request failed")
	}

	payment, err = ctl.Ledger.RecordGatewayResult(payment.PaymentID, result.Success, result.Raw)
	if err != nil {
		log.Println("[PAYMENT] ❌ record gateway result:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to record gateway result")
	}

	resp := newInitiateResponse(payment, result)
	if !result.Success {
		// business rejection, not a transport failure: 200 with success=false
		return helper.JsonOK(c, "Payment was rejected by the gateway", resp)
	}
	return helper.JsonCreated(c, "Payment initiated", resp)
}

// ===================== WEBHOOK (SANDBOX) =====================

// SimulateWebhook: POST /api/payments/simulate-webhook?paymentId=...
// Sandbox stand-in for the provider confirmation callback. Unauthenticated
// (the middleware skips it) and idempotent: replays return the recorded
// outcome without moving anything twice.
func (ctl *PaymentController) SimulateWebhook(c *fiber.Ctx) error {
	var q dto.SimulateWebhookQuery
	if err := c.QueryParser(&q); err != nil || q.PaymentID == uuid.Nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "paymentId query parameter is required")
	}

	payload := c.Body()
	if len(payload) == 0 {
		payload = []byte(`{"output_ResponseCode":"INS-0","output_ResponseDesc":"Simulated confirmation"}`)
	}

	res, err := ctl.Reconciler.ApplyConfirmation(q.PaymentID, payload, nil)
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Payment not found")
	case errors.Is(err, service.ErrPaymentAlreadyFailed):
		return helper.JsonError(c, fiber.StatusConflict, "Payment already failed; cannot confirm")
	case err != nil:
		return helper.JsonError(c, fiber.StatusInternalServerError, "Reconciliation failed")
	}

	resp := dto.ReconcileResponse{
		PaymentID:      res.Payment.PaymentID,
		PaymentStatus:  res.Payment.PaymentStatus,
		AlreadyApplied: res.AlreadyApplied,
		Warnings:       res.Warnings,
	}
	if res.Transaction != nil {
		resp.TransactionID = &res.Transaction.PaymentTransactionID
		resp.InstallmentLabel = &res.Transaction.PaymentTransactionInstallmentLabel
	}
	if res.Assignment != nil {
		status := string(res.Assignment.StudentFeeAssignmentStatus)
		resp.AssignmentStatus = &status
		resp.AssignmentPaid = &res.Assignment.StudentFeeAssignmentPaidAmount
	}

	if res.PartialSuccess {
		return helper.JsonPartial(c, "Payment confirmed; bookkeeping incomplete, safe to retry", resp)
	}
	if res.AlreadyApplied {
		return helper.JsonOK(c, "Payment was already confirmed", resp)
	}
	return helper.JsonOK(c, "Payment confirmed", resp)
}

// ===================== READS =====================

// ListMyPayments: GET /api/payments — the requesting parent's attempts.
func (ctl *PaymentController) ListMyPayments(c *fiber.Ctx) error {
	parentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var q dto.ListMyPaymentsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := validate.Struct(q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	base := ctl.DB.Model(&model.PaymentModel{}).Where("payment_parent_id = ?", parentID)
	if q.Status != nil {
		base = base.Where("payment_status = ?", *q.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to count payments")
	}

	var rows []model.PaymentModel
	if err := base.Order("payment_created_at DESC").
		Limit(q.Limit).Offset(q.Offset).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list payments")
	}

	return helper.JsonOK(c, "OK", dto.FromPaymentModels(rows, total))
}

// GetPaymentByID: GET /api/payments/:id — parent-scoped single read.
func (ctl *PaymentController) GetPaymentByID(c *fiber.Ctx) error {
	parentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payment id")
	}

	var payment model.PaymentModel
	err = ctl.DB.
		Where("payment_id = ? AND payment_parent_id = ?", paymentID, parentID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Payment not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load payment")
	}
	return helper.JsonOK(c, "OK", dto.FromPaymentModel(payment))
}

// GetGatewayStatus: GET /api/payments/:id/status — asks the provider for the
// current transaction status. Slow by construction: the status query re-opens
// a session and sits out the cooldown.
func (ctl *PaymentController) GetGatewayStatus(c *fiber.Ctx) error {
	parentID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid payment id")
	}

	var payment model.PaymentModel
	err = ctl.DB.
		Where("payment_id = ? AND payment_parent_id = ?", paymentID, parentID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Payment not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load payment")
	}

	status, err := ctl.Gateway.QueryStatus(c.Context(), payment.PaymentTransactionRef)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadGateway, "Gateway status query failed")
	}

	return helper.JsonOK(c, "OK", dto.GatewayStatusResponse{
		PaymentID:            payment.PaymentID,
		PaymentStatus:        payment.PaymentStatus,
		TransactionReference: payment.PaymentTransactionRef,
		GatewayResponseCode:  status.ResponseCode,
		GatewayStatus:        status.TransactionStatus,
	})
}

// ===================== INTERNAL =====================

// newInitiateResponse maps the gateway verdict onto the initiation body.
// transaction_id carries the provider's id, not our reference.
func newInitiateResponse(payment *model.PaymentModel, result *gateway.CollectionResult) dto.InitiatePaymentResponse {
	return dto.InitiatePaymentResponse{
		Success:              result.Success,
		PaymentID:            payment.PaymentID,
		TransactionID:        result.TransactionID,
		TransactionReference: payment.PaymentTransactionRef,
		ResponseCode:         result.ResponseCode,
		ResponseDescription:  result.ResponseDescription,
	}
}

// parentOwnsStudent checks the parent_students edge, served from the profile
// cache when warm.
func (ctl *PaymentController) parentOwnsStudent(parentID, studentID uuid.UUID) (bool, error) {
	if ids, ok := ctl.StudentLinks.Get(parentID); ok {
		for _, id := range ids {
			if id == studentID {
				return true, nil
			}
		}
		return false, nil
	}

	var links []studentmodel.ParentStudentModel
	if err := ctl.DB.
		Where("parent_student_parent_user_id = ?", parentID).
		Find(&links).Error; err != nil {
		return false, err
	}

	ids := make([]uuid.UUID, 0, len(links))
	owns := false
	for _, l := range links {
		ids = append(ids, l.ParentStudentStudentID)
		if l.ParentStudentStudentID == studentID {
			owns = true
		}
	}
	ctl.StudentLinks.Set(parentID, ids)
	return owns, nil
}

// resolveInstallment turns the request's plan reference into the installment
// context stored on the payment. selected_month matches against the plan's
// installment due dates when no explicit number is given.
func (ctl *PaymentController) resolveInstallment(req *dto.InitiatePaymentRequest) (service.InstallmentContext, error) {
	inst := service.InstallmentContext{PaymentPlanID: req.PaymentPlanID}
	if req.PaymentPlanID == nil {
		return inst, nil
	}

	var plan feemodel.PaymentPlanModel
	if err := ctl.DB.
		Where("payment_plan_id = ?", *req.PaymentPlanID).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inst, errors.New("payment plan not found")
		}
		return inst, errors.New("failed to load payment plan")
	}

	switch {
	case req.PaymentInstallmentNumber != nil:
		item, err := plan.InstallmentByNumber(*req.PaymentInstallmentNumber)
		if err != nil || item == nil {
			return inst, errors.New("installment number not found in plan")
		}
		inst.InstallmentNumber = &item.InstallmentNumber
		inst.InstallmentLabel = &item.Label
	case req.SelectedMonth != nil:
		items, err := plan.DecodeInstallments()
		if err != nil {
			return inst, errors.New("payment plan has no installment schedule")
		}
		for i := range items {
			if items[i].DueDate != nil && int(items[i].DueDate.Month()) == *req.SelectedMonth {
				inst.InstallmentNumber = &items[i].InstallmentNumber
				inst.InstallmentLabel = &items[i].Label
				break
			}
		}
		if inst.InstallmentNumber == nil {
			return inst, errors.New("no installment due in the selected month")
		}
	}
	return inst, nil
}

// recordGatewayFailure marks the attempt failed after a transport-level
// gateway error, keeping the error text in the audit payload.
func (ctl *PaymentController) recordGatewayFailure(paymentID uuid.UUID, cause error) {
	raw, _ := sonic.Marshal(fiber.Map{"transport_error": cause.Error()})
	if _, err := ctl.Ledger.RecordGatewayResult(paymentID, false, raw); err != nil {
		log.Println("[PAYMENT] ❌ failed to mark payment failed:", err)
	}
}
