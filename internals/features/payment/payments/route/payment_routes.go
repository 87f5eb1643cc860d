// internals/features/payment/payments/route/payment_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shulepay_backend/internals/cache"
	"shulepay_backend/internals/constants"
	"shulepay_backend/internals/features/payment/gateway"
	paymentcontroller "shulepay_backend/internals/features/payment/payments/controller"
	"shulepay_backend/internals/middlewares"
	authmw "shulepay_backend/internals/middlewares/auth"
)

// PaymentParentRoutes: authenticated parent surface.
func PaymentParentRoutes(r fiber.Router, db *gorm.DB, gw *gateway.Client, links *cache.ProfileCache[uuid.UUID, []uuid.UUID]) {
	ctl := paymentcontroller.NewPaymentController(db, gw, links)

	payments := r.Group("/payments",
		authmw.RequireCapability(constants.CanInitiatePayment, "Only parents may pay fees"))
	payments.Post("/initiate", middlewares.PaymentInitiationRateLimiter(), ctl.InitiatePayment)
	payments.Get("/", ctl.ListMyPayments)
	payments.Get("/:id", ctl.GetPaymentByID)
	payments.Get("/:id/status", ctl.GetGatewayStatus)
}

// PaymentWebhookRoutes: the sandbox confirmation surrogate. No auth — the
// middleware skip list lets it through, mirroring a provider callback.
func PaymentWebhookRoutes(r fiber.Router, db *gorm.DB) {
	ctl := paymentcontroller.NewPaymentController(db, nil, nil)
	r.Post("/payments/simulate-webhook", ctl.SimulateWebhook)
}
