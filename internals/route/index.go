package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shulepay_backend/internals/cache"
	feeroute "shulepay_backend/internals/features/fees/route"
	rateroute "shulepay_backend/internals/features/feerates/route"
	"shulepay_backend/internals/features/payment/gateway"
	paymentroute "shulepay_backend/internals/features/payment/payments/route"
	authmw "shulepay_backend/internals/middlewares/auth"
)

var startTime time.Time

// SetupRoutes mounts everything under /api: /u for the parent-facing surface,
// /a for school admins, /p for platform admins. The webhook surrogate rides
// the auth middleware's skip list, mirroring a provider callback.
func SetupRoutes(app *fiber.App, db *gorm.DB, gw *gateway.Client, links *cache.ProfileCache[uuid.UUID, []uuid.UUID]) {
	startTime = time.Now()

	BaseRoutes(app)

	api := app.Group("/api", authmw.AuthMiddleware())

	paymentroute.PaymentWebhookRoutes(api, db)

	user := api.Group("/u")
	paymentroute.PaymentParentRoutes(user, db, gw, links)
	feeroute.FeeRoutes(user, db)

	school := api.Group("/a")
	rateroute.FeeRateSchoolRoutes(school, db)

	platform := api.Group("/p")
	rateroute.FeeRatePlatformRoutes(platform, db)
}
