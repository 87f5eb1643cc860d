// internals/features/fees/route/fee_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"shulepay_backend/internals/constants"
	feecontroller "shulepay_backend/internals/features/fees/controller"
	authmw "shulepay_backend/internals/middlewares/auth"
)

// FeeRoutes: assignment listings and category progress. Parents and school
// finance staff share the surface; scoping happens in the controller.
func FeeRoutes(r fiber.Router, db *gorm.DB) {
	ctl := feecontroller.NewFeeController(db)

	fees := r.Group("/fees",
		authmw.RequireCapability(constants.CanViewFeeProgress, "Not allowed to view fee records"))
	fees.Get("/assignments", ctl.ListAssignments)
	fees.Get("/progress", ctl.CategoryProgress)
}
