// internals/features/feerates/route/fee_rate_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"shulepay_backend/internals/constants"
	ratecontroller "shulepay_backend/internals/features/feerates/controller"
	authmw "shulepay_backend/internals/middlewares/auth"
)

// FeeRateSchoolRoutes: the school side of the dual-approval workflow,
// mounted under /a. Sign-offs need a school admin; staff get read-only
// access. The controller pins school-side callers to their token's school.
func FeeRateSchoolRoutes(r fiber.Router, db *gorm.DB) {
	ctl := ratecontroller.NewFeeRateController(db)

	canView := func(role constants.Role) bool {
		return constants.CanActForSchool(role) || constants.CanViewSchoolFinance(role)
	}

	rates := r.Group("/fee-rates")
	rates.Get("/", authmw.RequireCapability(canView, "Not allowed to view fee rates"), ctl.List)
	rates.Post("/", authmw.RequireCapability(constants.CanActForSchool, "Only school admins may propose fee rates"), ctl.Propose)
	rates.Post("/:id/approve", authmw.RequireCapability(constants.CanActForSchool, "Only school admins may approve fee rates"), ctl.Approve)
	rates.Post("/:id/reject", authmw.RequireCapability(constants.CanActForSchool, "Only school admins may reject fee rates"), ctl.Reject)
}

// FeeRatePlatformRoutes: the platform side, mounted under /p. Platform admins
// name the target school in the body/query.
func FeeRatePlatformRoutes(r fiber.Router, db *gorm.DB) {
	ctl := ratecontroller.NewFeeRateController(db)

	rates := r.Group("/fee-rates",
		authmw.RequireCapability(constants.CanActForPlatform, "Platform admin access required"))
	rates.Get("/", ctl.List)
	rates.Post("/", ctl.Propose)
	rates.Post("/:id/approve", ctl.Approve)
	rates.Post("/:id/reject", ctl.Reject)
}
