package routes

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newRouteDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db
}

// The mounted surface is role-scoped: parents under /u, school admins under
// /a, platform admins under /p, with the webhook surrogate outside the
// scoped trees.
func TestSetupRoutesMountsRoleScopedTrees(t *testing.T) {
	app := fiber.New()
	SetupRoutes(app, newRouteDB(t), nil, nil)

	want := []string{
		"POST /api/u/payments/initiate",
		"GET /api/u/payments",
		"GET /api/u/payments/:id",
		"GET /api/u/payments/:id/status",
		"GET /api/u/fees/assignments",
		"GET /api/u/fees/progress",
		"POST /api/a/fee-rates",
		"POST /api/a/fee-rates/:id/approve",
		"POST /api/a/fee-rates/:id/reject",
		"GET /api/a/fee-rates",
		"POST /api/p/fee-rates",
		"POST /api/p/fee-rates/:id/approve",
		"POST /api/p/fee-rates/:id/reject",
		"GET /api/p/fee-rates",
		"POST /api/payments/simulate-webhook",
		"GET /health",
	}

	mounted := map[string]bool{}
	for _, r := range app.GetRoutes() {
		mounted[r.Method+" "+r.Path] = true
	}

	for _, key := range want {
		if !mounted[key] && !mounted[key+"/"] {
			t.Errorf("route not mounted: %s", key)
		}
	}
}
