package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"shulepay_backend/internals/cache"
	"shulepay_backend/internals/configs"
	database "shulepay_backend/internals/databases"
	ratesvc "shulepay_backend/internals/features/feerates/service"
	"shulepay_backend/internals/features/payment/gateway"
	middlewares "shulepay_backend/internals/middlewares"
	routes "shulepay_backend/internals/route"
	seeds "shulepay_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		// 🚀 fast JSON
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ base + performance middleware
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		// generous guard: a cold gateway session blocks ~30s before the
		// C2B request even fires
		ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		dur := time.Since(start)
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), dur)
		return err
	})

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.EnsureIndexes()
	database.WarmUpQueries()

	// 💳 M-Pesa gateway client
	gw, err := gateway.NewClient(configs.LoadGatewayConfig())
	if err != nil {
		log.Fatalf("❌ gateway client: %v", err)
	}

	// 👨‍👩‍👧 parent→students link cache
	links, err := cache.New[uuid.UUID, []uuid.UUID](
		configs.GetEnvInt("PROFILE_CACHE_SIZE", 2048),
		time.Duration(configs.GetEnvInt("PROFILE_CACHE_TTL_SECONDS", 300))*time.Second,
		time.Now,
	)
	if err != nil {
		log.Fatalf("❌ profile cache: %v", err)
	}

	// 🌱 demo data (dev only)
	if os.Getenv("SEED_ON_START") == "1" {
		seeds.RunAllSeeds(database.DB)
	}

	// ⏱ schedulers after the DB is ready
	ratesvc.StartExpiryScheduler(ratesvc.NewFeeRateService(database.DB), time.Hour)

	// ✅ Routes
	routes.SetupRoutes(app, database.DB, gw, links)

	// 🔒 server timeouts: initiation legitimately holds the connection
	// through the session cooldown
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 90 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown + close the DB pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
