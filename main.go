package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
	"spice-portal-backend/config"
	apiv1 "spice-portal-backend/controllers/v1"
	"spice-portal-backend/controllers/v1/dict"
	"spice-portal-backend/fiberlog"
	"spice-portal-backend/initializers"
	"spice-portal-backend/lib/ws"
	"spice-portal-backend/metrics"
	"spice-portal-backend/middleware"
	apimodels "spice-portal-backend/models/api"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	initializers.InitAllServices(ctx)

	bodyLimit := config.Conf.App.BodyLimitMb * 1024 * 1024
	app := fiber.New(fiber.Config{
		BodyLimit: bodyLimit,
	})
	app.Use(fiberRecover.New())

	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			Path:     "/swagger",
			FilePath: swaggerFile,
		}))
	} else {
		log.Warn("swagger document not found, /swagger is disabled")
	}
	app.Get("/metrics", adaptor.HTTPHandler(metrics.MetricsHandler()))

	//api
	apiV1 := fiber.New()
	apiV1.Use(fiberlog.New(*initializers.LoggerConfig))
	app.Mount("/api/v1", apiV1)
	apiV1.Use(cors.New(cors.Config{
		AllowOrigins: config.Conf.App.CorsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
	}))
	apiV1.Use(limiter.New(limiter.Config{
		Max:        config.Conf.RateLimit.Max,
		Expiration: time.Duration(config.Conf.RateLimit.ExpirationS) * time.Second,
		LimitReached: func(ctx *fiber.Ctx) error {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(apimodels.NewError("too many requests"))
		},
	}))
	apiV1.Use(middleware.WithBodyLimit(int64(bodyLimit)))
	if config.Conf.ErrNotify.Addr != "" {
		apiV1.Use(middleware.ErrNotify(config.Conf.ErrNotify.Addr))
	}
	apiV1.Use(middleware.AuthorizationRequired())
	apiV1.Use(middleware.RbacMiddleware())

	apiv1.InitApprovalApiRouters(apiV1)
	apiv1.InitProfileApiRouters(apiV1)
	apiv1.InitCertificateApiRouters(apiV1)
	apiv1.InitNotificationApiRouters(apiV1)
	apiv1.InitUserApiRouters(apiV1)

	//dict
	dicts := fiber.New()
	apiV1.Mount("/dict", dicts)
	dict.InitLookupDictApiRouters(dicts)

	//websocket push
	ws.InitWs(apiV1.Group("/ws"))

	// gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	wg := sync.WaitGroup{}
	go func() {
		_ = <-c
		wg.Add(1)
		defer wg.Done()
		log.Info("Gracefully shutting down...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Error when try gracefully shutting down")
		}
		time.Sleep(time.Second)
		log.Info("Gracefully shutting down finished")
	}()

	// run HTTP server
	if err := app.Listen(fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)); err != nil {
		log.Fatal(err)
	}

	wg.Wait()
	log.Info("HTTP server successfully stopped")
}
