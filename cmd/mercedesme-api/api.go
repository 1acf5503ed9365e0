package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/controllers"
	"github.com/homeauto/mercedesme-api/internal/controllers/helpers"
	"github.com/homeauto/mercedesme-api/internal/middleware/metrics"
	"github.com/homeauto/mercedesme-api/internal/services"
)

func startWebAPI(logger zerolog.Logger, settings *config.Settings, syncSvc services.SyncService, commandSvc services.CommandService) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helpers.ErrorHandler(c, err, &logger, settings.IsProduction())
		},
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(metrics.HTTPMetricsPrometheusMiddleware)

	app.Get("/", healthCheck)

	vehiclesController := controllers.NewVehiclesController(settings, syncSvc, commandSvc, &logger)

	v1 := app.Group("/v1")
	v1.Get("/vehicles", vehiclesController.GetVehicles)
	v1.Get("/vehicles/:fin/snapshot", vehiclesController.GetSnapshot)
	v1.Post("/vehicles/:fin/commands/:action", vehiclesController.ExecuteCommand)

	go func() {
		if err := app.Listen(":" + settings.Port); err != nil {
			logger.Fatal().Err(err).Str("port", settings.Port).Msg("Failed to start web server.")
		}
	}()
	logger.Info().Str("port", settings.Port).Msg("Started web server.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Info().Msg("Gracefully shutting down and running cleanup tasks...")
	_ = app.Shutdown()
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(map[string]interface{}{
		"data": "Server is up and running",
	})
}
