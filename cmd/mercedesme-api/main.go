package main

import (
	"context"
	"os"
	"time"

	"github.com/DIMO-Network/shared"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/services"

	_ "go.uber.org/automaxprocs"
)

func main() {
	gitSha1 := os.Getenv("GIT_SHA1")
	ctx := context.Background()
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", "mercedesme-api").
		Str("git-sha1", gitSha1).
		Logger()

	settings, err := shared.LoadConfig[config.Settings]("settings.yaml")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load settings")
	}
	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msgf("could not parse LOG_LEVEL: %s", settings.LogLevel)
	}
	zerolog.SetGlobalLevel(level)

	if err := settings.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Settings are incomplete.")
	}

	authSvc := services.NewMercedesAuthService(&settings, &logger)
	tokens := services.NewTokenStore(settings.TokenCachePath, authSvc, &logger)

	arg := ""
	if len(os.Args) > 1 {
		arg = os.Args[1]
	}

	switch arg {
	case "login":
		if err := runLogin(ctx, authSvc, tokens, logger); err != nil {
			logger.Fatal().Err(err).Msg("Login failed.")
		}
	default:
		serve(ctx, &settings, authSvc, tokens, logger)
	}
}

// bootstrapToken makes sure the store holds a usable token before any
// backend traffic starts: the cache first (with a refresh if it's expired),
// then a full interactive login with the configured credentials.
func bootstrapToken(ctx context.Context, authSvc services.AuthService, tokens *services.TokenStore, logger zerolog.Logger) error {
	if token := tokens.Load(ctx); token != nil {
		logger.Info().Msg("Using cached token.")
		return nil
	}

	logger.Info().Msg("No usable cached token, performing full login.")
	token, err := authSvc.Login(ctx)
	if err != nil {
		return err
	}
	return tokens.Set(token)
}

func serve(ctx context.Context, settings *config.Settings, authSvc services.AuthService, tokens *services.TokenStore, logger zerolog.Logger) {
	if err := bootstrapToken(ctx, authSvc, tokens, logger); err != nil {
		logger.Fatal().Err(err).Msg("Could not acquire a token.")
	}

	apiSvc := services.NewMercedesAPIService(settings, tokens, &logger)
	syncSvc := services.NewSyncService(settings, apiSvc, tokens, &logger)
	commandSvc := services.NewCommandService(settings, apiSvc, syncSvc, &logger)

	if err := syncSvc.Discover(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Vehicle discovery failed.")
	}

	startMonitoringServer(logger, settings)
	go runSyncLoop(ctx, settings, syncSvc)

	startWebAPI(logger, settings, syncSvc, commandSvc)
}

// runSyncLoop drives periodic state synchronization. Discovery already
// populated the initial snapshots; the tick is a nudge, not a command, since
// SyncAll applies its own throttle and extra ticks are safe.
func runSyncLoop(ctx context.Context, settings *config.Settings, syncSvc services.SyncService) {
	ticker := time.NewTicker(settings.ScanInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncSvc.SyncAll(ctx)
		}
	}
}

func startMonitoringServer(logger zerolog.Logger, settings *config.Settings) {
	monApp := fiber.New(fiber.Config{DisableStartupMessage: true})

	monApp.Use(pprof.New())

	monApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	monApp.Put("/loglevel", changeLogLevel)

	go func() {
		if err := monApp.Listen(":" + settings.MonitoringServerPort); err != nil {
			logger.Fatal().Err(err).Str("port", settings.MonitoringServerPort).Msg("Failed to start monitoring web server.")
		}
	}()

	logger.Info().Str("port", settings.MonitoringServerPort).Msg("Started monitoring web server.")
}

func changeLogLevel(c *fiber.Ctx) error {
	payload := struct {
		LogLevel string `json:"logLevel"`
	}{}
	if err := c.BodyParser(&payload); err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(payload.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return c.Status(fiber.StatusOK).SendString("log level set to: " + level.String())
}
