package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/homeauto/mercedesme-api/internal/services"
)

// runLogin performs the full web login with the configured credentials and
// persists the resulting token pair to the cache file, so the service can
// start afterwards without touching the login flow again until the refresh
// token dies.
func runLogin(ctx context.Context, authSvc services.AuthService, tokens *services.TokenStore, logger zerolog.Logger) error {
	token, err := authSvc.Login(ctx)
	if err != nil {
		return err
	}
	if err := tokens.Set(token); err != nil {
		return err
	}
	logger.Info().Time("expiry", token.Expiry).Msg("Login succeeded, token cached.")
	return nil
}
