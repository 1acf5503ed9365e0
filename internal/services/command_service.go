package services

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/homeauto/mercedesme-api/internal/appmetrics"
	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/constants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrCommandDisabled = errors.New("command not enabled for vehicle")
	ErrPINRequired     = errors.New("command requires a vehicle pin")
)

// commandSpec describes one remote command: its endpoint, the capability
// that must be enabled on the vehicle, and any extra request material.
type commandSpec struct {
	path    string
	feature string

	// pin commands are rejected by the backend without the account's
	// security pin in the x-pin header.
	pin bool

	// departure commands carry the current time of day so the backend starts
	// heating or cooling immediately rather than scheduling it.
	departure bool
}

var commandSpecs = map[string]commandSpec{
	"doors_lock":    {path: constants.CommandPathDoorsLock, feature: constants.FeatureRemoteDoorLock},
	"doors_unlock":  {path: constants.CommandPathDoorsUnlock, feature: constants.FeatureRemoteDoorLock, pin: true},
	"auxheat_start": {path: constants.CommandPathAuxHeatStart, feature: constants.FeatureAuxHeat, departure: true},
	"auxheat_stop":  {path: constants.CommandPathAuxHeatStop, feature: constants.FeatureAuxHeat},
	"precond_start": {path: constants.CommandPathPrecondStart, feature: constants.FeatureChargingClimaControl, departure: true},
	"precond_stop":  {path: constants.CommandPathPrecondStop, feature: constants.FeatureChargingClimaControl},
	"engine_start":  {path: constants.CommandPathRemoteStartOn, feature: constants.FeatureRemoteEngineStart, pin: true},
	"engine_stop":   {path: constants.CommandPathRemoteStartOff, feature: constants.FeatureRemoteEngineStart},
}

// CommandService issues remote commands and drives them to a terminal state.
type CommandService interface {
	Execute(ctx context.Context, fin, action string) (bool, error)
}

type commandService struct {
	Settings *config.Settings
	api      MercedesAPIService
	sync     SyncService
	clock    clock.Clock
	log      *zerolog.Logger

	pollInterval time.Duration
	maxPolls     int
}

func NewCommandService(settings *config.Settings, api MercedesAPIService, syncSvc SyncService, logger *zerolog.Logger) CommandService {
	return &commandService{
		Settings:     settings,
		api:          api,
		sync:         syncSvc,
		clock:        clock.New(),
		log:          logger,
		pollInterval: settings.CommandPollInterval(),
		maxPolls:     settings.CommandPolls(),
	}
}

// Execute issues the named command against one vehicle and polls until the
// backend reports a terminal status or the poll budget runs out. It returns
// true only for a definitive SUCCESS; a command still pending when polling
// stops counts as failed. Once the command has reached the backend the
// vehicle is resynced on every exit path, so the snapshot reflects what the
// command actually did even when polling broke down.
func (c *commandService) Execute(ctx context.Context, fin, action string) (bool, error) {
	v, err := c.sync.GetVehicle(fin)
	if err != nil {
		return false, err
	}

	spec, ok := commandSpecs[action]
	if !ok {
		return false, ErrUnknownCommand
	}
	if !v.Features.Enabled(spec.feature) {
		return false, ErrCommandDisabled
	}

	pin := ""
	if spec.pin {
		if c.Settings.VehiclePIN == "" {
			return false, ErrPINRequired
		}
		pin = c.Settings.VehiclePIN
	}

	var body []byte
	if spec.departure {
		now := c.clock.Now()
		minutes := now.Hour()*60 + now.Minute()
		body = []byte(fmt.Sprintf(`{"currentDepartureTime": %d}`, minutes))
	}

	jobID := ksuid.New().String()
	logger := c.log.With().Str("jobId", jobID).Str("fin", fin).Str("action", action).Logger()

	appmetrics.CommandsTotal.Inc()
	status, err := c.api.SendCommand(ctx, fin, spec.path, pin, body)
	if err != nil {
		return false, errors.Wrapf(err, "could not issue command %s", action)
	}
	logger.Info().Str("status", status).Msg("Command issued.")

	// The command reached the backend, so the vehicle state may have
	// changed no matter how the rest of this call goes. Resync on every
	// exit path from here on.
	defer func() {
		if err := c.sync.SyncNow(ctx, fin); err != nil {
			logger.Warn().Err(err).Msg("Post-command resync failed.")
		}
	}()

	for polls := 0; status == constants.CommandStatusPending && polls < c.maxPolls; polls++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-c.clock.After(c.pollInterval):
		}

		status, err = c.api.PollCommand(ctx, fin, spec.path)
		if err != nil {
			return false, errors.Wrapf(err, "could not poll command %s", action)
		}
	}

	success := status == constants.CommandStatusSuccess
	if success {
		appmetrics.CommandSuccessesTotal.Inc()
		logger.Info().Msg("Command succeeded.")
	} else {
		logger.Warn().Str("status", status).Msg("Command did not succeed.")
	}

	return success, nil
}
