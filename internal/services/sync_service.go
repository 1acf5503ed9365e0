package services

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/homeauto/mercedesme-api/internal/appmetrics"
	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ErrVehicleNotFound is returned for FINs the account does not own or that
// were excluded by configuration.
var ErrVehicleNotFound = errors.New("vehicle not found")

// SyncService owns the vehicle registry and keeps each vehicle's snapshot
// current. One instance is shared by the web API and the command executor.
type SyncService interface {
	Discover(ctx context.Context) error
	SyncAll(ctx context.Context)
	SyncNow(ctx context.Context, fin string) error
	Vehicles() []*Vehicle
	GetVehicle(fin string) (*Vehicle, error)
	GetSnapshot(fin string) (*Snapshot, error)
}

type syncService struct {
	Settings *config.Settings
	api      MercedesAPIService
	tokens   *TokenStore
	clock    clock.Clock
	log      *zerolog.Logger

	mu       sync.RWMutex
	vehicles []*Vehicle
	index    map[string]*Vehicle
	lastSync time.Time
	syncing  bool
}

func NewSyncService(settings *config.Settings, api MercedesAPIService, tokens *TokenStore, logger *zerolog.Logger) SyncService {
	return &syncService{
		Settings: settings,
		api:      api,
		tokens:   tokens,
		clock:    clock.New(),
		log:      logger,
		index:    make(map[string]*Vehicle),
	}
}

// Discover fetches the account's vehicle list and registers every vehicle
// that has a FIN and is not excluded by configuration, preserving account
// order. Feature enablements are fetched once per vehicle here; a vehicle
// whose feature fetch fails is still registered, with every capability
// treated as disabled. Registration ends with one telemetry fetch per
// vehicle, so every registered vehicle has a snapshot. Snapshots of
// previously known vehicles survive a re-discovery.
func (s *syncService) Discover(ctx context.Context) error {
	account, err := s.api.GetAccountVehicles(ctx)
	if err != nil {
		return errors.Wrap(err, "vehicle discovery failed")
	}

	excluded := make(map[string]struct{})
	for _, vin := range s.Settings.ExcludedVINList() {
		excluded[vin] = struct{}{}
	}

	vehicles := make([]*Vehicle, 0, len(account))
	index := make(map[string]*Vehicle, len(account))
	for _, av := range account {
		if av.FIN == "" {
			s.log.Warn().Str("plate", av.LicensePlate).Msg("Skipping account vehicle without a FIN.")
			continue
		}
		if _, skip := excluded[av.FIN]; skip {
			s.log.Info().Str("fin", av.FIN).Msg("Skipping excluded vehicle.")
			continue
		}

		features, err := s.api.GetFeatures(ctx, av.FIN)
		if err != nil {
			s.log.Warn().Err(err).Str("fin", av.FIN).Msg("Could not fetch vehicle features, treating all as disabled.")
			features = FeatureSet{}
		}

		v := &Vehicle{
			FIN:          av.FIN,
			LicensePlate: av.LicensePlate,
			Title:        av.VehicleTitle,
			Features:     features,
		}

		s.mu.RLock()
		if prev, ok := s.index[av.FIN]; ok {
			v.snapshot = prev.snapshot
		}
		s.mu.RUnlock()

		vehicles = append(vehicles, v)
		index[av.FIN] = v
		s.log.Info().Str("fin", av.FIN).Str("name", v.DisplayName()).Msg("Registered vehicle.")
	}

	s.mu.Lock()
	s.vehicles = vehicles
	s.index = index
	s.mu.Unlock()

	// Populate the initial snapshots so the API never serves a registered
	// vehicle without telemetry.
	for _, v := range vehicles {
		s.syncVehicle(ctx, v)
	}

	return nil
}

// SyncAll refreshes every registered vehicle, at most once per configured
// scan interval. Calls inside the interval are no-ops, so overlapping tick
// sources cannot stampede the backend. Per-vehicle failures are isolated:
// one vehicle's bad fetch never blocks the rest of the cycle.
func (s *syncService) SyncAll(ctx context.Context) {
	s.mu.Lock()
	if s.syncing || s.clock.Now().Sub(s.lastSync) < s.Settings.ScanInterval() {
		s.mu.Unlock()
		return
	}
	s.syncing = true
	vehicles := make([]*Vehicle, len(s.vehicles))
	copy(vehicles, s.vehicles)
	s.mu.Unlock()

	// Settle the token once up front so the fan-out below shares one refresh
	// decision. A failed refresh is not fatal: the cycle proceeds and failed
	// fetches surface as hard misses in the snapshots.
	if _, err := s.tokens.Access(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Token not refreshed before sync cycle.")
	}

	appmetrics.SyncCyclesTotal.Inc()
	for _, v := range vehicles {
		s.syncVehicle(ctx, v)
	}

	// The interval runs from the end of the cycle, so a slow cycle does not
	// eat into the gap before the next one.
	s.mu.Lock()
	s.lastSync = s.clock.Now()
	s.syncing = false
	s.mu.Unlock()
}

// SyncNow refreshes a single vehicle immediately, bypassing the scan
// throttle. Used after a successful command so the snapshot reflects the new
// vehicle state without waiting out the interval.
func (s *syncService) SyncNow(ctx context.Context, fin string) error {
	v, err := s.GetVehicle(fin)
	if err != nil {
		return err
	}
	s.syncVehicle(ctx, v)
	return nil
}

func (s *syncService) syncVehicle(ctx context.Context, v *Vehicle) {
	var dynamic []byte
	body, err := s.api.GetDynamicStatus(ctx, v.FIN)
	if err != nil {
		appmetrics.VehicleSyncFailuresTotal.Inc()
		s.log.Err(err).Str("fin", v.FIN).Msg("Dynamic status fetch failed.")
	} else {
		dynamic = body
		if sub := gjson.GetBytes(body, "dynamic"); sub.Exists() {
			dynamic = []byte(sub.Raw)
		}
	}

	snapshot := &Snapshot{
		Groups:  make(map[GroupName]Group, len(snapshotGroups)),
		Updated: s.clock.Now(),
	}

	for _, g := range snapshotGroups {
		if g.spec.feature != "" && !v.Features.Enabled(g.spec.feature) {
			continue
		}

		doc := dynamic
		if g.name == GroupLocation {
			doc = nil
			if loc, err := s.api.GetLocation(ctx, v.FIN); err != nil {
				appmetrics.VehicleSyncFailuresTotal.Inc()
				s.log.Err(err).Str("fin", v.FIN).Msg("Location fetch failed.")
			} else {
				doc = loc
			}
		}

		if doc == nil {
			snapshot.Groups[g.name] = hardMissGroup(g.spec.options)
			continue
		}
		snapshot.Groups[g.name] = mapGroupValues(doc, g.spec.options)
	}

	applyTireWarning(snapshot, s.Settings.TireWarningField)

	s.mu.Lock()
	v.snapshot = snapshot
	s.mu.Unlock()
}

// Vehicles returns the registered vehicles in account order.
func (s *syncService) Vehicles() []*Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Vehicle, len(s.vehicles))
	copy(out, s.vehicles)
	return out
}

func (s *syncService) GetVehicle(fin string) (*Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.index[fin]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	return v, nil
}

// GetSnapshot returns the vehicle's last published snapshot, or nil when no
// sync has completed for it yet. Snapshots are immutable; callers may hold
// the pointer as long as they like.
func (s *syncService) GetSnapshot(fin string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.index[fin]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	return v.snapshot, nil
}
