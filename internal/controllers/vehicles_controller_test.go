package controllers

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/services"
	"github.com/homeauto/mercedesme-api/internal/test"
)

type stubSyncService struct {
	vehicles  []*services.Vehicle
	snapshots map[string]*services.Snapshot
}

func (s *stubSyncService) Discover(context.Context) error        { return nil }
func (s *stubSyncService) SyncAll(context.Context)               {}
func (s *stubSyncService) SyncNow(context.Context, string) error { return nil }
func (s *stubSyncService) Vehicles() []*services.Vehicle         { return s.vehicles }

func (s *stubSyncService) GetVehicle(fin string) (*services.Vehicle, error) {
	for _, v := range s.vehicles {
		if v.FIN == fin {
			return v, nil
		}
	}
	return nil, services.ErrVehicleNotFound
}

func (s *stubSyncService) GetSnapshot(fin string) (*services.Snapshot, error) {
	if _, err := s.GetVehicle(fin); err != nil {
		return nil, err
	}
	return s.snapshots[fin], nil
}

type stubCommandService struct {
	success bool
	err     error
	lastFIN string
	lastCmd string
}

func (s *stubCommandService) Execute(_ context.Context, fin, action string) (bool, error) {
	s.lastFIN = fin
	s.lastCmd = action
	return s.success, s.err
}

func testApp(syncSvc services.SyncService, commandSvc services.CommandService) *fiber.App {
	app := fiber.New()
	vc := NewVehiclesController(&config.Settings{}, syncSvc, commandSvc, test.Logger())
	app.Get("/v1/vehicles", vc.GetVehicles)
	app.Get("/v1/vehicles/:fin/snapshot", vc.GetSnapshot)
	app.Post("/v1/vehicles/:fin/commands/:action", vc.ExecuteCommand)
	return app
}

func TestGetVehicles(t *testing.T) {
	syncSvc := &stubSyncService{
		vehicles: []*services.Vehicle{
			{FIN: "WDD111", LicensePlate: "M-XX 1", Features: services.FeatureSet{"aux_heat": true, "remote_door_lock": false}},
			{FIN: "WDD222"},
		},
	}
	app := testApp(syncSvc, &stubCommandService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/vehicles", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, int64(2), gjson.GetBytes(body, "#").Int())
	assert.Equal(t, "WDD111", gjson.GetBytes(body, "0.fin").String())
	assert.Equal(t, "M-XX 1", gjson.GetBytes(body, "0.name").String())
	assert.Equal(t, "WDD222", gjson.GetBytes(body, "1.name").String(), "name falls back to the FIN")
	assert.Equal(t, `["aux_heat"]`, gjson.GetBytes(body, "0.features").Raw, "only enabled features are listed")
}

func TestGetSnapshot(t *testing.T) {
	syncSvc := &stubSyncService{
		vehicles: []*services.Vehicle{{FIN: "WDD111"}},
		snapshots: map[string]*services.Snapshot{
			"WDD111": {Groups: map[services.GroupName]services.Group{
				services.GroupOdometer: {"odo": {Value: 12345, Status: "VALID"}},
			}},
		},
	}
	app := testApp(syncSvc, &stubCommandService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/vehicles/WDD111/snapshot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, int64(12345), gjson.GetBytes(body, "groups.odometer.odo.value").Int())
}

func TestGetSnapshot_UnknownFIN(t *testing.T) {
	app := testApp(&stubSyncService{}, &stubCommandService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/vehicles/NOPE/snapshot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetSnapshot_BeforeFirstSync(t *testing.T) {
	syncSvc := &stubSyncService{vehicles: []*services.Vehicle{{FIN: "WDD111"}}}
	app := testApp(syncSvc, &stubCommandService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/vehicles/WDD111/snapshot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "{}", string(body))
}

func TestExecuteCommand(t *testing.T) {
	syncSvc := &stubSyncService{vehicles: []*services.Vehicle{{FIN: "WDD111"}}}
	commandSvc := &stubCommandService{success: true}
	app := testApp(syncSvc, commandSvc)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/vehicles/WDD111/commands/doors_lock", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.Equal(t, "WDD111", commandSvc.lastFIN)
	assert.Equal(t, "doors_lock", commandSvc.lastCmd)
}

func TestExecuteCommand_ErrorMapping(t *testing.T) {
	syncSvc := &stubSyncService{vehicles: []*services.Vehicle{{FIN: "WDD111"}}}

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown vehicle", services.ErrVehicleNotFound, fiber.StatusNotFound},
		{"unknown command", services.ErrUnknownCommand, fiber.StatusBadRequest},
		{"disabled command", services.ErrCommandDisabled, fiber.StatusBadRequest},
		{"missing pin", services.ErrPINRequired, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := testApp(syncSvc, &stubCommandService{err: tc.err})

			resp, err := app.Test(httptest.NewRequest("POST", "/v1/vehicles/WDD111/commands/whatever", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.code, resp.StatusCode)
		})
	}
}
