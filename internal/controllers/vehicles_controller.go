package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/services"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type VehiclesController struct {
	Settings *config.Settings
	sync     services.SyncService
	commands services.CommandService
	log      *zerolog.Logger
}

func NewVehiclesController(settings *config.Settings, syncSvc services.SyncService, commands services.CommandService, logger *zerolog.Logger) VehiclesController {
	return VehiclesController{
		Settings: settings,
		sync:     syncSvc,
		commands: commands,
		log:      logger,
	}
}

type vehicleResponse struct {
	FIN          string   `json:"fin"`
	Name         string   `json:"name"`
	LicensePlate string   `json:"licensePlate,omitempty"`
	Title        string   `json:"title,omitempty"`
	Features     []string `json:"features"`
}

// GetVehicles lists the registered vehicles in account order, with the
// capabilities that are enabled for each.
func (vc VehiclesController) GetVehicles(c *fiber.Ctx) error {
	vehicles := vc.sync.Vehicles()
	out := make([]vehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		features := make([]string, 0, len(v.Features))
		for name, enabled := range v.Features {
			if enabled {
				features = append(features, name)
			}
		}
		out = append(out, vehicleResponse{
			FIN:          v.FIN,
			Name:         v.DisplayName(),
			LicensePlate: v.LicensePlate,
			Title:        v.Title,
			Features:     features,
		})
	}
	return c.JSON(out)
}

// GetSnapshot returns the last published snapshot for one vehicle. 404 for
// unknown FINs; an empty object before the first completed sync.
func (vc VehiclesController) GetSnapshot(c *fiber.Ctx) error {
	fin := c.Params("fin")
	snapshot, err := vc.sync.GetSnapshot(fin)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "no vehicle with fin "+fin)
	}
	if snapshot == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(snapshot)
}

// ExecuteCommand runs a remote command to completion and reports the
// terminal outcome. This handler blocks for the duration of command polling.
func (vc VehiclesController) ExecuteCommand(c *fiber.Ctx) error {
	fin := c.Params("fin")
	action := c.Params("action")

	success, err := vc.commands.Execute(c.Context(), fin, action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVehicleNotFound):
			return fiber.NewError(fiber.StatusNotFound, "no vehicle with fin "+fin)
		case errors.Is(err, services.ErrUnknownCommand):
			return fiber.NewError(fiber.StatusBadRequest, "unknown command: "+action)
		case errors.Is(err, services.ErrCommandDisabled):
			return fiber.NewError(fiber.StatusBadRequest, "command not enabled for this vehicle: "+action)
		case errors.Is(err, services.ErrPINRequired):
			return fiber.NewError(fiber.StatusBadRequest, "command requires a configured vehicle pin: "+action)
		}
		vc.log.Err(err).Str("fin", fin).Str("action", action).Msg("Command execution failed.")
		return fiber.NewError(fiber.StatusInternalServerError, "command execution failed")
	}

	return c.JSON(fiber.Map{"success": success})
}
