package handler

import (
	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type StationHandler struct {
	stationRepo repository.StationRepository
}

func NewStationHandler(stationRepo repository.StationRepository) *StationHandler {
	return &StationHandler{stationRepo: stationRepo}
}

// GetStations returns all stations
// GET /api/v1/stations
func (h *StationHandler) GetStations(c *fiber.Ctx) error {
	stations, err := h.stationRepo.FindAll()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stations"})
	}
	return c.JSON(stations)
}

// CreateStation registers a new physical location
// POST /api/v1/stations
func (h *StationHandler) CreateStation(c *fiber.Ctx) error {
	var station model.Station
	if err := c.BodyParser(&station); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if errs := validator.ValidateStruct(&station); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Station name is required"})
	}

	if err := h.stationRepo.Create(&station); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to create station (name must be unique)"})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Station created", "data": station})
}
