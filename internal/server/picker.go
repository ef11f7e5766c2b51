package server

import (
	"foodshare/internal/picker"
	"foodshare/models"

	"github.com/gofiber/fiber/v2"
)

type sessionResponse struct {
	ID string `json:"id"`
	picker.PinState
}

type pointRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func (p pointRequest) coordinate() (models.Coordinate, bool) {
	if p.Lat == nil || p.Lon == nil {
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: *p.Lat, Lon: *p.Lon}, true
}

func parsePoint(c *fiber.Ctx) (models.Coordinate, error) {
	var req pointRequest
	if err := c.BodyParser(&req); err != nil {
		return models.Coordinate{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	coord, ok := req.coordinate()
	if !ok {
		return models.Coordinate{}, fiber.NewError(fiber.StatusBadRequest, "lat and lon required")
	}
	return coord, nil
}

func registerPickerRoutes(r fiber.Router, sessions *picker.Sessions) {
	lookup := func(c *fiber.Ctx) (*picker.Controller, error) {
		ctrl, ok := sessions.Get(c.Params("id"))
		if !ok {
			return nil, fiber.NewError(fiber.StatusNotFound, "picker session not found")
		}
		return ctrl, nil
	}

	r.Post("/", func(c *fiber.Ctx) error {
		var body struct {
			pointRequest
			Address  string `json:"address"`
			DeviceID string `json:"device_id"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		start, ok := body.coordinate()
		if !ok {
			start = picker.DefaultPin
		}
		id, ctrl, err := sessions.Open(body.DeviceID, start, body.Address)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(sessionResponse{ID: id, PinState: ctrl.State()})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		ctrl, err := lookup(c)
		if err != nil {
			return err
		}
		return c.JSON(sessionResponse{ID: c.Params("id"), PinState: ctrl.State()})
	})

	r.Post("/:id/pin", func(c *fiber.Ctx) error {
		ctrl, err := lookup(c)
		if err != nil {
			return err
		}
		coord, err := parsePoint(c)
		if err != nil {
			return err
		}
		if err := ctrl.PinMoved(coord); err != nil {
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(sessionResponse{ID: c.Params("id"), PinState: ctrl.State()})
	})

	r.Post("/:id/region", func(c *fiber.Ctx) error {
		ctrl, err := lookup(c)
		if err != nil {
			return err
		}
		coord, err := parsePoint(c)
		if err != nil {
			return err
		}
		if err := ctrl.RegionChanged(coord); err != nil {
			return err
		}
		return c.JSON(sessionResponse{ID: c.Params("id"), PinState: ctrl.State()})
	})

	r.Post("/:id/address", func(c *fiber.Ctx) error {
		ctrl, err := lookup(c)
		if err != nil {
			return err
		}
		var body struct {
			Address string `json:"address"`
			Commit  bool   `json:"commit"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		status := fiber.StatusOK
		if body.Commit {
			err = ctrl.CommitAddress(body.Address)
			status = fiber.StatusAccepted
		} else {
			err = ctrl.EditAddress(body.Address)
		}
		if err != nil {
			return err
		}
		return c.Status(status).JSON(sessionResponse{ID: c.Params("id"), PinState: ctrl.State()})
	})

	r.Post("/:id/current", func(c *fiber.Ctx) error {
		ctrl, err := lookup(c)
		if err != nil {
			return err
		}
		moved, err := ctrl.UseCurrentLocation()
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"moved": moved, "session": sessionResponse{ID: c.Params("id"), PinState: ctrl.State()}})
	})

	r.Post("/:id/confirm", func(c *fiber.Ctx) error {
		if _, err := lookup(c); err != nil {
			return err
		}
		loc, err := sessions.Confirm(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(loc)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if !sessions.Cancel(c.Params("id")) {
			return fiber.NewError(fiber.StatusNotFound, "picker session not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
