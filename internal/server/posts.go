package server

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"foodshare/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid post id")
	}
	return id, nil
}

func registerPostRoutes(r fiber.Router, svc PostService) {
	r.Post("/", func(c *fiber.Ctx) error {
		var draft models.Draft
		if err := c.BodyParser(&draft); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		post, err := svc.Create(c.Context(), draft)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		feed, err := svc.Feed(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(nonNil(feed))
	})

	r.Get("/search", func(c *fiber.Ctx) error {
		filter := models.SearchFilter{
			Text:           c.Query("q"),
			VegetarianOnly: c.QueryBool("veg"),
		}
		var err error
		if filter.MinServings, err = queryInt(c, "min_servings"); err != nil {
			return err
		}
		if filter.Limit, err = queryInt(c, "limit"); err != nil {
			return err
		}
		if filter.Origin.Lat, err = queryFloat(c, "lat"); err != nil {
			return err
		}
		if filter.Origin.Lon, err = queryFloat(c, "lon"); err != nil {
			return err
		}
		if filter.RadiusKm, err = queryFloat(c, "radius_km"); err != nil {
			return err
		}
		if filter.RadiusKm < 0 || filter.MinServings < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "radius_km and min_servings must not be negative")
		}
		if filter.RadiusKm > 0 && (c.Query("lat") == "" || c.Query("lon") == "") {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lon required with radius_km")
		}
		results, err := svc.Search(c.Context(), filter)
		if err != nil {
			return err
		}
		return c.JSON(nonNil(results))
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		post, err := svc.Get(c.Context(), id)
		if err != nil {
			return err
		}
		now := time.Now()
		return c.JSON(fiber.Map{
			"post":             post,
			"expiration_label": post.ExpirationLabel(now),
			"urgency":          post.Urgency(now),
		})
	})

	r.Post("/:id/deactivate", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		post, err := svc.Deactivate(c.Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(post)
	})
}

// queryFloat reads an optional numeric query parameter. Unlike
// fiber.Ctx.QueryFloat it rejects malformed values instead of reading 0.
func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s %q", key, raw))
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s %q", key, raw))
	}
	return v, nil
}

func nonNil(p []models.FoodPost) []models.FoodPost {
	if p == nil {
		return []models.FoodPost{}
	}
	return p
}
