// Package server exposes picker sessions and food posts over HTTP.
package server

import (
	"context"
	"errors"
	"log"

	"foodshare/internal/models"
	"foodshare/internal/picker"
	"foodshare/internal/posts"
	"foodshare/internal/storage"
	geomodels "foodshare/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

// PostService is the part of posts.Service the handlers use.
type PostService interface {
	Create(ctx context.Context, d models.Draft) (models.FoodPost, error)
	Get(ctx context.Context, id uuid.UUID) (models.FoodPost, error)
	Deactivate(ctx context.Context, id uuid.UUID) (models.FoodPost, error)
	Feed(ctx context.Context) ([]models.FoodPost, error)
	Search(ctx context.Context, f models.SearchFilter) ([]models.FoodPost, error)
}

type Server struct {
	App      *fiber.App
	Sessions *picker.Sessions
	Posts    PostService
}

func NewServer(sessions *picker.Sessions, postService PostService) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{App: app, Sessions: sessions, Posts: postService}
	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": s.Sessions.Len()})
	})

	registerPickerRoutes(s.App.Group("/picker/sessions"), s.Sessions)
	registerPostRoutes(s.App.Group("/posts"), s.Posts)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, models.ErrInvalidPost), errors.Is(err, geomodels.ErrInvalidCoordinate):
		return fiber.StatusBadRequest
	case errors.Is(err, posts.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, storage.ErrExists):
		return fiber.StatusConflict
	case errors.Is(err, picker.ErrClosed):
		return fiber.StatusGone
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
