package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodshare/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier represents the minimal database operations used by the index.
// Both *pgxpool.Pool and pgxmock pools satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS food_posts (
	id            UUID PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	image_url     TEXT NOT NULL DEFAULT '',
	is_vegetarian BOOLEAN NOT NULL,
	serving_size  INTEGER NOT NULL CHECK (serving_size >= 1),
	latitude      DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude     DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	address       TEXT NOT NULL,
	expires_at    TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	user_id       TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS food_posts_available_idx ON food_posts (is_active, expires_at);
`

const postColumns = `id, title, description, image_url, is_vegetarian, serving_size, latitude, longitude, address, expires_at, created_at, updated_at, user_id, is_active`

// great-circle distance in km from ($lat, $lon) to the row, see geo.HaversineKm
const distanceKm = `2 * 6371 * asin(least(1, sqrt(
	power(sin(radians(latitude - %[1]s) / 2), 2) +
	cos(radians(%[1]s)) * cos(radians(latitude)) * power(sin(radians(longitude - %[2]s) / 2), 2))))`

// Index is the searchable copy of the posts kept in the object store.
type Index struct {
	db Querier
}

func NewIndex(db Querier) *Index {
	return &Index{db: db}
}

func (i *Index) Migrate(ctx context.Context) error {
	_, err := i.db.Exec(ctx, schema)
	return err
}

// Upsert indexes a post. Only the mutable fields change on conflict.
func (i *Index) Upsert(ctx context.Context, p models.FoodPost) error {
	_, err := i.db.Exec(ctx, `
		INSERT INTO food_posts (`+postColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE
		SET is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
	`, p.ID, p.Title, p.Description, p.ImageURL, p.IsVegetarian, p.ServingSize,
		p.Location.Latitude, p.Location.Longitude, p.Location.Address,
		p.ExpiresAt, p.CreatedAt, p.UpdatedAt, p.UserID, p.IsActive)
	if err != nil {
		return fmt.Errorf("index post %s: %w", p.ID, err)
	}
	return nil
}

// Search returns available posts matching the filter, newest first.
func (i *Index) Search(ctx context.Context, f models.SearchFilter, now time.Time) ([]models.FoodPost, error) {
	query, args := buildSearch(f, now)
	rows, err := i.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer rows.Close()

	var posts []models.FoodPost
	for rows.Next() {
		var p models.FoodPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.IsVegetarian, &p.ServingSize,
			&p.Location.Latitude, &p.Location.Longitude, &p.Location.Address,
			&p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt, &p.UserID, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

func buildSearch(f models.SearchFilter, now time.Time) (string, []any) {
	args := []any{now}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + postColumns + " FROM food_posts WHERE is_active AND expires_at > $1")
	if text := strings.TrimSpace(f.Text); text != "" {
		p := arg("%" + text + "%")
		sb.WriteString(" AND (title ILIKE " + p + " OR description ILIKE " + p + ")")
	}
	if f.VegetarianOnly {
		sb.WriteString(" AND is_vegetarian")
	}
	if f.MinServings > 0 {
		sb.WriteString(" AND serving_size >= " + arg(f.MinServings))
	}
	if f.RadiusKm > 0 {
		lat, lon := arg(f.Origin.Lat), arg(f.Origin.Lon)
		sb.WriteString(" AND " + fmt.Sprintf(distanceKm, lat, lon) + " <= " + arg(f.RadiusKm))
	}
	sb.WriteString(" ORDER BY created_at DESC LIMIT " + arg(f.EffectiveLimit()))
	return sb.String(), args
}
