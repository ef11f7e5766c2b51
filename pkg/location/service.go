// Package location translates between free-form addresses and coordinates
// using a Nominatim geocoding provider.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"foodshare/models"
)

var (
	// ErrNotFound means the provider answered but had no match.
	ErrNotFound = errors.New("location not found")
	// ErrProvider means the provider could not be reached or answered garbage.
	ErrProvider = errors.New("geocoding provider error")
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "foodshare-nominatim-client/1.0"
)

// Client performs one provider request per call. It never caches or retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	language   string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent overrides the User-Agent; Nominatim rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		language:   "en",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Forward looks up an address and returns the coordinate of the first match.
func (c *Client) Forward(ctx context.Context, address string) (models.Coordinate, error) {
	query := strings.TrimSpace(address)
	if query == "" {
		return models.Coordinate{}, fmt.Errorf("%w: empty address", ErrNotFound)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	var results []Place
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return models.Coordinate{}, err
	}
	if len(results) == 0 {
		return models.Coordinate{}, fmt.Errorf("%w: no results for %q", ErrNotFound, query)
	}
	return results[0].coordinate()
}

// Reverse returns the label of the placemark closest to the coordinate.
func (c *Client) Reverse(ctx context.Context, coord models.Coordinate) (string, error) {
	pm, err := c.ReversePlacemark(ctx, coord)
	if err != nil {
		return "", err
	}
	label := pm.Label()
	if label == "" {
		return "", fmt.Errorf("%w: empty placemark at %s", ErrNotFound, coord)
	}
	return label, nil
}

// ReversePlacemark returns the structured placemark closest to the coordinate.
func (c *Client) ReversePlacemark(ctx context.Context, coord models.Coordinate) (Placemark, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("zoom", "18")

	var place Place
	if err := c.get(ctx, "/reverse", params, &place); err != nil {
		return Placemark{}, err
	}
	if place.Error != "" {
		return Placemark{}, fmt.Errorf("%w: %s", ErrNotFound, place.Error)
	}
	return place.Placemark(), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.language != "" {
		params.Set("accept-language", c.language)
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status %s: %s", ErrProvider, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrProvider, path, err)
	}
	return nil
}

func (p Place) coordinate() (models.Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: bad latitude %q", ErrProvider, p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: bad longitude %q", ErrProvider, p.Lon)
	}
	coord := models.Coordinate{Lat: lat, Lon: lon}
	if err := coord.Validate(); err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return coord, nil
}
