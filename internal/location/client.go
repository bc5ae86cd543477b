// Package location looks up Brazilian address data from the public
// ViaCEP (postal code → address) and IBGE (region → city list) services.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// ErrPostalCodeNotFound is returned when the service has no match for
// a postal code. Recoverable by manual region/city entry.
var ErrPostalCodeNotFound = errors.New("postal code not found")

const (
	requestTimeout = 10 * time.Second

	regionsCacheKey   = "location:regions:v1"
	citiesCachePrefix = "location:cities:v1:"
	regionsCacheTTL   = 7 * 24 * time.Hour
	citiesCacheTTL    = 24 * time.Hour
)

var postalCodePattern = regexp.MustCompile(`^\d{8}$`)

// RegionOption is a selectable state in the landing page form.
type RegionOption struct {
	Code        string `json:"code"`
	DisplayName string `json:"name"`
}

// CityOption is a selectable city within a region.
type CityOption struct {
	DisplayName string `json:"name"`
}

// Address is the resolved region and city for a postal code.
type Address struct {
	RegionCode string `json:"state"`
	CityName   string `json:"city"`
}

// Client queries the two external location services. Region and city
// lists are cached in Redis when a cache client is provided; lookups
// never fail because of a cache error.
type Client struct {
	httpClient *http.Client
	viaCEPURL  string
	ibgeURL    string
	cache      *redis.Client // optional
}

// New creates a location client. cache may be nil to disable caching.
func New(viaCEPURL, ibgeURL string, cache *redis.Client) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		viaCEPURL:  viaCEPURL,
		ibgeURL:    ibgeURL,
		cache:      cache,
	}
}

type ibgeRegion struct {
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

type ibgeCity struct {
	Nome string `json:"nome"`
}

// Regions returns all states ordered by name.
func (c *Client) Regions(ctx context.Context) ([]RegionOption, error) {
	if cached, ok := cacheGet[[]RegionOption](ctx, c.cache, regionsCacheKey); ok {
		return cached, nil
	}

	url := c.ibgeURL + "/api/v1/localidades/estados?orderBy=nome"
	var raw []ibgeRegion
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch regions: %w", err)
	}

	regions := lo.Map(raw, func(r ibgeRegion, _ int) RegionOption {
		return RegionOption{Code: r.Sigla, DisplayName: r.Nome}
	})

	cacheSet(ctx, c.cache, regionsCacheKey, regions, regionsCacheTTL)
	return regions, nil
}

// Cities returns the cities of a region ordered by name. An unknown
// region code yields an empty list, matching the IBGE behavior.
func (c *Client) Cities(ctx context.Context, regionCode string) ([]CityOption, error) {
	if regionCode == "" {
		return []CityOption{}, nil
	}

	cacheKey := citiesCachePrefix + regionCode
	if cached, ok := cacheGet[[]CityOption](ctx, c.cache, cacheKey); ok {
		return cached, nil
	}

	url := c.ibgeURL + "/api/v1/localidades/estados/" + regionCode + "/municipios"
	var raw []ibgeCity
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch cities for %s: %w", regionCode, err)
	}

	cities := lo.Map(raw, func(city ibgeCity, _ int) CityOption {
		return CityOption{DisplayName: city.Nome}
	})

	cacheSet(ctx, c.cache, cacheKey, cities, citiesCacheTTL)
	return cities, nil
}

type viaCEPResponse struct {
	Erro       bool   `json:"erro"`
	UF         string `json:"uf"`
	Localidade string `json:"localidade"`
}

// ResolvePostalCode resolves an 8-digit postal code into its region and
// city. Returns ErrPostalCodeNotFound when the service has no match.
func (c *Client) ResolvePostalCode(ctx context.Context, postalCode string) (*Address, error) {
	if !postalCodePattern.MatchString(postalCode) {
		return nil, fmt.Errorf("invalid postal code %q: want 8 digits", postalCode)
	}

	url := c.viaCEPURL + "/ws/" + postalCode + "/json/"
	var resp viaCEPResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("resolve postal code: %w", err)
	}
	if resp.Erro {
		return nil, ErrPostalCodeNotFound
	}

	return &Address{RegionCode: resp.UF, CityName: resp.Localidade}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func cacheGet[T any](ctx context.Context, cache *redis.Client, key string) (T, bool) {
	var zero T
	if cache == nil {
		return zero, false
	}

	raw, err := cache.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return zero, false
	}
	if err != nil {
		slog.Warn("location: cache read failed", "key", key, "error", err)
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		slog.Warn("location: cache decode failed", "key", key, "error", err)
		return zero, false
	}
	return value, true
}

func cacheSet(ctx context.Context, cache *redis.Client, key string, value any, ttl time.Duration) {
	if cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("location: cache encode failed", "key", key, "error", err)
		return
	}
	if err := cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.Warn("location: cache write failed", "key", key, "error", err)
	}
}
