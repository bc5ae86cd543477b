package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bomcorte/blackfriday/internal/database"
	"github.com/bomcorte/blackfriday/internal/model"
)

// Config keys holding JSON-encoded arrays.
const (
	keyFeatures = "features"
	keyProducts = "products"
)

// keyShowProductSection holds a boolean encoded as "1"/"0".
const keyShowProductSection = "show_product_section"

const keyIntegrations = "integrations"

// contentKeys is the fixed write order for the landing page content keys.
var contentKeys = []string{
	"logo_url",
	"main_title",
	"highlighted_title",
	"description",
	keyFeatures,
	"background_image_url",
	"color_primary",
	"color_accent",
	"color_text_primary",
	"color_text_secondary",
	keyShowProductSection,
	"product_section_title",
	"product_section_description",
	keyProducts,
}

// DB is the subset of pgxpool.Pool the config repository needs. A
// transaction boundary is required for SaveContent; reads go straight
// to the pool.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ConfigRepository handles the landing page key/value config table.
type ConfigRepository struct {
	db DB
}

// NewConfigRepository creates a new config repository.
// Returns error if db is nil.
func NewConfigRepository(db DB) (*ConfigRepository, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	return &ConfigRepository{db: db}, nil
}

// GetContent assembles the typed landing page content from the config
// table, falling back to hardcoded defaults for missing keys.
func (r *ConfigRepository) GetContent(ctx context.Context) (*model.LandingPageContent, error) {
	query, args, err := database.QB.
		Select("config_key", "config_value").
		From("landing_page_config").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build config query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query config: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config rows: %w", err)
	}

	content := assembleContent(values)
	return &content, nil
}

// SaveContent flattens the content object to its config keys and upserts
// every key inside a single transaction. Either all keys are written or
// none are.
func (r *ConfigRepository) SaveContent(ctx context.Context, content model.LandingPageContent) error {
	values, err := flattenContent(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, key := range contentKeys {
		if err := upsertKey(ctx, tx, key, values[key]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit config write: %w", err)
	}
	return nil
}

func upsertKey(ctx context.Context, tx pgx.Tx, key, value string) error {
	query, args, err := database.QB.
		Insert("landing_page_config").
		Columns("config_key", "config_value", "updated_at").
		Values(key, value, sq.Expr("now()")).
		Suffix("ON CONFLICT (config_key) DO UPDATE SET config_value = EXCLUDED.config_value, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert for %s: %w", key, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// assembleContent merges stored key/values with defaults, coercing the
// two JSON-array keys and the "1"/"0" boolean flag.
func assembleContent(values map[string]string) model.LandingPageContent {
	content := model.DefaultContent()

	content.LogoURL = values["logo_url"]
	content.MainTitle = values["main_title"]
	content.HighlightedTitle = values["highlighted_title"]
	content.Description = values["description"]
	content.BackgroundImageURL = values["background_image_url"]
	content.ProductSectionTitle = values["product_section_title"]
	content.ProductSectionDescription = values["product_section_description"]

	palette := model.DefaultPalette()
	if v := values["color_primary"]; v != "" {
		palette.Primary = v
	}
	if v := values["color_accent"]; v != "" {
		palette.Accent = v
	}
	if v := values["color_text_primary"]; v != "" {
		palette.TextPrimary = v
	}
	if v := values["color_text_secondary"]; v != "" {
		palette.TextSecondary = v
	}
	content.ColorPalette = palette

	if raw, ok := values[keyFeatures]; ok {
		var features []model.Feature
		if err := json.Unmarshal([]byte(raw), &features); err == nil && features != nil {
			content.Features = features
		}
	}
	if raw, ok := values[keyProducts]; ok {
		var products []model.Product
		if err := json.Unmarshal([]byte(raw), &products); err == nil && products != nil {
			content.Products = products
		}
	}
	if raw, ok := values[keyShowProductSection]; ok {
		content.ShowProductSection = raw == "1" || raw == "true"
	}

	return content
}

// flattenContent encodes the content object into its 14 config keys.
func flattenContent(content model.LandingPageContent) (map[string]string, error) {
	features, err := json.Marshal(content.Features)
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}
	products, err := json.Marshal(content.Products)
	if err != nil {
		return nil, fmt.Errorf("marshal products: %w", err)
	}

	show := "0"
	if content.ShowProductSection {
		show = "1"
	}

	return map[string]string{
		"logo_url":                    content.LogoURL,
		"main_title":                  content.MainTitle,
		"highlighted_title":           content.HighlightedTitle,
		"description":                 content.Description,
		keyFeatures:                   string(features),
		"background_image_url":        content.BackgroundImageURL,
		"color_primary":               content.ColorPalette.Primary,
		"color_accent":                content.ColorPalette.Accent,
		"color_text_primary":          content.ColorPalette.TextPrimary,
		"color_text_secondary":        content.ColorPalette.TextSecondary,
		keyShowProductSection:         show,
		"product_section_title":       content.ProductSectionTitle,
		"product_section_description": content.ProductSectionDescription,
		keyProducts:                   string(products),
	}, nil
}

// GetIntegrations returns the configured lead integrations, or an empty
// list when the key is absent.
func (r *ConfigRepository) GetIntegrations(ctx context.Context) ([]model.Integration, error) {
	query, args, err := database.QB.
		Select("config_value").
		From("landing_page_config").
		Where(sq.Eq{"config_key": keyIntegrations}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build integrations query: %w", err)
	}

	var raw string
	err = r.db.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []model.Integration{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query integrations: %w", err)
	}

	var integrations []model.Integration
	if err := json.Unmarshal([]byte(raw), &integrations); err != nil {
		return nil, fmt.Errorf("decode integrations: %w", err)
	}
	return integrations, nil
}

// SaveIntegrations stores the integration list under its config key.
func (r *ConfigRepository) SaveIntegrations(ctx context.Context, integrations []model.Integration) error {
	raw, err := json.Marshal(integrations)
	if err != nil {
		return fmt.Errorf("marshal integrations: %w", err)
	}

	query, args, err := database.QB.
		Insert("landing_page_config").
		Columns("config_key", "config_value", "updated_at").
		Values(keyIntegrations, string(raw), sq.Expr("now()")).
		Suffix("ON CONFLICT (config_key) DO UPDATE SET config_value = EXCLUDED.config_value, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build integrations upsert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert integrations: %w", err)
	}
	return nil
}
