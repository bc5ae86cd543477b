package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/bomcorte/blackfriday/internal/database"
	"github.com/bomcorte/blackfriday/internal/model"
)

// leadColumns is the column list for full lead scans, in scanLead order.
var leadColumns = []string{
	"id", "name", "email", "whatsapp", "dial_code", "cep", "region", "city",
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"lgpd_consent", "ip_address", "user_agent", "status", "representative_name",
	"created_at",
}

// LeadRepository handles lead data access.
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new lead repository.
// Returns error if pool is nil.
func NewLeadRepository(pool *pgxpool.Pool) (*LeadRepository, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	return &LeadRepository{pool: pool}, nil
}

// ListFilter narrows and pages the lead list.
type ListFilter struct {
	Status  model.LeadStatus // empty = all
	Search  string           // substring across name/email/whatsapp
	Page    int              // 1-based
	PerPage int
}

func (f ListFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		b = b.Where(sq.Or{
			sq.ILike{"name": like},
			sq.ILike{"email": like},
			sq.ILike{"whatsapp": like},
		})
	}
	return b
}

// List returns one page of leads, newest first, plus the total match count.
func (r *LeadRepository) List(ctx context.Context, f ListFilter) ([]model.Lead, int, error) {
	countQuery, countArgs, err := f.apply(database.QB.Select("COUNT(*)").From("leads")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query, args, err := f.apply(database.QB.Select(leadColumns...).From("leads")).
		OrderBy("created_at DESC").
		Limit(uint64(f.PerPage)).
		Offset(uint64((f.Page - 1) * f.PerPage)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate lead rows: %w", err)
	}

	return leads, total, nil
}

// Get returns a single lead by id, or ErrNotFound.
func (r *LeadRepository) Get(ctx context.Context, id int64) (*model.Lead, error) {
	query, args, err := database.QB.Select(leadColumns...).
		From("leads").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query lead: %w", err)
	}
	return &lead, nil
}

// Create persists a public form submission and returns the new lead id.
func (r *LeadRepository) Create(ctx context.Context, sub model.LeadSubmission, ip, userAgent string) (int64, error) {
	query, args, err := database.QB.Insert("leads").
		Columns(
			"name", "email", "whatsapp", "dial_code", "cep", "region", "city",
			"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
			"lgpd_consent", "ip_address", "user_agent",
		).
		Values(
			sub.Name, sub.Email, sub.WhatsApp, sub.CallingCode, sub.PostalCode,
			sub.Region, sub.City,
			sub.Source, sub.Medium, sub.Campaign, sub.Term, sub.Content,
			sub.Consent, ip, userAgent,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert query: %w", err)
	}

	var id int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}
	return id, nil
}

// Update applies a sparse set of column changes to a lead.
// Returns ErrNotFound when no row matches the id.
func (r *LeadRepository) Update(ctx context.Context, id int64, changes map[string]any) error {
	if len(changes) == 0 {
		return errors.New("no changes supplied")
	}

	query, args, err := database.QB.Update("leads").
		SetMap(changes).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a lead. Returns ErrNotFound when no row matches.
func (r *LeadRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := database.QB.Delete("leads").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRow is a grouped aggregate row (top regions, top sources).
type CountRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LeadStats holds dashboard aggregates.
type LeadStats struct {
	Total      int        `json:"total"`
	Pending    int        `json:"pending"`
	Attended   int        `json:"attended"`
	TopRegions []CountRow `json:"top_regions"`
	TopSources []CountRow `json:"top_sources"`
}

// GetStats returns lead totals, counts per status, and the top 5 regions
// and attribution sources by lead count. The aggregate queries run
// concurrently.
func (r *LeadRepository) GetStats(ctx context.Context) (*LeadStats, error) {
	var stats LeadStats

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query, args, err := database.QB.Select(
			"COUNT(*) AS total",
			"COUNT(*) FILTER (WHERE status = 'Pending') AS pending",
			"COUNT(*) FILTER (WHERE status = 'Attended') AS attended",
		).From("leads").ToSql()
		if err != nil {
			return fmt.Errorf("build totals query: %w", err)
		}
		if err := r.pool.QueryRow(ctx, query, args...).Scan(&stats.Total, &stats.Pending, &stats.Attended); err != nil {
			return fmt.Errorf("query totals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rows, err := r.topCounts(ctx, "region")
		if err != nil {
			return err
		}
		stats.TopRegions = rows
		return nil
	})

	g.Go(func() error {
		rows, err := r.topCounts(ctx, "utm_source")
		if err != nil {
			return err
		}
		stats.TopSources = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *LeadRepository) topCounts(ctx context.Context, column string) ([]CountRow, error) {
	query, args, err := database.QB.Select(column, "COUNT(*) AS count").
		From("leads").
		Where(column + " <> ''").
		GroupBy(column).
		OrderBy("count DESC").
		Limit(5).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top %s query: %w", column, err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top %s: %w", column, err)
	}
	defer rows.Close()

	var result []CountRow
	for rows.Next() {
		var row CountRow
		if err := rows.Scan(&row.Label, &row.Count); err != nil {
			return nil, fmt.Errorf("scan top %s: %w", column, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top %s rows: %w", column, err)
	}
	return result, nil
}

func scanLead(row pgx.Row) (model.Lead, error) {
	var l model.Lead
	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.WhatsApp, &l.CallingCode, &l.PostalCode,
		&l.Region, &l.City,
		&l.Attribution.Source, &l.Attribution.Medium, &l.Attribution.Campaign,
		&l.Attribution.Term, &l.Attribution.Content,
		&l.Consent, &l.IPAddress, &l.UserAgent, &l.Status, &l.RepresentativeName,
		&l.CreatedAt,
	)
	return l, err
}
