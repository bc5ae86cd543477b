package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bomcorte/blackfriday/internal/database"
)

// AuditRepository records admin panel actions.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository.
// Returns error if pool is nil.
func NewAuditRepository(pool *pgxpool.Pool) (*AuditRepository, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	return &AuditRepository{pool: pool}, nil
}

// Record writes an audit entry. Failures are logged but never propagate;
// an audit failure must not fail the action it describes.
func (r *AuditRepository) Record(ctx context.Context, userID int64, action string, details any, ip string) {
	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			slog.Error("audit: failed to marshal details", "action", action, "error", err)
			detailsJSON = nil
		}
	}

	query, args, err := database.QB.
		Insert("admin_logs").
		Columns("user_id", "action", "details", "ip_address").
		Values(userID, action, detailsJSON, ip).
		ToSql()
	if err != nil {
		slog.Error("audit: failed to build insert", "action", action, "error", err)
		return
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		slog.Error("audit: failed to record action", "action", action, "error", fmt.Errorf("insert admin log: %w", err))
	}
}
