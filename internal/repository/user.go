package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bomcorte/blackfriday/internal/database"
	"github.com/bomcorte/blackfriday/internal/model"
)

// UserRepository handles admin panel accounts.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository.
// Returns error if pool is nil.
func NewUserRepository(pool *pgxpool.Pool) (*UserRepository, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	return &UserRepository{pool: pool}, nil
}

// GetByEmail returns a user by email, or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getWhere(ctx, sq.Eq{"email": email})
}

// Get returns a user by id, or ErrNotFound.
func (r *UserRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	return r.getWhere(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) getWhere(ctx context.Context, pred any) (*model.User, error) {
	query, args, err := database.QB.
		Select("id", "email", "password_hash", "role", "created_at").
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	var u model.User
	err = r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// List returns all users ordered by email.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	query, args, err := database.QB.
		Select("id", "email", "password_hash", "role", "created_at").
		From("users").
		OrderBy("email").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// Create inserts a new user and returns its id.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string, role model.Role) (int64, error) {
	query, args, err := database.QB.
		Insert("users").
		Columns("email", "password_hash", "role").
		Values(email, passwordHash, string(role)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build user insert: %w", err)
	}

	var id int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// Update applies a sparse set of column changes to a user.
func (r *UserRepository) Update(ctx context.Context, id int64, changes map[string]any) error {
	if len(changes) == 0 {
		return errors.New("no changes supplied")
	}

	query, args, err := database.QB.Update("users").
		SetMap(changes).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user. Returns ErrNotFound when no row matches.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := database.QB.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build user delete: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
