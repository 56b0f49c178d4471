package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/identity-server/internal/model"
)

const usernameIndex = "identities_username_lower_idx"

var _ model.IdentityStore = (*IdentityRepository)(nil)

type IdentityRepository struct {
	db DBTX
}

func NewIdentityRepository(db DBTX) *IdentityRepository {
	return &IdentityRepository{
		db: db,
	}
}

func (r *IdentityRepository) Create(ctx context.Context, identity model.Identity) (model.Identity, error) {
	const query = `INSERT INTO identity.identities (username, role)
			  VALUES ($1, $2)
			  RETURNING id, username, role`

	saved, err := scanIdentity(r.db.QueryRow(ctx, query, identity.Username, identity.Role.String()))
	if err != nil {
		if isUniqueViolation(err, usernameIndex) {
			return model.Identity{}, model.ErrDuplicateUsername
		}
		return model.Identity{}, fmt.Errorf("failed to create identity: %w", err)
	}

	return saved, nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id int64) (model.Identity, error) {
	const query = `SELECT id, username, role FROM identity.identities WHERE id = $1`

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by id: %w", err)
	}

	return identity, nil
}

func (r *IdentityRepository) GetByUsername(ctx context.Context, username string) (model.Identity, error) {
	const query = `SELECT id, username, role FROM identity.identities WHERE LOWER(username) = LOWER($1)`

	identity, err := scanIdentity(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Identity{}, model.ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to get identity by username: %w", err)
	}

	return identity, nil
}

func (r *IdentityRepository) SetRole(ctx context.Context, id int64, role model.Role) error {
	const query = `UPDATE identity.identities SET role = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, role.String())
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *IdentityRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM identity.identities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count identities: %w", err)
	}
	return n, nil
}

// ClaimBootstrap inserts the singleton bootstrap row. A concurrent claimer
// waits on the primary key until the first transaction finishes.
func (r *IdentityRepository) ClaimBootstrap(ctx context.Context) (bool, error) {
	const query = `INSERT INTO identity.bootstrap (singleton) VALUES (TRUE) ON CONFLICT DO NOTHING`

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to claim bootstrap: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func scanIdentity(row pgx.Row) (model.Identity, error) {
	var (
		identity model.Identity
		role     string
	)
	if err := row.Scan(&identity.ID, &identity.Username, &role); err != nil {
		return model.Identity{}, err
	}
	parsed, ok := model.ParseRole(role)
	if !ok {
		return model.Identity{}, fmt.Errorf("unknown role %q for identity %d", role, identity.ID)
	}
	identity.Role = parsed
	return identity, nil
}
