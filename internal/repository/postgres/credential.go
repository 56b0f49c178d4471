package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/identity-server/internal/model"
)

const credentialColumns = `id, identity_id, first_name, last_name, address, phone,
			  password_hash, salt, last_login, is_active`

var _ model.CredentialStore = (*CredentialRepository)(nil)

type CredentialRepository struct {
	db DBTX
}

func NewCredentialRepository(db DBTX) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Create(ctx context.Context, c model.Credential) (model.Credential, error) {
	query := `INSERT INTO credential.credentials
			  (identity_id, first_name, last_name, address, phone, password_hash, salt, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + credentialColumns

	saved, err := scanCredential(r.db.QueryRow(ctx, query,
		c.IdentityID, c.FirstName, c.LastName, c.Address, c.Phone,
		c.PasswordHash, c.Salt, c.IsActive,
	))
	if err != nil {
		return model.Credential{}, fmt.Errorf("failed to create credential: %w", err)
	}

	return saved, nil
}

func (r *CredentialRepository) GetByIdentityID(ctx context.Context, identityID int64) (model.Credential, error) {
	query := `SELECT ` + credentialColumns + `
			  FROM credential.credentials WHERE identity_id = $1`

	c, err := scanCredential(r.db.QueryRow(ctx, query, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Credential{}, model.ErrNotFound
		}
		return model.Credential{}, fmt.Errorf("failed to get credential by identity id: %w", err)
	}

	return c, nil
}

func (r *CredentialRepository) UpdatePassword(ctx context.Context, identityID int64, hash, salt string) error {
	const query = `
        UPDATE credential.credentials
        SET password_hash = $2, salt = $3, updated_at = NOW()
        WHERE identity_id = $1
    `
	return r.exec(ctx, "update password", query, identityID, hash, salt)
}

func (r *CredentialRepository) UpdateProfile(ctx context.Context, identityID int64, update model.ProfileUpdate) (model.Credential, error) {
	query := `UPDATE credential.credentials
			  SET first_name = COALESCE($2, first_name),
			      last_name = COALESCE($3, last_name),
			      address = COALESCE($4, address),
			      phone = COALESCE($5, phone),
			      updated_at = NOW()
			  WHERE identity_id = $1
			  RETURNING ` + credentialColumns

	c, err := scanCredential(r.db.QueryRow(ctx, query,
		identityID, update.FirstName, update.LastName, update.Address, update.Phone,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Credential{}, model.ErrNotFound
		}
		return model.Credential{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return c, nil
}

func (r *CredentialRepository) TouchLastLogin(ctx context.Context, identityID int64, at time.Time) error {
	const query = `UPDATE credential.credentials SET last_login = $2 WHERE identity_id = $1`
	return r.exec(ctx, "touch last login", query, identityID, at.UTC())
}

func (r *CredentialRepository) Deactivate(ctx context.Context, identityID int64) error {
	const query = `
        UPDATE credential.credentials
        SET is_active = FALSE, updated_at = NOW()
        WHERE identity_id = $1
    `
	return r.exec(ctx, "deactivate credential", query, identityID)
}

func (r *CredentialRepository) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (model.Credential, error) {
	var c model.Credential
	err := row.Scan(
		&c.ID, &c.IdentityID, &c.FirstName, &c.LastName, &c.Address, &c.Phone,
		&c.PasswordHash, &c.Salt, &c.LastLogin, &c.IsActive,
	)
	return c, err
}
