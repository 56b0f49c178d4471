package model

import (
	"context"
	"time"
)

// IdentityStore persists identities.
type IdentityStore interface {
	Create(ctx context.Context, identity Identity) (Identity, error)
	GetByID(ctx context.Context, id int64) (Identity, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (Identity, error)
	SetRole(ctx context.Context, id int64, role Role) error
	Count(ctx context.Context) (int64, error)
	// ClaimBootstrap records that the first account is being created. Only one
	// caller can ever get true.
	ClaimBootstrap(ctx context.Context) (bool, error)
}

// CredentialStore persists credentials keyed by identity id.
type CredentialStore interface {
	Create(ctx context.Context, credential Credential) (Credential, error)
	GetByIdentityID(ctx context.Context, identityID int64) (Credential, error)
	UpdatePassword(ctx context.Context, identityID int64, hash, salt string) error
	UpdateProfile(ctx context.Context, identityID int64, update ProfileUpdate) (Credential, error)
	TouchLastLogin(ctx context.Context, identityID int64, at time.Time) error
	Deactivate(ctx context.Context, identityID int64) error
}

// ProfileQuery joins identities with their active credentials.
type ProfileQuery interface {
	// Search returns active profiles ordered by identity id. An empty term
	// matches everything; otherwise username, first and last name are matched
	// case-insensitively by substring.
	Search(ctx context.Context, term string) ([]Profile, error)
}

// Store groups both logical stores behind one transactional boundary.
type Store interface {
	Identities() IdentityStore
	Credentials() CredentialStore
	Profiles() ProfileQuery
	// WithinTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
