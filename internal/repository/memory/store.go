// Package memory provides a process-local Store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dtroode/identity-server/internal/model"
)

var _ model.Store = (*Store)(nil)

type state struct {
	nextIdentityID   int64
	nextCredentialID int64
	identities       map[int64]model.Identity
	credentials      map[int64]model.Credential // keyed by identity id
	bootstrapped     bool
}

func (s *state) clone() *state {
	return &state{
		nextIdentityID:   s.nextIdentityID,
		nextCredentialID: s.nextCredentialID,
		identities:       maps.Clone(s.identities),
		credentials:      maps.Clone(s.credentials),
		bootstrapped:     s.bootstrapped,
	}
}

// Store keeps identities and credentials in maps. Transactions are serialized
// by a single mutex and roll back by restoring a snapshot.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		mu: &sync.Mutex{},
		st: &state{
			identities:  make(map[int64]model.Identity),
			credentials: make(map[int64]model.Credential),
		},
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Identities returns the identity store.
func (s *Store) Identities() model.IdentityStore { return identityRepo{s} }

// Credentials returns the credential store.
func (s *Store) Credentials() model.CredentialStore { return credentialRepo{s} }

// Profiles returns the joined profile query.
func (s *Store) Profiles() model.ProfileQuery { return profileQuery{s} }

// WithinTx runs fn with exclusive access and restores the previous state if
// fn fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx model.Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}

	committed := false
	defer func() {
		if !committed {
			*s.st = *snapshot
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	committed = true
	return nil
}

type identityRepo struct{ s *Store }

func (r identityRepo) Create(ctx context.Context, identity model.Identity) (model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return model.Identity{}, err
	}
	defer r.s.lock()()

	key := model.NormalizeUsername(identity.Username)
	for _, existing := range r.s.st.identities {
		if model.NormalizeUsername(existing.Username) == key {
			return model.Identity{}, model.ErrDuplicateUsername
		}
	}

	r.s.st.nextIdentityID++
	identity.ID = r.s.st.nextIdentityID
	r.s.st.identities[identity.ID] = identity
	return identity, nil
}

func (r identityRepo) GetByID(ctx context.Context, id int64) (model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return model.Identity{}, err
	}
	defer r.s.lock()()

	identity, ok := r.s.st.identities[id]
	if !ok {
		return model.Identity{}, model.ErrNotFound
	}
	return identity, nil
}

func (r identityRepo) GetByUsername(ctx context.Context, username string) (model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return model.Identity{}, err
	}
	defer r.s.lock()()

	key := model.NormalizeUsername(username)
	for _, identity := range r.s.st.identities {
		if model.NormalizeUsername(identity.Username) == key {
			return identity, nil
		}
	}
	return model.Identity{}, model.ErrNotFound
}

func (r identityRepo) SetRole(ctx context.Context, id int64, role model.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	identity, ok := r.s.st.identities[id]
	if !ok {
		return model.ErrNotFound
	}
	identity.Role = role
	r.s.st.identities[id] = identity
	return nil
}

func (r identityRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.s.lock()()

	return int64(len(r.s.st.identities)), nil
}

func (r identityRepo) ClaimBootstrap(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer r.s.lock()()

	if r.s.st.bootstrapped {
		return false, nil
	}
	r.s.st.bootstrapped = true
	return true, nil
}

type credentialRepo struct{ s *Store }

func (r credentialRepo) Create(ctx context.Context, credential model.Credential) (model.Credential, error) {
	if err := ctx.Err(); err != nil {
		return model.Credential{}, err
	}
	defer r.s.lock()()

	if _, exists := r.s.st.credentials[credential.IdentityID]; exists {
		return model.Credential{}, fmt.Errorf("credential for identity %d already exists", credential.IdentityID)
	}
	r.s.st.nextCredentialID++
	credential.ID = r.s.st.nextCredentialID
	r.s.st.credentials[credential.IdentityID] = credential
	return credential, nil
}

func (r credentialRepo) GetByIdentityID(ctx context.Context, identityID int64) (model.Credential, error) {
	if err := ctx.Err(); err != nil {
		return model.Credential{}, err
	}
	defer r.s.lock()()

	credential, ok := r.s.st.credentials[identityID]
	if !ok {
		return model.Credential{}, model.ErrNotFound
	}
	return credential, nil
}

func (r credentialRepo) UpdatePassword(ctx context.Context, identityID int64, hash, salt string) error {
	return r.mutate(ctx, identityID, func(c *model.Credential) {
		c.PasswordHash = hash
		c.Salt = salt
	})
}

func (r credentialRepo) UpdateProfile(ctx context.Context, identityID int64, update model.ProfileUpdate) (model.Credential, error) {
	var out model.Credential
	err := r.mutate(ctx, identityID, func(c *model.Credential) {
		update.Apply(c)
		out = *c
	})
	return out, err
}

func (r credentialRepo) TouchLastLogin(ctx context.Context, identityID int64, at time.Time) error {
	return r.mutate(ctx, identityID, func(c *model.Credential) {
		t := at.UTC()
		c.LastLogin = &t
	})
}

func (r credentialRepo) Deactivate(ctx context.Context, identityID int64) error {
	return r.mutate(ctx, identityID, func(c *model.Credential) {
		c.IsActive = false
	})
}

func (r credentialRepo) mutate(ctx context.Context, identityID int64, fn func(*model.Credential)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lock()()

	credential, ok := r.s.st.credentials[identityID]
	if !ok {
		return model.ErrNotFound
	}
	fn(&credential)
	r.s.st.credentials[identityID] = credential
	return nil
}

type profileQuery struct{ s *Store }

func (q profileQuery) Search(ctx context.Context, term string) ([]model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer q.s.lock()()

	needle := strings.ToLower(term)
	ids := slices.Sorted(maps.Keys(q.s.st.identities))

	profiles := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		identity := q.s.st.identities[id]
		credential, ok := q.s.st.credentials[id]
		if !ok || !credential.IsActive {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(identity.Username), needle) &&
			!strings.Contains(strings.ToLower(credential.FirstName), needle) &&
			!strings.Contains(strings.ToLower(credential.LastName), needle) {
			continue
		}
		profiles = append(profiles, model.Profile{
			ID:        identity.ID,
			Username:  identity.Username,
			Role:      identity.Role,
			FirstName: credential.FirstName,
			LastName:  credential.LastName,
			Address:   credential.Address,
			Phone:     credential.Phone,
		})
	}
	return profiles, nil
}
