package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dtroode/identity-server/internal/audit"
	"github.com/dtroode/identity-server/internal/logger"
	"github.com/dtroode/identity-server/internal/model"
)

// DefaultStoreTimeout bounds every store call made by Identity.
const DefaultStoreTimeout = 5 * time.Second

// RegisterParams describe a new account. Role is the role the caller is
// entitled to; the very first account is promoted to admin regardless.
type RegisterParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Address   string
	Phone     string
	Role      model.Role
}

// Identity orchestrates the identity and credential stores. It performs no
// authorization; see Gateway.
type Identity struct {
	store   model.Store
	hasher  model.PasswordHasher
	tokens  model.TokenManager
	audit   model.AuditSink
	logger  *logger.Logger
	timeout time.Duration
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
	dummySalt string

	background sync.WaitGroup
}

func NewIdentity(
	store model.Store,
	hasher model.PasswordHasher,
	tokens model.TokenManager,
	sink model.AuditSink,
	logger *logger.Logger,
	timeout time.Duration,
) *Identity {
	if sink == nil {
		sink = audit.Multi{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Identity{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		audit:   sink,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Register creates an identity and its credential atomically.
func (s *Identity) Register(ctx context.Context, params RegisterParams) (model.Identity, error) {
	identity, _, err := s.register(ctx, params, false)
	return identity, err
}

// SeedAdmin creates params as the first admin if the store holds no account
// yet. It reports false when the store was already initialized.
func (s *Identity) SeedAdmin(ctx context.Context, params RegisterParams) (model.Identity, bool, error) {
	params.Role = model.RoleAdmin
	return s.register(ctx, params, true)
}

func (s *Identity) register(ctx context.Context, params RegisterParams, onlyIfEmpty bool) (model.Identity, bool, error) {
	params.Username = strings.TrimSpace(params.Username)

	s.logger.Debug("Identity service: registering identity",
		"username", params.Username)

	if err := validateRegistration(params); err != nil {
		s.logger.Info("Identity service: registration rejected",
			"username", params.Username,
			"error", err.Error())
		return model.Identity{}, false, err
	}

	hash, salt, err := s.hasher.Hash(params.Password, "")
	if err != nil {
		s.logger.Error("Identity service: failed to hash password",
			"username", params.Username,
			"error", err.Error())
		return model.Identity{}, false, fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		created model.Identity
		skipped bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx model.Store) error {
		role := params.Role

		count, err := tx.Identities().Count(ctx)
		if err != nil {
			return err
		}
		bootstrap := false
		if count == 0 {
			bootstrap, err = tx.Identities().ClaimBootstrap(ctx)
			if err != nil {
				return err
			}
		}
		if bootstrap {
			role = model.RoleAdmin
		} else if onlyIfEmpty {
			skipped = true
			return nil
		}

		identity, err := tx.Identities().Create(ctx, model.Identity{
			Username: params.Username,
			Role:     role,
		})
		if err != nil {
			return err
		}

		_, err = tx.Credentials().Create(ctx, model.Credential{
			IdentityID:   identity.ID,
			FirstName:    strings.TrimSpace(params.FirstName),
			LastName:     strings.TrimSpace(params.LastName),
			Address:      params.Address,
			Phone:        params.Phone,
			PasswordHash: hash,
			Salt:         salt,
			IsActive:     true,
		})
		if err != nil {
			return err
		}

		created = identity
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			s.logger.Info("Identity service: username already exists",
				"username", params.Username)
			return model.Identity{}, false, model.ErrDuplicateUsername
		}
		return model.Identity{}, false, s.storageError("register", err, "username", params.Username)
	}
	if skipped {
		s.logger.Debug("Identity service: store already initialized, nothing to seed")
		return model.Identity{}, false, nil
	}

	s.record(ctx, model.AuditRegistered, nil, audit.ID(created.ID), map[string]any{
		"username": created.Username,
		"role":     created.Role.String(),
	})

	s.logger.Info("Identity service: identity registered",
		"identity_id", created.ID,
		"username", created.Username,
		"role", created.Role.String())

	return created, true, nil
}

// Authenticate checks username and password and issues a session token.
// Every failure is reported as model.ErrInvalidCredentials.
func (s *Identity) Authenticate(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	identity, err := s.store.Identities().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.burnVerify(password)
			return "", s.loginFailed(ctx, username, nil, "unknown username")
		}
		return "", s.storageError("authenticate", err, "username", username)
	}

	credential, err := s.store.Credentials().GetByIdentityID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.burnVerify(password)
			return "", s.loginFailed(ctx, username, audit.ID(identity.ID), "no credential")
		}
		return "", s.storageError("authenticate", err, "identity_id", identity.ID)
	}
	if !credential.IsActive {
		s.burnVerify(password)
		return "", s.loginFailed(ctx, username, audit.ID(identity.ID), "credential inactive")
	}

	if !s.hasher.Verify(password, credential.PasswordHash, credential.Salt) {
		return "", s.loginFailed(ctx, username, audit.ID(identity.ID), "wrong password")
	}

	token, err := s.tokens.Issue(identity.ID, identity.Role)
	if err != nil {
		s.logger.Error("Identity service: failed to issue token",
			"identity_id", identity.ID,
			"error", err.Error())
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.touchLastLogin(ctx, identity.ID)
	}()

	s.record(ctx, model.AuditLoginSuccess, audit.ID(identity.ID), audit.ID(identity.ID), map[string]any{
		"username": identity.Username,
	})

	s.logger.Info("Identity service: identity authenticated",
		"identity_id", identity.ID)

	return token, nil
}

// ChangePassword replaces the password of identityID. With requireOld the
// old password must be supplied and match; a mismatch returns false and
// leaves the credential unchanged.
func (s *Identity) ChangePassword(ctx context.Context, identityID int64, oldPassword, newPassword string, requireOld bool) (bool, error) {
	if requireOld && oldPassword == "" {
		return false, model.ErrOldPasswordRequired
	}
	if err := required("new_password", newPassword); err != nil {
		return false, err
	}

	hash, salt, err := s.hasher.Hash(newPassword, "")
	if err != nil {
		s.logger.Error("Identity service: failed to hash password",
			"identity_id", identityID,
			"error", err.Error())
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rejected := false
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx model.Store) error {
		credential, err := tx.Credentials().GetByIdentityID(ctx, identityID)
		if err != nil {
			return err
		}
		if !credential.IsActive {
			return model.ErrCredentialInactive
		}

		if requireOld && !s.hasher.Verify(oldPassword, credential.PasswordHash, credential.Salt) {
			rejected = true
			return nil
		}

		return tx.Credentials().UpdatePassword(ctx, identityID, hash, salt)
	})
	if err != nil {
		return false, s.storageError("change password", err, "identity_id", identityID)
	}

	if rejected {
		s.record(ctx, model.AuditPasswordRejected, nil, audit.ID(identityID), nil)
		s.logger.Info("Identity service: old password mismatch",
			"identity_id", identityID)
		return false, nil
	}

	s.record(ctx, model.AuditPasswordChanged, nil, audit.ID(identityID), map[string]any{
		"self_service": requireOld,
	})

	s.logger.Info("Identity service: password changed",
		"identity_id", identityID)

	return true, nil
}

// Promote makes identityID an admin. It returns false when the identity
// does not exist or already is one.
func (s *Identity) Promote(ctx context.Context, identityID int64) (bool, error) {
	return s.setRole(ctx, identityID, model.RoleAdmin, model.AuditPromoted)
}

// Demote makes identityID a regular user. It returns false when the
// identity does not exist or already is one.
func (s *Identity) Demote(ctx context.Context, identityID int64) (bool, error) {
	return s.setRole(ctx, identityID, model.RoleUser, model.AuditDemoted)
}

func (s *Identity) setRole(ctx context.Context, identityID int64, role model.Role, action string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	changed := false
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx model.Store) error {
		identity, err := tx.Identities().GetByID(ctx, identityID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			return err
		}
		if identity.Role == role {
			return nil
		}
		if err := tx.Identities().SetRole(ctx, identityID, role); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, s.storageError("set role", err, "identity_id", identityID)
	}

	if changed {
		s.record(ctx, action, nil, audit.ID(identityID), map[string]any{"role": role.String()})
		s.logger.Info("Identity service: role changed",
			"identity_id", identityID,
			"role", role.String())
	}

	return changed, nil
}

// UpdateProfile applies update to the active credential of identityID. It
// returns nil when there is no active credential.
func (s *Identity) UpdateProfile(ctx context.Context, identityID int64, update model.ProfileUpdate) (*model.Credential, error) {
	if err := validateProfile(update); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *model.Credential
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx model.Store) error {
		credential, err := tx.Credentials().GetByIdentityID(ctx, identityID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			return err
		}
		if !credential.IsActive {
			return nil
		}
		if update.Empty() {
			result = &credential
			return nil
		}

		updated, err := tx.Credentials().UpdateProfile(ctx, identityID, update)
		if err != nil {
			return err
		}
		result = &updated
		return nil
	})
	if err != nil {
		return nil, s.storageError("update profile", err, "identity_id", identityID)
	}

	if result != nil && !update.Empty() {
		s.record(ctx, model.AuditProfileUpdated, nil, audit.ID(identityID), map[string]any{
			"fields": updatedFields(update),
		})
		s.logger.Info("Identity service: profile updated",
			"identity_id", identityID)
	}

	return result, nil
}

// SoftDelete deactivates the credential of identityID. It returns false
// when there is no credential; deactivating twice succeeds.
func (s *Identity) SoftDelete(ctx context.Context, identityID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	found, deactivated := false, false
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx model.Store) error {
		credential, err := tx.Credentials().GetByIdentityID(ctx, identityID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			return err
		}
		found = true
		if !credential.IsActive {
			return nil
		}
		if err := tx.Credentials().Deactivate(ctx, identityID); err != nil {
			return err
		}
		deactivated = true
		return nil
	})
	if err != nil {
		return false, s.storageError("soft delete", err, "identity_id", identityID)
	}

	if deactivated {
		s.record(ctx, model.AuditDeactivated, nil, audit.ID(identityID), nil)
		s.logger.Info("Identity service: credential deactivated",
			"identity_id", identityID)
	}

	return found, nil
}

// List returns active profiles ordered by identity id, optionally filtered
// by a case-insensitive search term.
func (s *Identity) List(ctx context.Context, search string) ([]model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.store.Profiles().Search(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, s.storageError("list", err, "search", search)
	}
	return profiles, nil
}

// RecordClientLogs stores client-submitted log entries as audit events
// attributed to caller and returns how many were accepted.
func (s *Identity) RecordClientLogs(ctx context.Context, caller model.Claims, entries []map[string]any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for i, entry := range entries {
		meta := make(map[string]any, len(entry)+2)
		for k, v := range entry {
			meta[k] = v
		}
		meta["identity_id"] = caller.IdentityID
		meta["role"] = caller.Role.String()

		event := audit.NewEvent(model.AuditClientLog, audit.ID(caller.IdentityID), nil, meta)
		if err := s.audit.Record(ctx, event); err != nil {
			return i, s.storageError("record client logs", err, "identity_id", caller.IdentityID)
		}
	}

	s.logger.Debug("Identity service: client logs recorded",
		"identity_id", caller.IdentityID,
		"count", len(entries))

	return len(entries), nil
}

func (s *Identity) loginFailed(ctx context.Context, username string, identityID *int64, reason string) error {
	s.record(ctx, model.AuditLoginFailed, nil, identityID, map[string]any{
		"username": username,
		"reason":   reason,
	})
	s.logger.Info("Identity service: authentication failed",
		"username", username,
		"reason", reason)
	return model.ErrInvalidCredentials
}

// burnVerify spends the same effort as a real verification so unknown
// usernames cannot be told apart by timing.
func (s *Identity) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummySalt, _ = s.hasher.Hash("dummy-password", "")
	})
	s.hasher.Verify(password, s.dummyHash, s.dummySalt)
}

// Wait blocks until pending last-login updates have finished.
func (s *Identity) Wait() {
	s.background.Wait()
}

// touchLastLogin must never fail or delay a login. It runs in the background,
// detached from the request deadline, and only logs errors.
func (s *Identity) touchLastLogin(ctx context.Context, identityID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.store.Credentials().TouchLastLogin(ctx, identityID, s.now()); err != nil {
		s.logger.Warn("Identity service: failed to update last login",
			"identity_id", identityID,
			"error", err.Error())
	}
}

func (s *Identity) record(ctx context.Context, action string, actorID, targetID *int64, meta map[string]any) {
	if actorID == nil {
		actorID = audit.ActorFrom(ctx)
	}
	event := audit.NewEvent(action, actorID, targetID, meta)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("Identity service: failed to record audit event",
			"action", action,
			"error", err.Error())
	}
}

// storageError passes domain errors through and hides everything else
// behind model.ErrStorageUnavailable.
func (s *Identity) storageError(op string, err error, args ...any) error {
	if model.IsDomain(err) {
		return err
	}
	s.logger.Error("Identity service: "+op+" failed",
		append(args, "error", err.Error())...)
	return fmt.Errorf("%s: %w", op, model.ErrStorageUnavailable)
}

func updatedFields(u model.ProfileUpdate) []any {
	var fields []any
	if u.FirstName != nil {
		fields = append(fields, "first_name")
	}
	if u.LastName != nil {
		fields = append(fields, "last_name")
	}
	if u.Address != nil {
		fields = append(fields, "address")
	}
	if u.Phone != nil {
		fields = append(fields, "phone")
	}
	return fields
}
