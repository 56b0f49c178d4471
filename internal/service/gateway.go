package service

import (
	"context"
	"fmt"

	"github.com/dtroode/identity-server/internal/audit"
	"github.com/dtroode/identity-server/internal/guard"
	"github.com/dtroode/identity-server/internal/logger"
	"github.com/dtroode/identity-server/internal/model"
)

// Gateway authorizes callers by their session token and dispatches to
// Identity.
type Gateway struct {
	identity *Identity
	verifier guard.Verifier
	logger   *logger.Logger
}

func NewGateway(identity *Identity, verifier guard.Verifier, logger *logger.Logger) *Gateway {
	return &Gateway{
		identity: identity,
		verifier: verifier,
		logger:   logger,
	}
}

// Register creates an account. Only a caller holding a valid admin token
// may choose the role; everyone else gets model.RoleUser.
func (g *Gateway) Register(ctx context.Context, token string, req model.RegisterRequest) (model.Identity, error) {
	role := model.RoleUser
	if token != "" {
		claims, err := guard.AdminOnly(g.verifier, token)
		if err == nil {
			ctx = audit.WithActor(ctx, claims.IdentityID)
			if requested, ok := model.ParseRole(req.Role); ok {
				role = requested
			}
		} else {
			g.logger.Debug("Gateway: registering without elevated role",
				"error", err.Error())
		}
	}

	return g.identity.Register(ctx, RegisterParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Phone:     req.Phone,
		Role:      role,
	})
}

func (g *Gateway) Authenticate(ctx context.Context, username, password string) (string, error) {
	return g.identity.Authenticate(ctx, username, password)
}

func (g *Gateway) ListIdentities(ctx context.Context, token, search string) ([]model.Profile, error) {
	if _, err := guard.Authenticated(g.verifier, token); err != nil {
		return nil, err
	}
	return g.identity.List(ctx, search)
}

// ChangePassword lets a caller change their own password, proving the old
// one, or an admin reset anyone else's.
func (g *Gateway) ChangePassword(ctx context.Context, token string, targetID int64, oldPassword, newPassword string) (bool, error) {
	claims, err := guard.AdminOrSelf(g.verifier, token, targetID)
	if err != nil {
		return false, err
	}
	if newPassword == "" {
		return false, fmt.Errorf("%w: new_password is required", model.ErrValidation)
	}

	ctx = audit.WithActor(ctx, claims.IdentityID)
	return g.identity.ChangePassword(ctx, targetID, oldPassword, newPassword, guard.IsSelf(claims, targetID))
}

func (g *Gateway) Promote(ctx context.Context, token string, targetID int64) (bool, error) {
	claims, err := guard.AdminOnly(g.verifier, token)
	if err != nil {
		return false, err
	}
	return g.identity.Promote(audit.WithActor(ctx, claims.IdentityID), targetID)
}

func (g *Gateway) Demote(ctx context.Context, token string, targetID int64) (bool, error) {
	claims, err := guard.AdminOnly(g.verifier, token)
	if err != nil {
		return false, err
	}
	return g.identity.Demote(audit.WithActor(ctx, claims.IdentityID), targetID)
}

// UpdateProfile applies the allow-listed keys of fields and returns the
// updated credential.
func (g *Gateway) UpdateProfile(ctx context.Context, token string, targetID int64, fields map[string]string) (model.Credential, error) {
	claims, err := guard.AdminOrSelf(g.verifier, token, targetID)
	if err != nil {
		return model.Credential{}, err
	}

	update := model.NewProfileUpdate(fields)
	if update.Empty() {
		return model.Credential{}, fmt.Errorf("%w: no updatable field provided", model.ErrValidation)
	}

	updated, err := g.identity.UpdateProfile(audit.WithActor(ctx, claims.IdentityID), targetID, update)
	if err != nil {
		return model.Credential{}, err
	}
	if updated == nil {
		return model.Credential{}, model.ErrNotFound
	}
	return *updated, nil
}

func (g *Gateway) SoftDelete(ctx context.Context, token string, targetID int64) (bool, error) {
	claims, err := guard.AdminOrSelf(g.verifier, token, targetID)
	if err != nil {
		return false, err
	}
	return g.identity.SoftDelete(audit.WithActor(ctx, claims.IdentityID), targetID)
}

// SubmitClientLogs records log entries sent by an authenticated client.
func (g *Gateway) SubmitClientLogs(ctx context.Context, token string, entries []map[string]any) (int, error) {
	claims, err := guard.Authenticated(g.verifier, token)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: no log entries provided", model.ErrValidation)
	}
	return g.identity.RecordClientLogs(ctx, claims, entries)
}
