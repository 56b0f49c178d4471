package handler

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/identity-server/internal/logger"
	"github.com/dtroode/identity-server/internal/model"
)

// IdentityService defines the guarded identity operations.
type IdentityService interface {
	Register(ctx context.Context, token string, req model.RegisterRequest) (model.Identity, error)
	Authenticate(ctx context.Context, username, password string) (string, error)
	ListIdentities(ctx context.Context, token, search string) ([]model.Profile, error)
	ChangePassword(ctx context.Context, token string, targetID int64, oldPassword, newPassword string) (bool, error)
	Promote(ctx context.Context, token string, targetID int64) (bool, error)
	Demote(ctx context.Context, token string, targetID int64) (bool, error)
	UpdateProfile(ctx context.Context, token string, targetID int64, fields map[string]string) (model.Credential, error)
	SoftDelete(ctx context.Context, token string, targetID int64) (bool, error)
	SubmitClientLogs(ctx context.Context, token string, entries []map[string]any) (int, error)
}

var _ IdentityServer = (*Identity)(nil)

// Identity handles gRPC endpoints of the identity service.
type Identity struct {
	service        IdentityService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewIdentity creates a new Identity handler.
func NewIdentity(service IdentityService, contextManager model.ContextManager, logger *logger.Logger) *Identity {
	return &Identity{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register creates an account. An admin bearer token, if present, allows
// choosing the role.
func (h *Identity) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// The route is public, so the token is optional and verified downstream.
	token, _ := auth.AuthFromMD(ctx, "bearer")

	identity, err := h.service.Register(ctx, token, model.RegisterRequest{
		Username:  stringField(req, "username"),
		Password:  stringField(req, "password"),
		FirstName: stringField(req, "first_name"),
		LastName:  stringField(req, "last_name"),
		Address:   stringField(req, "address", "adresse"),
		Phone:     stringField(req, "phone", "num_phone"),
		Role:      stringField(req, "role"),
	})
	if err != nil {
		h.logger.Info("Identity handler: registration failed",
			"username", stringField(req, "username"),
			"error", err.Error())
		return nil, handleError(err)
	}

	return newStruct(map[string]any{
		"id":       identity.ID,
		"username": identity.Username,
		"role":     identity.Role.String(),
	})
}

func (h *Identity) Authenticate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.service.Authenticate(ctx, stringField(req, "username"), stringField(req, "password"))
	if err != nil {
		return nil, handleError(err)
	}

	return newStruct(map[string]any{"token": token})
}

func (h *Identity) ListIdentities(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := h.service.ListIdentities(ctx, token, stringField(req, "search"))
	if err != nil {
		return nil, handleError(err)
	}

	items := make([]any, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, map[string]any{
			"id":         p.ID,
			"username":   p.Username,
			"role":       p.Role.String(),
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"address":    p.Address,
			"phone":      p.Phone,
		})
	}

	return newStruct(map[string]any{"identities": items})
}

// ChangePassword reports a wrong old password as FailedPrecondition.
func (h *Identity) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(req)
	if err != nil {
		return nil, err
	}

	changed, err := h.service.ChangePassword(ctx, token, id, stringField(req, "old_password"), stringField(req, "new_password"))
	if err != nil {
		return nil, handleError(err)
	}
	if !changed {
		return nil, status.Error(codes.FailedPrecondition, "old password is incorrect")
	}

	return newStruct(map[string]any{"changed": true})
}

func (h *Identity) Promote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.roleChange(ctx, req, h.service.Promote)
}

func (h *Identity) Demote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.roleChange(ctx, req, h.service.Demote)
}

func (h *Identity) roleChange(ctx context.Context, req *structpb.Struct, call func(context.Context, string, int64) (bool, error)) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(req)
	if err != nil {
		return nil, err
	}

	changed, err := call(ctx, token, id)
	if err != nil {
		return nil, handleError(err)
	}

	return newStruct(map[string]any{"changed": changed})
}

// UpdateProfile takes the profile fields either at the top level or under
// "fields". Non-string values are ignored.
func (h *Identity) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(req)
	if err != nil {
		return nil, err
	}

	source := req.GetFields()
	if nested := req.GetFields()["fields"].GetStructValue(); nested != nil {
		source = nested.GetFields()
	}
	fields := make(map[string]string, len(source))
	for k, v := range source {
		if k == "id" {
			continue
		}
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			fields[k] = s.StringValue
		}
	}

	credential, err := h.service.UpdateProfile(ctx, token, id, fields)
	if err != nil {
		return nil, handleError(err)
	}

	return newStruct(map[string]any{
		"id":         credential.IdentityID,
		"first_name": credential.FirstName,
		"last_name":  credential.LastName,
		"address":    credential.Address,
		"phone":      credential.Phone,
	})
}

func (h *Identity) SoftDelete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}
	id, err := idField(req)
	if err != nil {
		return nil, err
	}

	deleted, err := h.service.SoftDelete(ctx, token, id)
	if err != nil {
		return nil, handleError(err)
	}

	return newStruct(map[string]any{"deleted": deleted})
}

// SubmitClientLogs accepts {"entries": [...]} or a single entry object.
func (h *Identity) SubmitClientLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	var entries []map[string]any
	if list := req.GetFields()["entries"].GetListValue(); list != nil {
		for _, v := range list.GetValues() {
			if entry := v.GetStructValue(); entry != nil {
				entries = append(entries, entry.AsMap())
			}
		}
	} else if len(req.GetFields()) > 0 {
		entries = append(entries, req.AsMap())
	}

	accepted, err := h.service.SubmitClientLogs(ctx, token, entries)
	if err != nil {
		return nil, handleError(err)
	}

	return newStruct(map[string]any{"accepted": accepted})
}

func (h *Identity) token(ctx context.Context) (string, error) {
	token, ok := h.contextManager.GetTokenFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "authentication required")
	}
	return token, nil
}

// stringField returns the first non-empty value among key and its aliases.
func stringField(req *structpb.Struct, key string, aliases ...string) string {
	if v := req.GetFields()[key].GetStringValue(); v != "" {
		return v
	}
	for _, alias := range aliases {
		if v := req.GetFields()[alias].GetStringValue(); v != "" {
			return v
		}
	}
	return ""
}

// idField reads the positive integer "id", sent either as a number or as a
// decimal string.
func idField(req *structpb.Struct) (int64, error) {
	v, ok := req.GetFields()["id"]
	if !ok {
		return 0, status.Error(codes.InvalidArgument, "id is required")
	}

	var id int64
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n > math.MaxInt64 {
			return 0, status.Error(codes.InvalidArgument, "id must be an integer")
		}
		id = int64(n)
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, status.Error(codes.InvalidArgument, "id must be an integer")
		}
		id = parsed
	default:
		return 0, status.Error(codes.InvalidArgument, "id must be an integer")
	}

	if id <= 0 {
		return 0, status.Error(codes.InvalidArgument, "id must be positive")
	}
	return id, nil
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode response: %v", err))
	}
	return s, nil
}
