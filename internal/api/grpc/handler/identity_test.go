package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/identity-server/internal/mocks"
	"github.com/dtroode/identity-server/internal/model"
	"github.com/dtroode/identity-server/internal/testutil"
)

var _ IdentityService = (*mocks.IdentityService)(nil)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestIdentity_Register(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	want := model.RegisterRequest{
		Username:  "alice",
		Password:  "pw1",
		FirstName: "Alice",
		LastName:  "Liddell",
		Role:      "admin",
	}
	svc.On("Register", mock.Anything, "admintoken", want).
		Return(model.Identity{ID: 2, Username: "alice", Role: model.RoleAdmin}, nil)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer admintoken"))
	resp, err := h.Register(ctx, mustStruct(t, map[string]any{
		"username":   "alice",
		"password":   "pw1",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"role":       "admin",
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(2), resp.Fields["id"].GetNumberValue())
	assert.Equal(t, "alice", resp.Fields["username"].GetStringValue())
	assert.Equal(t, "admin", resp.Fields["role"].GetStringValue())
}

func TestIdentity_Register_Anonymous(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	h := NewIdentity(svc, mocks.NewContextManager(t), testutil.MakeNoopLogger())

	svc.On("Register", mock.Anything, "", mock.AnythingOfType("model.RegisterRequest")).
		Return(model.Identity{}, model.ErrDuplicateUsername)

	_, err := h.Register(context.Background(), mustStruct(t, map[string]any{"username": "bob"}))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestIdentity_Register_LegacyFieldNames(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	h := NewIdentity(svc, mocks.NewContextManager(t), testutil.MakeNoopLogger())

	want := model.RegisterRequest{
		Username:  "carol",
		Password:  "pw3",
		FirstName: "Carol",
		LastName:  "Danvers",
		Address:   "12 Rue de Paris",
		Phone:     "0612345678",
	}
	svc.On("Register", mock.Anything, "", want).
		Return(model.Identity{ID: 3, Username: "carol"}, nil)

	_, err := h.Register(context.Background(), mustStruct(t, map[string]any{
		"username":   "carol",
		"password":   "pw3",
		"first_name": "Carol",
		"last_name":  "Danvers",
		"adresse":    "12 Rue de Paris",
		"num_phone":  "0612345678",
	}))
	require.NoError(t, err)
}

func TestIdentity_Authenticate(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	h := NewIdentity(svc, mocks.NewContextManager(t), testutil.MakeNoopLogger())

	svc.On("Authenticate", mock.Anything, "bob", "pw").Return("tok", nil)
	svc.On("Authenticate", mock.Anything, "bob", "bad").Return("", model.ErrInvalidCredentials)

	resp, err := h.Authenticate(context.Background(), mustStruct(t, map[string]any{"username": "bob", "password": "pw"}))
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Fields["token"].GetStringValue())

	_, err = h.Authenticate(context.Background(), mustStruct(t, map[string]any{"username": "bob", "password": "bad"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestIdentity_ListIdentities(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	cm.On("GetTokenFromContext", mock.Anything).Return("tok", true)
	svc.On("ListIdentities", mock.Anything, "tok", "ali").Return([]model.Profile{
		{ID: 2, Username: "alice", Role: model.RoleAdmin, FirstName: "Alice", Phone: "0600000000"},
	}, nil)

	resp, err := h.ListIdentities(context.Background(), mustStruct(t, map[string]any{"search": "ali"}))
	require.NoError(t, err)

	items := resp.Fields["identities"].GetListValue().GetValues()
	require.Len(t, items, 1)
	item := items[0].GetStructValue().AsMap()
	assert.Equal(t, float64(2), item["id"])
	assert.Equal(t, "alice", item["username"])
	assert.Equal(t, "admin", item["role"])
	assert.Equal(t, "0600000000", item["phone"])
}

func TestIdentity_MissingToken(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	cm.On("GetTokenFromContext", mock.Anything).Return("", false)

	calls := map[string]func(context.Context, *structpb.Struct) (*structpb.Struct, error){
		"list":    h.ListIdentities,
		"change":  h.ChangePassword,
		"promote": h.Promote,
		"demote":  h.Demote,
		"update":  h.UpdateProfile,
		"delete":  h.SoftDelete,
		"logs":    h.SubmitClientLogs,
	}
	for name, call := range calls {
		_, err := call(context.Background(), mustStruct(t, map[string]any{"id": 1}))
		assert.Equal(t, codes.Unauthenticated, status.Code(err), name)
	}
}

func TestIdentity_ChangePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		changed  bool
		err      error
		wantCode codes.Code
	}{
		{name: "changed", changed: true, wantCode: codes.OK},
		{name: "wrong old password", changed: false, wantCode: codes.FailedPrecondition},
		{name: "old password missing", err: model.ErrOldPasswordRequired, wantCode: codes.InvalidArgument},
		{name: "forbidden", err: model.ErrForbidden, wantCode: codes.PermissionDenied},
		{name: "not found", err: model.ErrNotFound, wantCode: codes.NotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewIdentityService(t)
			cm := mocks.NewContextManager(t)
			h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

			cm.On("GetTokenFromContext", mock.Anything).Return("tok", true)
			svc.On("ChangePassword", mock.Anything, "tok", int64(3), "old", "new").Return(tt.changed, tt.err)

			resp, err := h.ChangePassword(context.Background(), mustStruct(t, map[string]any{
				"id":           3,
				"old_password": "old",
				"new_password": "new",
			}))
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.True(t, resp.Fields["changed"].GetBoolValue())
			}
		})
	}
}

func TestIdentity_PromoteDemote(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	cm.On("GetTokenFromContext", mock.Anything).Return("tok", true)
	svc.On("Promote", mock.Anything, "tok", int64(5)).Return(true, nil)
	svc.On("Demote", mock.Anything, "tok", int64(5)).Return(false, nil)

	resp, err := h.Promote(context.Background(), mustStruct(t, map[string]any{"id": "5"}))
	require.NoError(t, err)
	assert.True(t, resp.Fields["changed"].GetBoolValue())

	resp, err = h.Demote(context.Background(), mustStruct(t, map[string]any{"id": 5}))
	require.NoError(t, err)
	assert.False(t, resp.Fields["changed"].GetBoolValue())
}

func TestIdentity_InvalidID(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	cm.On("GetTokenFromContext", mock.Anything).Return("tok", true)

	for _, body := range []map[string]any{
		{},
		{"id": 1.5},
		{"id": -3},
		{"id": "abc"},
		{"id": true},
	} {
		_, err := h.SoftDelete(context.Background(), mustStruct(t, body))
		assert.Equal(t, codes.InvalidArgument, status.Code(err), body)
	}
}

func TestIdentity_UpdateProfile(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	cm.On("GetTokenFromContext", mock.Anything).Return("tok", true)
	svc.On("UpdateProfile", mock.Anything, "tok", int64(2), map[string]string{"first_name": "Al", "adresse": "Rue 1"}).
		Return(model.Credential{IdentityID: 2, FirstName: "Al", Address: "Rue 1"}, nil)
	svc.On("UpdateProfile", mock.Anything, "tok", int64(9), map[string]string{"last_name": "X"}).
		Return(model.Credential{}, model.ErrNotFound)

	resp, err := h.UpdateProfile(context.Background(), mustStruct(t, map[string]any{
		"id": 2,
		"fields": map[string]any{
			"first_name": "Al",
			"adresse":    "Rue 1",
			"phone":      600000000,
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Al", resp.Fields["first_name"].GetStringValue())
	assert.Equal(t, "Rue 1", resp.Fields["address"].GetStringValue())

	_, err = h.UpdateProfile(context.Background(), mustStruct(t, map[string]any{"id": "9", "last_name": "X"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestIdentity_SoftDelete(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	cm.On("GetTokenFromContext", mock.Anything).Return("tok", true)
	svc.On("SoftDelete", mock.Anything, "tok", int64(4)).Return(true, nil)

	resp, err := h.SoftDelete(context.Background(), mustStruct(t, map[string]any{"id": 4}))
	require.NoError(t, err)
	assert.True(t, resp.Fields["deleted"].GetBoolValue())
}

func TestIdentity_SubmitClientLogs(t *testing.T) {
	t.Parallel()

	svc := mocks.NewIdentityService(t)
	cm := mocks.NewContextManager(t)
	h := NewIdentity(svc, cm, testutil.MakeNoopLogger())

	cm.On("GetTokenFromContext", mock.Anything).Return("tok", true)
	svc.On("SubmitClientLogs", mock.Anything, "tok", []map[string]any{
		{"level": "error", "message": "a"},
		{"level": "info", "message": "b"},
	}).Return(2, nil)
	svc.On("SubmitClientLogs", mock.Anything, "tok", []map[string]any{
		{"level": "warn", "message": "single"},
	}).Return(1, nil)

	resp, err := h.SubmitClientLogs(context.Background(), mustStruct(t, map[string]any{
		"entries": []any{
			map[string]any{"level": "error", "message": "a"},
			map[string]any{"level": "info", "message": "b"},
			"not an object",
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(2), resp.Fields["accepted"].GetNumberValue())

	resp, err = h.SubmitClientLogs(context.Background(), mustStruct(t, map[string]any{"level": "warn", "message": "single"}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.Fields["accepted"].GetNumberValue())
}
