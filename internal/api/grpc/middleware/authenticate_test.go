package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/identity-server/internal/mocks"
	"github.com/dtroode/identity-server/internal/model"
	"github.com/dtroode/identity-server/internal/testutil"
)

func TestAuthenticate_AuthFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mdAuthHeader string
		verifyClaims model.Claims
		verifyErr    error
		expectVerify bool
		wantGRPCCode codes.Code
		wantErr      bool
	}{
		{
			name:         "missing authorization header",
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
		},
		{
			name:         "wrong scheme",
			mdAuthHeader: "Basic dXNlcjpwdw==",
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
		},
		{
			name:         "expired token",
			mdAuthHeader: "Bearer expired",
			verifyErr:    model.ErrTokenExpired,
			expectVerify: true,
			wantGRPCCode: codes.Unauthenticated,
			wantErr:      true,
		},
		{
			name:         "valid token",
			mdAuthHeader: "Bearer token",
			verifyClaims: model.Claims{IdentityID: 1, Role: model.RoleUser},
			expectVerify: true,
			wantGRPCCode: codes.OK,
		},
		{
			name:         "lowercase scheme",
			mdAuthHeader: "bearer token",
			verifyClaims: model.Claims{IdentityID: 1, Role: model.RoleAdmin},
			expectVerify: true,
			wantGRPCCode: codes.OK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lg := testutil.MakeNoopLogger()
			cm := mocks.NewContextManager(t)
			verifier := mocks.NewTokenManager(t)

			if tt.expectVerify {
				verifier.On("Verify", mock.AnythingOfType("string")).Return(tt.verifyClaims, tt.verifyErr)
			}
			if !tt.wantErr {
				cm.On("SetTokenToContext", mock.Anything, "token").Return(context.Background())
			}

			m := NewAuthenticate(verifier, cm, lg)

			ctx := context.Background()
			if tt.mdAuthHeader != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.mdAuthHeader))
			}

			newCtx, err := m.AuthFunc(ctx)

			if tt.wantErr {
				assert.Error(t, err)
				st, ok := status.FromError(err)
				assert.True(t, ok)
				assert.Equal(t, tt.wantGRPCCode, st.Code())
				assert.Nil(t, newCtx)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, newCtx)
			}
		})
	}
}
