package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/identity-server/internal/model"
)

// handleError maps domain errors to gRPC statuses. Anything unrecognized
// becomes Internal without exposing its text.
func handleError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, model.ErrDuplicateUsername):
		return status.Error(codes.AlreadyExists, "username already exists")
	case errors.Is(err, model.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid username or password")
	case errors.Is(err, model.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, model.ErrForbidden):
		return status.Error(codes.PermissionDenied, "admin privileges required")
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "identity not found")
	case errors.Is(err, model.ErrOldPasswordRequired):
		return status.Error(codes.InvalidArgument, "old password is required")
	case errors.Is(err, model.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, "storage unavailable, retry later")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
