package mocks

import (
	context "context"

	model "github.com/dtroode/identity-server/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// IdentityService is a mock type for the IdentityService type
type IdentityService struct {
	mock.Mock
}

// Authenticate provides a mock function with given fields: ctx, username, password
func (_m *IdentityService) Authenticate(ctx context.Context, username string, password string) (string, error) {
	ret := _m.Called(ctx, username, password)
	return ret.String(0), ret.Error(1)
}

// ChangePassword provides a mock function with given fields: ctx, token, targetID, oldPassword, newPassword
func (_m *IdentityService) ChangePassword(ctx context.Context, token string, targetID int64, oldPassword string, newPassword string) (bool, error) {
	ret := _m.Called(ctx, token, targetID, oldPassword, newPassword)
	return ret.Bool(0), ret.Error(1)
}

// Demote provides a mock function with given fields: ctx, token, targetID
func (_m *IdentityService) Demote(ctx context.Context, token string, targetID int64) (bool, error) {
	ret := _m.Called(ctx, token, targetID)
	return ret.Bool(0), ret.Error(1)
}

// ListIdentities provides a mock function with given fields: ctx, token, search
func (_m *IdentityService) ListIdentities(ctx context.Context, token string, search string) ([]model.Profile, error) {
	ret := _m.Called(ctx, token, search)

	var r0 []model.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Profile)
	}

	return r0, ret.Error(1)
}

// Promote provides a mock function with given fields: ctx, token, targetID
func (_m *IdentityService) Promote(ctx context.Context, token string, targetID int64) (bool, error) {
	ret := _m.Called(ctx, token, targetID)
	return ret.Bool(0), ret.Error(1)
}

// Register provides a mock function with given fields: ctx, token, req
func (_m *IdentityService) Register(ctx context.Context, token string, req model.RegisterRequest) (model.Identity, error) {
	ret := _m.Called(ctx, token, req)
	return ret.Get(0).(model.Identity), ret.Error(1)
}

// SoftDelete provides a mock function with given fields: ctx, token, targetID
func (_m *IdentityService) SoftDelete(ctx context.Context, token string, targetID int64) (bool, error) {
	ret := _m.Called(ctx, token, targetID)
	return ret.Bool(0), ret.Error(1)
}

// SubmitClientLogs provides a mock function with given fields: ctx, token, entries
func (_m *IdentityService) SubmitClientLogs(ctx context.Context, token string, entries []map[string]any) (int, error) {
	ret := _m.Called(ctx, token, entries)
	return ret.Int(0), ret.Error(1)
}

// UpdateProfile provides a mock function with given fields: ctx, token, targetID, fields
func (_m *IdentityService) UpdateProfile(ctx context.Context, token string, targetID int64, fields map[string]string) (model.Credential, error) {
	ret := _m.Called(ctx, token, targetID, fields)
	return ret.Get(0).(model.Credential), ret.Error(1)
}

// NewIdentityService creates a new instance of IdentityService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewIdentityService(t interface {
	mock.TestingT
	Cleanup(func())
}) *IdentityService {
	m := &IdentityService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
