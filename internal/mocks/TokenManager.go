package mocks

import (
	model "github.com/dtroode/identity-server/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// TokenManager is a mock type for the TokenManager type
type TokenManager struct {
	mock.Mock
}

// Issue provides a mock function with given fields: identityID, role
func (_m *TokenManager) Issue(identityID int64, role model.Role) (string, error) {
	ret := _m.Called(identityID, role)

	var r0 string
	if rf, ok := ret.Get(0).(func(int64, model.Role) string); ok {
		r0 = rf(identityID, role)
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0, ret.Error(1)
}

// Verify provides a mock function with given fields: token
func (_m *TokenManager) Verify(token string) (model.Claims, error) {
	ret := _m.Called(token)

	var r0 model.Claims
	if rf, ok := ret.Get(0).(func(string) model.Claims); ok {
		r0 = rf(token)
	} else {
		r0 = ret.Get(0).(model.Claims)
	}

	return r0, ret.Error(1)
}

// NewTokenManager creates a new instance of TokenManager. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
