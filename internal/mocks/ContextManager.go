package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
)

// ContextManager is a mock type for the ContextManager type
type ContextManager struct {
	mock.Mock
}

// GetTokenFromContext provides a mock function with given fields: ctx
func (_m *ContextManager) GetTokenFromContext(ctx context.Context) (string, bool) {
	ret := _m.Called(ctx)

	var r0 string
	var r1 bool
	if rf, ok := ret.Get(0).(func(context.Context) (string, bool)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) string); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(string)
	}
	if rf, ok := ret.Get(1).(func(context.Context) bool); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Get(1).(bool)
	}

	return r0, r1
}

// SetTokenToContext provides a mock function with given fields: ctx, token
func (_m *ContextManager) SetTokenToContext(ctx context.Context, token string) context.Context {
	ret := _m.Called(ctx, token)

	var r0 context.Context
	if rf, ok := ret.Get(0).(func(context.Context, string) context.Context); ok {
		r0 = rf(ctx, token)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(context.Context)
	}

	return r0
}

// NewContextManager creates a new instance of ContextManager. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewContextManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *ContextManager {
	m := &ContextManager{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
