package mocks

import (
	context "context"

	model "github.com/dtroode/identity-server/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// AuditSink is a mock type for the AuditSink type
type AuditSink struct {
	mock.Mock
}

// Record provides a mock function with given fields: ctx, event
func (_m *AuditSink) Record(ctx context.Context, event model.AuditEvent) error {
	ret := _m.Called(ctx, event)

	if rf, ok := ret.Get(0).(func(context.Context, model.AuditEvent) error); ok {
		return rf(ctx, event)
	}
	return ret.Error(0)
}

// NewAuditSink creates a new instance of AuditSink. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewAuditSink(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuditSink {
	m := &AuditSink{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
