package mocks

import (
	context "context"
	io "io"

	mock "github.com/stretchr/testify/mock"
)

// ObjectStorage is a mock type for the ObjectStorage type
type ObjectStorage struct {
	mock.Mock
}

// Upload provides a mock function with given fields: ctx, key, reader, size, contentType
func (_m *ObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	ret := _m.Called(ctx, key, reader, size, contentType)

	if rf, ok := ret.Get(0).(func(context.Context, string, io.Reader, int64, string) error); ok {
		return rf(ctx, key, reader, size, contentType)
	}
	return ret.Error(0)
}

// NewObjectStorage creates a new instance of ObjectStorage. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewObjectStorage(t interface {
	mock.TestingT
	Cleanup(func())
}) *ObjectStorage {
	m := &ObjectStorage{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
