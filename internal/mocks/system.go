package mocks

import (
	"context"
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/lc/hostd/internal/hostentry"
	"github.com/lc/hostd/internal/resolver"
)

var _ resolver.System = (*MockSystem)(nil)

// MockSystem is a testify mock of the resolver.System backend. It is
// shared by the resolver and api test suites.
type MockSystem struct {
	mock.Mock
}

// LookupHost mocks forward resolution.
func (m *MockSystem) LookupHost(ctx context.Context, name string) (hostentry.Record, error) {
	args := m.Called(ctx, name)
	rec, _ := args.Get(0).(hostentry.Record)
	return rec, args.Error(1)
}

// LookupAddr mocks reverse resolution.
func (m *MockSystem) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	args := m.Called(ctx, ip)
	return args.String(0), args.Error(1)
}

// Hostname mocks the local host name query.
func (m *MockSystem) Hostname() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
