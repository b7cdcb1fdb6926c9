package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(ctx context.Context) error { return s.err }

func TestRegistryAllHealthy(t *testing.T) {
	registry := NewCheckerRegistry()
	registry.Register(stubChecker{name: "warehouse"})
	registry.RegisterOptional(stubChecker{name: "redis"})

	h := registry.Check(context.Background())

	assert.Equal(t, StatusHealthy, h.Status)
	assert.Len(t, h.Checks, 2)
	assert.Equal(t, StatusHealthy, h.Checks["warehouse"].Status)
	assert.Equal(t, StatusHealthy, h.Checks["redis"].Status)
}

func TestRegistryOptionalFailureDegrades(t *testing.T) {
	registry := NewCheckerRegistry()
	registry.Register(stubChecker{name: "warehouse"})
	registry.RegisterOptional(stubChecker{name: "redis", err: errors.New("connection refused")})

	h := registry.Check(context.Background())

	assert.Equal(t, StatusDegraded, h.Status)

	redis, ok := h.Checks["redis"]
	require.True(t, ok)
	assert.Equal(t, StatusUnhealthy, redis.Status)
	assert.Contains(t, redis.Message, "connection refused")

	assert.Equal(t, StatusHealthy, h.Checks["warehouse"].Status)
}

func TestRegistryCriticalFailureIsUnhealthy(t *testing.T) {
	registry := NewCheckerRegistry()
	registry.Register(stubChecker{name: "warehouse", err: errors.New("ping failed")})
	registry.RegisterOptional(stubChecker{name: "redis"})

	h := registry.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, StatusUnhealthy, h.Checks["warehouse"].Status)
}

func TestRegistryCriticalOutranksOptional(t *testing.T) {
	registry := NewCheckerRegistry()
	registry.Register(stubChecker{name: "warehouse", err: errors.New("down")})
	registry.RegisterOptional(stubChecker{name: "redis", err: errors.New("down")})

	h := registry.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, h.Status)
}

func TestRegistryEmptyIsHealthy(t *testing.T) {
	registry := NewCheckerRegistry()

	h := registry.Check(context.Background())

	assert.Equal(t, StatusHealthy, h.Status)
	assert.Empty(t, h.Checks)
}
