package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waypoint/pkg/models"
)

type sessionFuncFn func(ctx context.Context, serverName string, session Session) (interface{}, error)

func (f sessionFuncFn) Run(ctx context.Context, serverName string, session Session) (interface{}, error) {
	return f(ctx, serverName, session)
}

func stubConfig() models.ServerConfig {
	return models.ServerConfig{Name: "github", Command: "true"}
}

func TestApply_ClosesSessionOnSuccess(t *testing.T) {
	closed := false
	applier := NewSessionApplier(time.Second)
	applier.open = func(ctx context.Context, cfg models.ServerConfig) (Session, func(), error) {
		return &fakeSession{}, func() { closed = true }, nil
	}

	result, err := applier.Apply(context.Background(), stubConfig(), sessionFuncFn(
		func(ctx context.Context, serverName string, session Session) (interface{}, error) {
			return "ok", nil
		}))
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.True(t, closed, "session must be torn down after a successful call")
}

func TestApply_ClosesSessionWhenFunctionFails(t *testing.T) {
	closed := false
	applier := NewSessionApplier(time.Second)
	applier.open = func(ctx context.Context, cfg models.ServerConfig) (Session, func(), error) {
		return &fakeSession{}, func() { closed = true }, nil
	}

	boom := errors.New("tool exploded")
	_, err := applier.Apply(context.Background(), stubConfig(), sessionFuncFn(
		func(ctx context.Context, serverName string, session Session) (interface{}, error) {
			return nil, boom
		}))
	require.ErrorIs(t, err, boom)
	assert.True(t, closed, "session must be torn down when the session function fails")
}

func TestApply_OpenFailure(t *testing.T) {
	applier := NewSessionApplier(time.Second)
	applier.open = func(ctx context.Context, cfg models.ServerConfig) (Session, func(), error) {
		return nil, nil, errors.New("launch failed")
	}

	_, err := applier.Apply(context.Background(), stubConfig(), RoutingDescription{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open session with server github")
}

func TestApply_InvalidConfigRejectedBeforeOpen(t *testing.T) {
	opened := false
	applier := NewSessionApplier(time.Second)
	applier.open = func(ctx context.Context, cfg models.ServerConfig) (Session, func(), error) {
		opened = true
		return &fakeSession{}, func() {}, nil
	}

	_, err := applier.Apply(context.Background(), models.ServerConfig{Name: "broken"}, RoutingDescription{})
	require.Error(t, err)
	assert.False(t, opened, "no session should be opened for an invalid config")
}

func TestApply_TimeoutBoundsSessionFunc(t *testing.T) {
	applier := NewSessionApplier(20 * time.Millisecond)
	applier.open = func(ctx context.Context, cfg models.ServerConfig) (Session, func(), error) {
		return &fakeSession{}, func() {}, nil
	}

	_, err := applier.Apply(context.Background(), stubConfig(), sessionFuncFn(
		func(ctx context.Context, serverName string, session Session) (interface{}, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
				return "too late", nil
			}
		}))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestApply_PropagatesCancellation(t *testing.T) {
	closed := false
	applier := NewSessionApplier(time.Minute)
	applier.open = func(ctx context.Context, cfg models.ServerConfig) (Session, func(), error) {
		return &fakeSession{}, func() { closed = true }, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, err := applier.Apply(ctx, stubConfig(), sessionFuncFn(
		func(ctx context.Context, serverName string, session Session) (interface{}, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}))
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, closed, "session must be torn down on cancellation")
}

func TestNewTransport(t *testing.T) {
	t.Run("stdio for command configs", func(t *testing.T) {
		tr, err := newTransport(models.ServerConfig{Name: "local", Command: "npx", Args: []string{"-y", "server"}})
		require.NoError(t, err)
		assert.NotNil(t, tr)
	})

	t.Run("sse for url configs", func(t *testing.T) {
		tr, err := newTransport(models.ServerConfig{Name: "remote", URL: "https://mcp.example.com/sse"})
		require.NoError(t, err)
		assert.NotNil(t, tr)
	})
}
