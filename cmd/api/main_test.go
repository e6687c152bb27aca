package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designkit/internal/types"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level)
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
		})
	}
}

func TestMemProjectStore_Lifecycle(t *testing.T) {
	s := newMemProjectStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Create(ctx, &types.Project{ID: "p1", UserID: "u1", Name: "First", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, &types.Project{ID: "p2", UserID: "u1", Name: "Second", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, s.Create(ctx, &types.Project{ID: "p3", UserID: "u2", Name: "Other", CreatedAt: now}))

	count, err := s.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Name)

	require.NoError(t, s.Delete(ctx, "u1", "p1"))
	count, _ = s.CountByUser(ctx, "u1")
	assert.Equal(t, 1, count)
}

func TestMemProjectStore_DeleteMissingIsNotFound(t *testing.T) {
	s := newMemProjectStore()

	err := s.Delete(context.Background(), "u1", "ghost")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundProject, appErr.Code)
}

func TestMemProjectStore_DeleteOtherUsersProjectIsNotFound(t *testing.T) {
	s := newMemProjectStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &types.Project{ID: "p1", UserID: "u1", Name: "Mine"}))

	err := s.Delete(ctx, "u2", "p1")
	require.Error(t, err)

	count, _ := s.CountByUser(ctx, "u1")
	assert.Equal(t, 1, count)
}
