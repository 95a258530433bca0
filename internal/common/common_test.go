package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_URL", "file:test.db")
	t.Setenv("DB_DRIVER", "SQLite")

	cfg := LoadConfig()
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, 70.0, cfg.Resolver.Threshold)
	assert.Equal(t, 10, cfg.Resolver.SuggestLimit)
	assert.Equal(t, "jpn+eng", cfg.OCR.Language)
	assert.Equal(t, 60*time.Second, cfg.OCR.Timeout)
	assert.False(t, cfg.Resolver.FoldWidth)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/groceries")
	t.Setenv("MATCH_THRESHOLD", "82.5")
	t.Setenv("SUGGEST_LIMIT", "5")
	t.Setenv("FOLD_WIDTH", "true")
	t.Setenv("NORMALIZE_WORKERS", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 82.5, cfg.Resolver.Threshold)
	assert.Equal(t, 5, cfg.Resolver.SuggestLimit)
	assert.True(t, cfg.Resolver.FoldWidth)
	assert.Equal(t, 4, cfg.Resolver.Workers)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		t.Setenv("DB_URL", "file:test.db")
		t.Setenv("DB_DRIVER", "sqlite")
		return LoadConfig()
	}

	cfg := base()
	cfg.Database.DSN = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg = base()
	cfg.Database.Driver = "mysql"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg = base()
	cfg.Resolver.Threshold = 120
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg = base()
	cfg.Inbox.Dir = "/tmp/inbox"
	cfg.Inbox.OwnerID = "bob"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg.Inbox.OwnerID = "7b4f0c4e-3a4b-4c1e-9a51-6f0c2f0e8d11"
	assert.NoError(t, cfg.Validate())
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("item 4: %w", ErrNotFound), codes.NotFound},
		{WrapError(ErrInvalidInput, "bad"), codes.InvalidArgument},
		{NewValidator().Field("name", "", Required).Error(), codes.InvalidArgument},
		{NewAppError("IN_USE", "item has records", ErrConflict), codes.FailedPrecondition},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tt := range tests {
		st, ok := status.FromError(StatusFromError(tt.err))
		require.True(t, ok)
		assert.Equal(t, tt.want, st.Code(), tt.err.Error())
	}
	assert.NoError(t, StatusFromError(nil))
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.Field("name", "  ", Required, Length(1, 100)).
		Field("owner_id", "nope", UUID).
		Field("item_id", int64(0), PositiveID).
		Field("price", decimal.NewFromInt(-1), PositiveAmount).
		Field("purchase_date", "2024/05/01", DateYMD)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 6)
	assert.ErrorIs(t, v.Error(), ErrValidation)

	st, _ := status.FromError(ValidateAndReturnError(v))
	assert.Equal(t, codes.InvalidArgument, st.Code())

	ok := NewValidator().
		Field("name", "牛乳", Required, Length(1, 2)).
		Field("price", decimal.RequireFromString("0.01"), PositiveAmount).
		Field("purchase_date", "2024-05-01", DateYMD)
	assert.False(t, ok.HasErrors())
	assert.NoError(t, ok.Error())

	tooLong := NewValidator().Field("name", "牛乳パック", Length(1, 2))
	assert.True(t, tooLong.HasErrors())
}

func TestContextHelpers(t *testing.T) {
	ctx := WithOwnerID(WithRequestID(context.Background(), "req-1"), "owner-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "owner-1", OwnerIDFromContext(ctx))
	assert.Equal(t, "", OwnerIDFromContext(context.Background()))

	fallback := slog.Default()
	assert.Same(t, fallback, LoggerFromContext(context.Background(), fallback))
	scoped := fallback.With("request_id", "req-1")
	assert.Same(t, scoped, LoggerFromContext(WithLogger(ctx, scoped), fallback))
}

func TestNewLoggerDropsTimeAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("receipts.upload.ok", "lines", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "time=")
	assert.NotContains(t, out, "level=")
	assert.Contains(t, out, "msg=receipts.upload.ok lines=3")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
