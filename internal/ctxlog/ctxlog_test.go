package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
	assert.Same(t, slog.Default(), FromContext(WithLogger(context.Background(), nil)))
}

func TestWith_AccumulatesAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), base)

	ctx, _ = With(ctx, "module", "sm3")
	_, logger := With(ctx, "handler", "input3")
	logger.Info("hello")

	assert.Contains(t, buf.String(), "module=sm3 handler=input3")
	assert.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
}
