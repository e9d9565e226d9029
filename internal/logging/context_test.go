package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, PassID(ctx))
	assert.Empty(t, StepID(ctx))

	ctx = WithPassID(ctx, "pass-1")
	ctx = WithStepID(ctx, "ingest")
	assert.Equal(t, "pass-1", PassID(ctx))
	assert.Equal(t, "ingest", StepID(ctx))
}

func TestLogWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithStepID(WithPassID(context.Background(), "pass-1"), "classify_issue")
	LogWith(ctx, logger).Info("hello")

	out := buf.String()
	assert.Contains(t, out, "pass_id=pass-1")
	assert.Contains(t, out, "step_id=classify_issue")
}

func TestLogWith_EmptyContextAddsNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogWith(context.Background(), logger).Info("hello")

	out := buf.String()
	assert.NotContains(t, out, "pass_id")
	assert.NotContains(t, out, "step_id")
}

func TestCorrelationHandler_InjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewTextHandler(&buf, nil)))

	ctx := WithStepID(WithPassID(context.Background(), "pass-9"), "draft_reply")
	logger.InfoContext(ctx, "step visited")

	out := buf.String()
	assert.Contains(t, out, "pass_id=pass-9")
	assert.Contains(t, out, "step_id=draft_reply")
}

func TestCorrelationHandler_PreservesWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewTextHandler(&buf, nil))).With("component", "engine")

	logger.InfoContext(WithPassID(context.Background(), "pass-2"), "pass finished")

	out := buf.String()
	assert.Contains(t, out, "component=engine")
	assert.Contains(t, out, "pass_id=pass-2")
}
