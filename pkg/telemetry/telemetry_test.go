// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/zebrarx/claimforge/pkg/errors"
)

func TestConfigureSlogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "json")

	logger.Info("should be filtered")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Errorf("info record leaked through warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn record missing from output")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitStdoutAndShutdown(t *testing.T) {
	shutdown, err := Init("claimforge-test", "0.0.1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitOTLPRequiresEndpoint(t *testing.T) {
	if _, err := InitWithConfig("claimforge-test", "0.0.1", Config{Exporter: "otlp"}); err == nil {
		t.Errorf("expected error for missing otlp endpoint")
	}
}

func TestInitUnknownExporter(t *testing.T) {
	if _, err := InitWithConfig("claimforge-test", "0.0.1", Config{Exporter: "carrier-pigeon"}); err == nil {
		t.Errorf("expected error for unknown exporter")
	}
}

func TestErrorAttributes(t *testing.T) {
	err := errors.New(errors.CodeTransport, "request failed", nil).
		WithAttribute("message_id", "msg-1")

	attrs := ErrorAttributes(err)
	found := map[string]bool{}
	for _, attr := range attrs {
		found[string(attr.Key)] = true
	}
	for _, key := range []string{AttrErrorCode, AttrErrorRecoverable, "claimforge.error.message_id"} {
		if !found[key] {
			t.Errorf("missing attribute %s", key)
		}
	}

	if got := ErrorAttributes(nil); got != nil {
		t.Errorf("expected nil attributes for nil error")
	}
}

func TestGenerationMetricsNilSafe(t *testing.T) {
	var gm *GenerationMetrics
	gm.RecordGeneration(context.Background(), "ncpdp.claim", 10, time.Millisecond)
	gm.RecordError(context.Background(), errors.New(errors.CodeInternal, "boom", nil), "factory")
}
