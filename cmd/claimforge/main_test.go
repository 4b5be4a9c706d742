// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zebrarx/claimforge/pkg/config"
	"github.com/zebrarx/claimforge/pkg/ncpdp"
)

func TestParseGlobalFlags(t *testing.T) {
	flags, args, err := parseGlobalFlags([]string{
		"--json", "--timeout", "5s",
		"--config", "claimforge.yaml",
		"--set", "factory.seed=9",
		"generate", "--count", "3",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.JSON {
		t.Errorf("expected --json to be set")
	}
	if flags.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", flags.Timeout)
	}
	if len(flags.ConfigArgs) != 4 {
		t.Errorf("config args = %v", flags.ConfigArgs)
	}
	if len(args) != 3 || args[0] != "generate" {
		t.Errorf("remaining args = %v", args)
	}
}

func TestParseGlobalFlagsErrors(t *testing.T) {
	cases := [][]string{
		{"--config"},
		{"--set"},
		{"--timeout"},
		{"--timeout", "soon"},
		{"--verbose"},
	}
	for _, args := range cases {
		if _, _, err := parseGlobalFlags(args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestBuildRegistryWithExtraSchemas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	content := []byte(`schemas:
  audit.entry:
    fields:
      actor: str
      at: {type: str, pattern: "^\\d{8}$"}
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write schema file: %v", err)
	}

	cfg := &config.Config{}
	cfg.Schemas.Paths = []string{path}

	reg, err := buildRegistry(cfg)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	for _, name := range []string{ncpdp.SchemaClaim, "exchange.submission", "audit.entry"} {
		if _, err := reg.Resolve(name); err != nil {
			t.Errorf("schema %s not registered: %v", name, err)
		}
	}
}

func TestSummarizeClaim(t *testing.T) {
	cfg := &config.Config{}
	cfg.Factory = config.FactoryConfig{Count: 1, NullProbability: 0.25, SeqMin: 0, SeqMax: 5}

	reg, err := buildRegistry(cfg)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	claim, err := newClaimFactory(reg, cfg).Claim(context.Background(), 3)
	if err != nil {
		t.Fatalf("draw claim: %v", err)
	}

	summary, err := summarizeClaim(claim)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.RxBIN != claim.Header.RxBIN {
		t.Errorf("bin = %q, want %q", summary.RxBIN, claim.Header.RxBIN)
	}
	if summary.Wire == "" {
		t.Errorf("expected wire output")
	}
	if _, err := ncpdp.ParseClaim(summary.Wire); err != nil {
		t.Errorf("wire does not parse back: %v", err)
	}
}

func TestReadWireRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claims.txt")
	if err := os.WriteFile(path, []byte("record-one\n\nrecord-two\n"), 0o644); err != nil {
		t.Fatalf("write records: %v", err)
	}

	records, err := readWireRecords(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 || records[0] != "record-one" || records[1] != "record-two" {
		t.Errorf("records = %v", records)
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1999, "$19.99"},
		{-250, "-$2.50"},
	}
	for _, tc := range cases {
		if got := formatCents(tc.cents); got != tc.want {
			t.Errorf("formatCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestCLIErrorFormatting(t *testing.T) {
	cliErr := NewInvalidArgumentError("--count", "count must be positive")
	msg := cliErr.Error()
	if msg == "" {
		t.Fatalf("empty error message")
	}
	if cliErr.Hint == "" {
		t.Errorf("expected a hint")
	}
}
