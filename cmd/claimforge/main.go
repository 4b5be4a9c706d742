// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the Claimforge CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/zebrarx/claimforge/pkg/config"
	"github.com/zebrarx/claimforge/pkg/telemetry"
)

const version = "dev"

type globalFlags struct {
	ConfigArgs []string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.LoadWithCLI(global.ConfigArgs)
	if err != nil {
		fatalCLI(NewConfigError(err, findConfigPath(global.ConfigArgs)), global.JSON)
	}
	slog.SetDefault(telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format))

	switch args[0] {
	case "generate":
		runGenerate(ctx, global, cfg, args[1:])
	case "parse":
		runParse(ctx, global, cfg, args[1:])
	case "submit":
		runSubmit(ctx, global, cfg, args[1:])
	case "results":
		runResults(ctx, global, cfg, args[1:])
	case "schemas":
		runSchemas(global, cfg, args[1:])
	case "help":
		printUsage()
	case "version":
		printVersion(global.JSON)
	default:
		fatalCLI(NewInvalidArgumentError(args[0], fmt.Sprintf("unknown command %q", args[0])), global.JSON)
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case arg == "--set":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --set")
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

// findConfigPath extracts the config path from CLI args.
func findConfigPath(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// requestTimeout resolves the effective per-request timeout: the --timeout
// flag wins over exchange.timeout_seconds from config.
func requestTimeout(flags globalFlags, cfg *config.Config) time.Duration {
	if flags.Timeout > 0 {
		return flags.Timeout
	}
	if cfg.Exchange.TimeoutSeconds > 0 {
		return time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
}

func writeRow(writer *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		cols[i] = normalizeCell(col)
	}
	fmt.Fprintln(writer, strings.Join(cols, "\t"))
}

func normalizeCell(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return strings.Join(strings.Fields(value), " ")
}

func truncateCell(value string, limit int) string {
	value = normalizeCell(value)
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format(time.RFC3339)
}

func printVersion(asJSON bool) {
	if asJSON {
		printJSON(map[string]string{"version": version})
		return
	}
	fmt.Println(version)
}

func printUsage() {
	fmt.Print(`Claimforge CLI

Usage:
  claimforge [global flags] <command> [args]

Global flags:
  --config <path>      Path to claimforge.yaml
  --set key=value      Override config (repeatable)
  --timeout <dur>      Request timeout (overrides exchange.timeout_seconds)
  --json               JSON output

Commands:
  generate [--seed N] [--count N] [--wire] [--out <path>]
  parse [--in <path>]
  submit [--seed N] [--count N] [--in <path>]
  results [--state <state>] [--message <id>] [--limit N]
  schemas
  version

`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func fatalCLI(err *CLIError, asJSON bool) {
	err.PrintError(asJSON)
	os.Exit(1)
}
