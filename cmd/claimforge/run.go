// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zebrarx/claimforge/pkg/config"
	"github.com/zebrarx/claimforge/pkg/exchange"
	"github.com/zebrarx/claimforge/pkg/factory"
	"github.com/zebrarx/claimforge/pkg/ncpdp"
	"github.com/zebrarx/claimforge/pkg/resilience"
	"github.com/zebrarx/claimforge/pkg/schema"
	"github.com/zebrarx/claimforge/pkg/telemetry"
)

// claimSummary is the flattened claim view emitted by generate and parse.
type claimSummary struct {
	RxBIN             string `json:"rx_bin"`
	Version           string `json:"version"`
	TransactionCode   string `json:"transaction_code"`
	ServiceProviderID string `json:"service_provider_id"`
	ServiceDate       string `json:"service_date"`
	RxNumber          string `json:"rx_number,omitempty"`
	ProductServiceID  string `json:"product_service_id,omitempty"`
	GrossAmountDue    string `json:"gross_amount_due,omitempty"`
	Wire              string `json:"wire"`
}

type submitSummary struct {
	MessageID  string `json:"message_id"`
	State      string `json:"state"`
	StatusCode int    `json:"status_code,omitempty"`
	Attempts   int    `json:"attempts"`
	Schema     string `json:"schema,omitempty"`
	Error      string `json:"error,omitempty"`
}

// buildRegistry assembles the schema registry: built-in claim and exchange
// schemas first, then any extra YAML schema files from config.
func buildRegistry(cfg *config.Config) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	if err := ncpdp.RegisterSchemas(reg); err != nil {
		return nil, err
	}
	if err := exchange.RegisterSchemas(reg); err != nil {
		return nil, err
	}
	for _, path := range cfg.Schemas.Paths {
		if err := schema.LoadFile(reg, path); err != nil {
			return nil, fmt.Errorf("loading schemas from %s: %w", path, err)
		}
	}
	return reg, nil
}

func newClaimFactory(reg *schema.Registry, cfg *config.Config) *ncpdp.Factory {
	fac := ncpdp.NewFactory(reg,
		factory.WithSequenceBounds(cfg.Factory.SeqMin, cfg.Factory.SeqMax),
		factory.WithNullProbability(cfg.Factory.NullProbability),
	)
	if metrics, err := telemetry.NewGenerationMetrics(); err == nil {
		fac = fac.WithMetrics(metrics)
	}
	return fac
}

func runGenerate(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	seed := cmd.Int64("seed", cfg.Factory.Seed, "Deterministic generation seed")
	count := cmd.Int("count", cfg.Factory.Count, "Number of claims to generate")
	wire := cmd.Bool("wire", false, "Emit raw telecom records instead of a summary")
	outPath := cmd.String("out", "", "Write output to file instead of stdout")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		fatalCLI(NewRegistryError(err), flags.JSON)
	}

	claims, err := newClaimFactory(reg, cfg).Claims(ctx, *seed, *count)
	if err != nil {
		fatal(err)
	}

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			fatal(err)
		}
		defer file.Close()
		out = file
	}

	if *wire {
		for _, claim := range claims {
			raw, err := claim.Serialize()
			if err != nil {
				fatal(err)
			}
			fmt.Fprintln(out, raw)
		}
		return
	}

	summaries := make([]claimSummary, 0, len(claims))
	for _, claim := range claims {
		summary, err := summarizeClaim(claim)
		if err != nil {
			fatal(err)
		}
		summaries = append(summaries, summary)
	}

	if flags.JSON {
		printJSON(summaries)
		return
	}
	writer := newTabWriter()
	writeRow(writer, "BIN", "TXN", "PROVIDER", "DATE", "RX", "NDC", "GROSS")
	for _, s := range summaries {
		writeRow(writer, s.RxBIN, s.TransactionCode, s.ServiceProviderID, s.ServiceDate, s.RxNumber, s.ProductServiceID, s.GrossAmountDue)
	}
	_ = writer.Flush()
}

func runParse(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("parse", flag.ContinueOnError)
	inPath := cmd.String("in", "", "Read telecom records from file (default stdin)")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	records, err := readWireRecords(*inPath)
	if err != nil {
		fatal(err)
	}
	if len(records) == 0 {
		fatalCLI(NewInvalidArgumentError("--in", "no transaction records found"), flags.JSON)
	}

	claims := make([]*ncpdp.Claim, 0, len(records))
	for _, raw := range records {
		claim, err := ncpdp.ParseClaim(raw)
		if err != nil {
			source := *inPath
			if source == "" {
				source = "stdin"
			}
			fatalCLI(WrapCodecError(err, source), flags.JSON)
		}
		claims = append(claims, claim)
	}

	if flags.JSON {
		printJSON(claims)
		return
	}
	for i, claim := range claims {
		if i > 0 {
			fmt.Println()
		}
		printClaim(claim)
	}
}

func runSubmit(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("submit", flag.ContinueOnError)
	seed := cmd.Int64("seed", cfg.Factory.Seed, "Deterministic generation seed")
	count := cmd.Int("count", cfg.Factory.Count, "Number of claims to submit")
	inPath := cmd.String("in", "", "Submit telecom records from file instead of generating")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		fatalCLI(NewRegistryError(err), flags.JSON)
	}

	var claims []*ncpdp.Claim
	if *inPath != "" {
		records, err := readWireRecords(*inPath)
		if err != nil {
			fatal(err)
		}
		for _, raw := range records {
			claim, err := ncpdp.ParseClaim(raw)
			if err != nil {
				fatalCLI(WrapCodecError(err, *inPath), flags.JSON)
			}
			claims = append(claims, claim)
		}
	} else {
		claims, err = newClaimFactory(reg, cfg).Claims(ctx, *seed, *count)
		if err != nil {
			fatal(err)
		}
	}
	if len(claims) == 0 {
		fatalCLI(NewInvalidArgumentError("--in", "no claims to submit"), flags.JSON)
	}

	shutdown, err := telemetry.InitWithConfig("claimforge", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(fmt.Errorf("failed to init telemetry: %w", err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
	}()

	client, closeStore, err := newExchangeClient(cfg, reg)
	if err != nil {
		fatal(err)
	}
	defer closeStore()

	timeout := requestTimeout(flags, cfg)
	summaries := make([]submitSummary, 0, len(claims))
	failed := false
	for _, claim := range claims {
		sub, err := exchange.NewSubmission(claim, submissionOptions(cfg)...)
		if err != nil {
			fatal(err)
		}

		var result *exchange.Result
		err = resilience.WithTimeout(ctx, resilience.TimeoutConfig{Duration: timeout}, func(ctx context.Context) error {
			var sendErr error
			result, sendErr = client.Send(ctx, sub)
			return sendErr
		})

		summary := submitSummary{MessageID: sub.MessageID}
		if result != nil {
			summary.State = string(result.State)
			summary.StatusCode = result.StatusCode
			summary.Attempts = result.Attempts
			summary.Schema = result.SchemaName
			if result.ValidationErr != nil {
				summary.Error = result.ValidationErr.Error()
			}
		}
		if err != nil {
			failed = true
			summary.Error = err.Error()
			if summary.State == "" {
				summary.State = string(exchange.StateTransportFailed)
			}
		}
		summaries = append(summaries, summary)
	}

	if flags.JSON {
		printJSON(summaries)
	} else {
		writer := newTabWriter()
		writeRow(writer, "MESSAGE_ID", "STATE", "STATUS", "ATTEMPTS", "ERROR")
		for _, s := range summaries {
			writeRow(writer, s.MessageID, s.State, formatStatus(s.StatusCode), fmt.Sprintf("%d", s.Attempts), truncateCell(s.Error, 80))
		}
		_ = writer.Flush()
	}
	if failed {
		os.Exit(1)
	}
}

func runResults(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("results", flag.ContinueOnError)
	state := cmd.String("state", "", "State filter (PENDING, SENT, VALIDATED, VALIDATION_FAILED, TRANSPORT_FAILED)")
	messageID := cmd.String("message", "", "Message ID filter")
	limit := cmd.Int("limit", 0, "Maximum number of results")
	if err := cmd.Parse(args); err != nil {
		fatal(err)
	}

	if cfg.Store.Path == "" {
		fatalCLI(NewInvalidArgumentError("store.path", "no result store configured"),
			flags.JSON)
	}

	db, err := sql.Open("sqlite", cfg.Store.Path)
	if err != nil {
		fatal(err)
	}
	defer db.Close()

	store, err := exchange.NewStore(db)
	if err != nil {
		fatal(err)
	}

	results, err := store.List(ctx, exchange.Filter{
		MessageID: *messageID,
		State:     exchange.State(strings.ToUpper(strings.TrimSpace(*state))),
		Limit:     *limit,
	})
	if err != nil {
		fatal(err)
	}

	if flags.JSON {
		summaries := make([]submitSummary, 0, len(results))
		for _, r := range results {
			s := submitSummary{
				MessageID:  r.MessageID,
				State:      string(r.State),
				StatusCode: r.StatusCode,
				Attempts:   r.Attempts,
				Schema:     r.SchemaName,
			}
			if r.ValidationErr != nil {
				s.Error = r.ValidationErr.Error()
			}
			summaries = append(summaries, s)
		}
		printJSON(summaries)
		return
	}

	writer := newTabWriter()
	writeRow(writer, "MESSAGE_ID", "STATE", "STATUS", "ATTEMPTS", "COMPLETED", "ERROR")
	for _, r := range results {
		errText := ""
		if r.ValidationErr != nil {
			errText = r.ValidationErr.Error()
		}
		writeRow(writer, r.MessageID, string(r.State), formatStatus(r.StatusCode),
			fmt.Sprintf("%d", r.Attempts), formatTime(r.CompletedAt), truncateCell(errText, 60))
	}
	_ = writer.Flush()
}

func runSchemas(flags globalFlags, cfg *config.Config, args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}
	reg, err := buildRegistry(cfg)
	if err != nil {
		fatalCLI(NewRegistryError(err), flags.JSON)
	}

	names := reg.Names()
	if flags.JSON {
		printJSON(map[string]any{"schemas": names})
		return
	}
	writer := newTabWriter()
	writeRow(writer, "SCHEMA", "FIELDS")
	for _, name := range names {
		s, err := reg.Resolve(name)
		if err != nil {
			fatal(err)
		}
		writeRow(writer, name, fmt.Sprintf("%d", len(s.Fields)))
	}
	_ = writer.Flush()
}

// newExchangeClient wires the client from config: response schema, retry
// policy, metrics, and the optional SQLite result store. The returned
// closer releases the store handle.
func newExchangeClient(cfg *config.Config, reg *schema.Registry) (*exchange.Client, func(), error) {
	opts := []exchange.Option{
		exchange.WithResponseSchema(cfg.Exchange.ResponseSchema),
	}
	if cfg.Exchange.RetryAttempts > 1 {
		opts = append(opts, exchange.WithRetry(
			resilience.DefaultRetryConfig().WithMaxAttempts(cfg.Exchange.RetryAttempts)))
	}
	if metrics, err := exchange.NewMetrics(); err == nil {
		opts = append(opts, exchange.WithMetrics(metrics))
	}

	closeStore := func() {}
	if cfg.Store.Path != "" {
		db, err := sql.Open("sqlite", cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		store, err := exchange.NewStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		opts = append(opts, exchange.WithStore(store))
		closeStore = func() { db.Close() }
	}

	return exchange.New(cfg.Exchange.BaseURL, reg, opts...), closeStore, nil
}

func submissionOptions(cfg *config.Config) []exchange.SubmissionOption {
	var opts []exchange.SubmissionOption
	if cfg.Exchange.IsDebug {
		opts = append(opts, exchange.WithDebug())
	}
	if cfg.Exchange.IgnoreSAS {
		opts = append(opts, exchange.WithIgnoreSAS())
	}
	if cfg.Exchange.WebPricing {
		opts = append(opts, exchange.WithWebPricing())
	}
	return opts
}

// readWireRecords reads newline-delimited telecom transactions from the
// file, or stdin when path is empty. Blank lines are skipped.
func readWireRecords(path string) ([]string, error) {
	input := io.Reader(os.Stdin)
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		input = file
	}

	var records []string
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func summarizeClaim(claim *ncpdp.Claim) (claimSummary, error) {
	raw, err := claim.Serialize()
	if err != nil {
		return claimSummary{}, err
	}
	summary := claimSummary{
		RxBIN:             claim.Header.RxBIN,
		Version:           string(claim.Header.Version),
		TransactionCode:   string(claim.Header.TransactionCode),
		ServiceProviderID: claim.Header.ServiceProviderID,
		ServiceDate:       claim.Header.ServiceDate,
		Wire:              raw,
	}
	if claim.Claim != nil {
		summary.RxNumber = claim.Claim.RxServiceReferenceNumber
		summary.ProductServiceID = claim.Claim.ProductServiceID
	}
	if claim.Pricing != nil {
		if amounts, err := claim.Pricing.Decode(); err == nil {
			summary.GrossAmountDue = formatCents(amounts.GrossAmountDue)
		}
	}
	return summary, nil
}

func printClaim(claim *ncpdp.Claim) {
	h := claim.Header
	fmt.Printf("BIN %s  version %s  transaction %s  provider %s (%s)  date %s\n",
		h.RxBIN, h.Version, h.TransactionCode, h.ServiceProviderID, h.ServiceProviderIDQual, h.ServiceDate)
	if claim.Patient != nil {
		fmt.Printf("  patient: %s %s  dob %s\n", claim.Patient.FirstName, claim.Patient.LastName, claim.Patient.DOB)
	}
	if claim.Claim != nil {
		fmt.Printf("  claim: rx %s  ndc %s  qty %s  days %s\n",
			claim.Claim.RxServiceReferenceNumber, claim.Claim.ProductServiceID,
			claim.Claim.QuantityDispensed, claim.Claim.DaysSupply)
	}
	if claim.Pricing != nil {
		if amounts, err := claim.Pricing.Decode(); err == nil {
			fmt.Printf("  pricing: ingredient %s  fee %s  gross %s\n",
				formatCents(amounts.IngredientCost), formatCents(amounts.DispensingFee),
				formatCents(amounts.GrossAmountDue))
		}
	}
	if claim.Prescriber != nil {
		fmt.Printf("  prescriber: %s %s\n", claim.Prescriber.IDQualifier, claim.Prescriber.ID)
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func formatStatus(code int) string {
	if code == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", code)
}
