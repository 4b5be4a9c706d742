// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/zebrarx/claimforge/pkg/errors"
	"github.com/zebrarx/claimforge/pkg/resilience"
	"github.com/zebrarx/claimforge/pkg/schema"
	"github.com/zebrarx/claimforge/pkg/telemetry"
)

// SchemaHeaderName is the response header through which the adjudicator
// names the schema its body conforms to. When absent, the client falls
// back to its configured default.
const SchemaHeaderName = "X-Claimforge-Schema"

const submitPath = "/claims"

// Client submits claim envelopes to a remote adjudicator over HTTP+JSON.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	headers        map[string]string
	reg            *schema.Registry
	responseSchema string
	retry          resilience.RetryConfig
	metrics        *Metrics
	store          *Store
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithHeaders sets default headers for each request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		if len(headers) == 0 {
			return
		}
		c.headers = make(map[string]string, len(headers))
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// WithResponseSchema sets the default schema responses are validated
// against.
func WithResponseSchema(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.responseSchema = name
		}
	}
}

// WithRetry enables retries for recoverable transport failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithMetrics wires OTEL submission metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithStore persists every submission result.
func WithStore(s *Store) Option {
	return func(c *Client) { c.store = s }
}

// New creates an adjudicator client. Responses are validated against the
// registry's exchange response schema unless overridden.
func New(baseURL string, reg *schema.Registry, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     http.DefaultClient,
		reg:            reg,
		responseSchema: SchemaResponse,
		retry:          resilience.DefaultRetryConfig().WithMaxAttempts(1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Send submits one envelope and validates the response.
//
// Transport failures are returned as TRANSPORT_ERROR alongside a result in
// state TRANSPORT_FAILED. A response that arrives but does not conform to
// its schema is not an error from Send's point of view: the result lands
// in VALIDATION_FAILED with the violation captured in ValidationErr.
func (c *Client) Send(ctx context.Context, sub *Submission) (*Result, error) {
	if sub == nil {
		return nil, errors.New(errors.CodeInvalidInput, "submission is required", nil)
	}

	ctx, span := otel.Tracer("claimforge/exchange").Start(ctx, "exchange.send",
		trace.WithAttributes(attribute.String(telemetry.AttrSubmissionMessageID, sub.MessageID)))
	defer span.End()

	result := newResult(sub.MessageID, c.responseSchema)
	start := time.Now()
	defer func() {
		result.CompletedAt = time.Now().UTC()
		span.SetAttributes(telemetry.SubmissionAttributes(result.MessageID, string(result.State), result.StatusCode, result.Attempts)...)
		c.metrics.RecordSubmission(ctx, result.State, time.Since(start))
		if c.store != nil {
			if err := c.store.Record(ctx, result); err != nil {
				slog.WarnContext(ctx, "recording submission result failed",
					"message_id", result.MessageID, "error", err)
			}
		}
	}()

	payload, err := json.Marshal(sub)
	if err != nil {
		// Even an encode failure leaves the result in a terminal state.
		_ = result.transition(StateTransportFailed)
		return result, errors.New(errors.CodeInternal, "encoding submission failed", err)
	}

	var (
		statusCode int
		body       []byte
		header     http.Header
	)
	attemptErr := c.retry.Do(ctx, func() error {
		result.Attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(payload))
		if err != nil {
			return errors.New(errors.CodeTransport, "building request failed", err).
				WithRecoverable(false)
		}
		req.Header.Set("Content-Type", "application/json")
		for key, value := range c.headers {
			req.Header.Set(key, value)
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.New(errors.CodeTransport, "request failed", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.New(errors.CodeTransport, "reading response body failed", err)
		}
		statusCode = resp.StatusCode
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			transportErr := errors.New(errors.CodeTransport,
				fmt.Sprintf("adjudicator returned %s", resp.Status), nil).
				WithContext("status_code", resp.StatusCode)
			if resp.StatusCode < 500 {
				// Client errors will not heal on retry.
				transportErr = transportErr.WithRecoverable(false)
			}
			return transportErr
		}
		body, header = raw, resp.Header
		return nil
	})
	result.StatusCode = statusCode
	if attemptErr != nil {
		span.RecordError(attemptErr)
		span.SetAttributes(telemetry.ErrorAttributes(attemptErr)...)
		_ = result.transition(StateTransportFailed)
		return result, attemptErr
	}

	result.SentAt = time.Now().UTC()
	if err := result.transition(StateSent); err != nil {
		return result, err
	}

	if name := header.Get(SchemaHeaderName); name != "" {
		result.SchemaName = name
	}

	var instance map[string]any
	if err := json.Unmarshal(body, &instance); err != nil {
		result.ValidationErr = errors.New(errors.CodeCodec, "response is not a JSON object", err)
		_ = result.transition(StateValidationFailed)
		return result, nil
	}
	result.Response = instance

	if err := schema.Validate(c.reg, result.SchemaName, instance); err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(err)...)
		result.ValidationErr = err
		_ = result.transition(StateValidationFailed)
		return result, nil
	}

	_ = result.transition(StateValidated)
	return result, nil
}
