// media-insight (minsight) - Media Insight CLI tool
// Copyright (C) 2026  Harrison Wang <https://mingest.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package inference turns a raw text generation capability into a call that
// always yields a structured record.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"media-insight/insight/record"
	"media-insight/insight/repair"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 3 * time.Second
)

// ErrUnavailable marks a generator that cannot serve any request at all
// (no credentials, no endpoint). It is not retried and propagates to callers.
var ErrUnavailable = errors.New("text generation capability unavailable")

var (
	errEmptyResponse     = errors.New("empty response")
	errMalformedResponse = errors.New("no structured record in response")
)

// TextGenerator produces raw text for a prompt. Implementations may return
// prose, fenced code or loose JSON; Client repairs whatever comes back.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to TextGenerator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Attempt describes one call to the generator.
type Attempt struct {
	Number int
	// Delay is the wait that preceded this attempt.
	Delay   time.Duration
	Elapsed time.Duration
	Failure FailureMode
	Err     error
}

// Outcome is the full result of Do.
type Outcome struct {
	Record   record.Record
	Attempts int
	Waited   time.Duration
	Failure  FailureMode
	Err      error
}

// Exhausted reports whether Record is the sentinel.
func (o Outcome) Exhausted() bool {
	return o.Failure != ""
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Option func(*Client)

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.maxAttempts = n
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(c *Client) {
		if d < 0 {
			d = 0
		}
		c.initialDelay = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers fn to receive every attempt as it finishes.
func WithObserver(fn func(Attempt)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// Client retries a TextGenerator with exponential backoff until its output
// repairs into a record. A Client holds no per-call state and may be shared.
type Client struct {
	gen          TextGenerator
	maxAttempts  int
	initialDelay time.Duration
	logger       *slog.Logger
	observer     func(Attempt)
	sleep        Sleeper
	tracer       trace.Tracer
}

func NewClient(gen TextGenerator, opts ...Option) *Client {
	c := &Client{
		gen:          gen,
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
		logger:       slog.Default(),
		sleep:        sleepContext,
		tracer:       otel.Tracer("media-insight/inference"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke returns the record repaired from the generator's reply, or the
// sentinel record once all attempts fail. The error is non-nil only when the
// generator reports ErrUnavailable; the record is the sentinel in that case too.
func (c *Client) Invoke(ctx context.Context, prompt string) (record.Record, error) {
	out := c.Do(ctx, prompt)
	if out.Failure == FailureUnavailable {
		return out.Record, out.Err
	}
	return out.Record, nil
}

// Do is Invoke with attempt accounting.
func (c *Client) Do(ctx context.Context, prompt string) Outcome {
	ctx, span := c.tracer.Start(ctx, "inference.invoke", trace.WithAttributes(
		attribute.Int("inference.max_attempts", c.maxAttempts),
		attribute.Int("inference.prompt_chars", len(prompt)),
	))
	defer span.End()

	schedule := c.schedule()
	var out Outcome
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		var delay time.Duration
		if attempt > 1 {
			delay = schedule.NextBackOff()
			if err := c.sleep(ctx, delay); err != nil {
				out.Failure, out.Err = FailureDeadline, err
				break
			}
			out.Waited += delay
		}
		if err := ctx.Err(); err != nil {
			out.Failure, out.Err = FailureDeadline, err
			break
		}

		start := time.Now()
		rec, mode, err := c.attempt(ctx, prompt)
		out.Attempts = attempt
		if mode != "" && ctx.Err() != nil {
			mode, err = FailureDeadline, fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		c.notify(Attempt{Number: attempt, Delay: delay, Elapsed: time.Since(start), Failure: mode, Err: err})

		if mode == "" {
			out.Record, out.Failure, out.Err = rec, "", nil
			span.SetAttributes(
				attribute.Int("inference.attempts", out.Attempts),
				attribute.Int64("inference.waited_ms", out.Waited.Milliseconds()),
			)
			return out
		}

		out.Failure, out.Err = mode, err
		c.logger.Warn("inference attempt failed",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"failure_mode", string(mode),
			"attempt_duration_ms", time.Since(start).Milliseconds(),
			"total_wait_time_ms", out.Waited.Milliseconds(),
			"error", err,
		)
		if mode == FailureUnavailable || mode == FailureDeadline {
			break
		}
	}

	out.Record = Sentinel(out.Failure, out.Err, out.Attempts)
	span.SetAttributes(
		attribute.Int("inference.attempts", out.Attempts),
		attribute.Int64("inference.waited_ms", out.Waited.Milliseconds()),
		attribute.String("inference.failure_mode", string(out.Failure)),
	)
	if out.Err != nil {
		span.RecordError(out.Err)
	}
	span.SetStatus(codes.Error, string(out.Failure))
	c.logger.Error("inference exhausted",
		"attempts", out.Attempts,
		"failure_mode", string(out.Failure),
		"total_wait_time_ms", out.Waited.Milliseconds(),
		"error", out.Err,
	)
	return out
}

func (c *Client) attempt(ctx context.Context, prompt string) (record.Record, FailureMode, error) {
	raw, err := c.gen.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, FailureUnavailable, err
		}
		return nil, FailureGeneration, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, FailureEmpty, errEmptyResponse
	}
	rec, ok := repair.Repair(raw)
	if !ok {
		return nil, FailureMalformed, fmt.Errorf("%w: %.120q", errMalformedResponse, raw)
	}
	return rec, "", nil
}

func (c *Client) notify(a Attempt) {
	if c.observer != nil {
		c.observer(a)
	}
}

// schedule yields initialDelay, then doubles it on every call.
func (c *Client) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
