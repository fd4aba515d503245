// Package aisearch answers free-text questions about the catalog using
// a text-generation backend, constrained to the supplied release notes.
//
// Three outcomes are distinguishable:
//   - a real answer from the generator,
//   - a labelled fallback answer when no generator is configured,
//   - ErrUpstream when the generator call fails.
package aisearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/catalog"
)

var (
	// ErrEmptyQuery is returned for a missing or blank question.
	ErrEmptyQuery = errors.New("query is required")

	// ErrUpstream wraps every generator failure. Callers show a generic
	// message instead of the wrapped error.
	ErrUpstream = errors.New("could not get an answer from the text generation backend")
)

// FailureMessage is the user-facing text for ErrUpstream.
const FailureMessage = "Sorry, I couldn't get an answer. Please try again."

// Generator is a single text-generation call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend and model in logs.
	Name() string
}

// Outcome labels how a call to Ask ended.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
	OutcomeRejected Outcome = "rejected"
)

// Answer is the markdown result of a query.
type Answer struct {
	Query string `json:"query"`
	Text  string `json:"answer"`
	// Fallback is true when Text is the mock answer.
	Fallback bool `json:"fallback"`
}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers a callback invoked once per Ask.
func WithObserver(fn func(Outcome, time.Duration)) Option {
	return func(s *Service) { s.observe = fn }
}

// Service runs queries. A nil generator puts it in fallback mode.
// Each call is independent: no retries and no caching.
type Service struct {
	gen     Generator
	log     *zap.Logger
	observe func(Outcome, time.Duration)
}

// New creates a Service. A nil logger disables logging.
func New(gen Generator, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{gen: gen, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a real generator is wired in.
func (s *Service) Configured() bool {
	return s.gen != nil
}

// Ask answers query from products only. It blocks on the generator and
// honours ctx cancellation.
func (s *Service) Ask(ctx context.Context, query string, products []catalog.Product) (Answer, error) {
	start := time.Now()
	outcome := OutcomeAnswered
	defer func() {
		if s.observe != nil {
			s.observe(outcome, time.Since(start))
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		outcome = OutcomeRejected
		return Answer{}, ErrEmptyQuery
	}

	if s.gen == nil {
		outcome = OutcomeFallback
		s.log.Warn("no AI credential configured, returning mock answer")
		return Answer{Query: query, Text: FallbackAnswer(query), Fallback: true}, nil
	}

	prompt := BuildPrompt(query, products)
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		outcome = OutcomeFailed
		s.log.Error("text generation failed",
			zap.String("backend", s.gen.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return Answer{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	s.log.Debug("text generation finished",
		zap.String("backend", s.gen.Name()),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Duration("elapsed", time.Since(start)))
	return Answer{Query: query, Text: text}, nil
}
