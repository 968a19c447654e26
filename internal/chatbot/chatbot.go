// Package chatbot drives one question-to-answer interaction through the
// translate, validate, execute and format steps. Each interaction is an
// independent unit of failure: errors never cross interactions and nothing
// here is process-fatal.
package chatbot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/melivision/chatbot/foundation/duckdb"
	"github.com/melivision/chatbot/internal/executor"
	"github.com/melivision/chatbot/internal/metrics"
	"github.com/melivision/chatbot/internal/sqlguard"
	"github.com/melivision/chatbot/internal/translator"
)

// State identifies where an interaction currently is. Answered and Failed
// are terminal.
type State string

const (
	StateReceived    State = "received"
	StateTranslating State = "translating"
	StateValidating  State = "validating"
	StateExecuting   State = "executing"
	StateFormatting  State = "formatting"
	StateAnswered    State = "answered"
	StateFailed      State = "failed"
)

// Kind classifies a failed interaction.
type Kind string

const (
	KindTranslation Kind = "translation"
	KindUnsafeQuery Kind = "unsafe_query"
	KindExecution   Kind = "execution"
)

// Result is what one interaction produces: either an answer with its
// supporting query and rows, or a failure kind with a short diagnostic and
// the step that failed.
type Result struct {
	State   State
	Step    State
	Kind    Kind
	Message string
	Answer  string
	SQL     string
	Columns []string
	Rows    [][]any
}

// =============================================================================

// Translator produces SQL text for a question.
type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

// Validator is the safety gate applied before execution.
type Validator interface {
	Validate(query string) error
}

// Runner executes a validated statement.
type Runner interface {
	Run(ctx context.Context, query string) (duckdb.ResultSet, error)
}

// Formatter renders the final answer. It must not fail.
type Formatter interface {
	Format(ctx context.Context, question string, rs duckdb.ResultSet) string
}

// Pipeline wires the four steps together.
type Pipeline struct {
	translator Translator
	validator  Validator
	runner     Runner
	formatter  Formatter
	log        *zap.Logger
}

func New(t Translator, v Validator, r Runner, f Formatter, log *zap.Logger) *Pipeline {
	return &Pipeline{
		translator: t,
		validator:  v,
		runner:     r,
		formatter:  f,
		log:        log,
	}
}

// Ask runs one interaction start to finish. The steps are strictly
// sequential; the generated query is executed at most once.
func (p *Pipeline) Ask(ctx context.Context, traceID string, question string) Result {
	log := p.log.With(zap.String("trace_id", traceID))

	step := func(s State) {
		log.Debug("state changed", zap.String("state", string(s)))
	}

	step(StateReceived)
	log.Info("interaction started", zap.String("question", question))

	step(StateTranslating)
	started := time.Now()
	query, err := p.translator.Translate(ctx, question)
	metrics.ObserveStep("translate", time.Since(started))
	if err != nil {
		return p.fail(log, StateTranslating, err)
	}
	log.Debug("query generated", zap.String("sql", query))

	// Rejected text is never executed.
	step(StateValidating)
	started = time.Now()
	err = p.validator.Validate(query)
	metrics.ObserveStep("validate", time.Since(started))
	if err != nil {
		return p.fail(log, StateValidating, err)
	}

	step(StateExecuting)
	started = time.Now()
	rs, err := p.runner.Run(ctx, query)
	metrics.ObserveStep("execute", time.Since(started))
	if err != nil {
		return p.fail(log, StateExecuting, err)
	}
	metrics.ObserveResultRows(rs.RowCount())

	// Formatting never fails the interaction.
	step(StateFormatting)
	started = time.Now()
	answer := p.formatter.Format(ctx, question, rs)
	metrics.ObserveStep("format", time.Since(started))

	metrics.ObserveInteraction("answered")
	log.Info("interaction answered", zap.Int("rows", rs.RowCount()))

	return Result{
		State:   StateAnswered,
		Answer:  answer,
		SQL:     query,
		Columns: rs.Columns,
		Rows:    rs.Rows,
	}
}

func (p *Pipeline) fail(log *zap.Logger, step State, err error) Result {
	kind := classify(err)

	metrics.ObserveInteraction(string(kind))
	log.Warn("interaction failed",
		zap.String("step", string(step)),
		zap.String("kind", string(kind)),
		zap.Error(err))

	return Result{
		State:   StateFailed,
		Step:    step,
		Kind:    kind,
		Message: err.Error(),
	}
}

func classify(err error) Kind {
	var trErr *translator.TranslationError
	if errors.As(err, &trErr) {
		return KindTranslation
	}

	var uqErr *sqlguard.UnsafeQueryError
	if errors.As(err, &uqErr) {
		return KindUnsafeQuery
	}

	var exErr *executor.ExecutionError
	if errors.As(err, &exErr) {
		return KindExecution
	}

	// Anything unclassified happened before or during execution.
	return KindExecution
}
