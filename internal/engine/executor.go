// Package engine implements the triage workflow executor: an explicit
// step graph over a shared triage record, driven to a terminal step one
// pass at a time. Steps are re-entrant; multi-turn conversations are
// modeled as repeated passes over the caller's evolving record, never as
// in-process suspension.
package engine

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/rendis/triago/internal/logging"
	"github.com/rendis/triago/internal/lookup"
	"github.com/rendis/triago/internal/refdata"
	"github.com/rendis/triago/internal/reply"
	"github.com/rendis/triago/pkg/schema"
)

// GatePolicy selects how the executor treats an unresolved admin gate.
// Both behaviors exist in the wild; the policy makes the choice explicit.
type GatePolicy string

const (
	// GateHard ends the pass at the admin gate: no reply is drafted until
	// a valid decision arrives. This is the default.
	GateHard GatePolicy = "hard"

	// GateSoft always proceeds to draft a reply, even while needs_admin
	// is still true.
	GateSoft GatePolicy = "soft"
)

// DefaultMaxVisits bounds the number of steps executed in one pass. The
// graph is acyclic, so hitting the bound means a routing bug.
const DefaultMaxVisits = 16

// Outcome describes where a pass came to rest.
type Outcome string

const (
	OutcomeAwaitingTicket Outcome = "awaiting_ticket"
	OutcomeAwaitingAdmin  Outcome = "awaiting_admin"
	OutcomeCompleted      Outcome = "completed"
)

// Config holds executor configuration.
type Config struct {
	GatePolicy GatePolicy // admin gate behavior (default: GateHard)
	MaxVisits  int        // step visit budget per pass (default: DefaultMaxVisits)
}

// PassResult summarizes one executor pass.
type PassResult struct {
	PassID  string   `json:"pass_id"`
	Outcome Outcome  `json:"outcome"`
	Visited []StepID `json:"visited"`
}

// Executor runs the triage step graph. One record, one pass, single
// sequential owner: there is no concurrency within a pass and no
// executor-side state across passes.
type Executor struct {
	data     refdata.Provider
	lookup   *lookup.Tool
	renderer *reply.Renderer
	logger   *slog.Logger
	cfg      Config
}

// stepFunc advances the record and names the next step.
type stepFunc func(ctx context.Context, rec schema.TriageRecord) (schema.TriageRecord, StepID)

// NewExecutor creates an Executor with the given collaborators.
func NewExecutor(data refdata.Provider, tool *lookup.Tool, renderer *reply.Renderer, cfg Config, logger *slog.Logger) *Executor {
	if cfg.GatePolicy == "" {
		cfg.GatePolicy = GateHard
	}
	if cfg.MaxVisits <= 0 {
		cfg.MaxVisits = DefaultMaxVisits
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Executor{
		data:     data,
		lookup:   tool,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
	}
}

// steps returns the step table. Terminal identifiers have no entry.
func (e *Executor) steps() map[StepID]stepFunc {
	return map[StepID]stepFunc{
		StepIngest:      e.stepIngest,
		StepClassify:    e.stepClassify,
		StepFetchOrder:  e.stepFetchOrder,
		StepPropose:     e.stepPropose,
		StepAdminReview: e.stepAdminReview,
		StepDraftReply:  e.stepDraftReply,
	}
}

// Invoke runs one pass over the record, from ingest to a terminal step.
// The input record is never mutated; the returned record is the
// authoritative state the caller must round-trip into the next pass.
func (e *Executor) Invoke(ctx context.Context, rec schema.TriageRecord) (schema.TriageRecord, *PassResult, error) {
	passID := uuid.New().String()
	ctx = logging.WithPassID(ctx, passID)

	out := rec.Clone()
	table := e.steps()

	result := &PassResult{
		PassID:  passID,
		Visited: make([]StepID, 0, len(table)),
	}

	current := StepIngest
	for !IsTerminal(current) {
		if len(result.Visited) >= e.cfg.MaxVisits {
			return rec, nil, schema.NewErrorf(schema.ErrCodeStepLimit,
				"pass exceeded %d step visits", e.cfg.MaxVisits).
				WithStep(string(current))
		}

		fn, ok := table[current]
		if !ok {
			return rec, nil, schema.NewErrorf(schema.ErrCodeUnknownStep,
				"no step registered for %q", current)
		}

		stepCtx := logging.WithStepID(ctx, string(current))
		var next StepID
		out, next = fn(stepCtx, out)

		e.logger.DebugContext(stepCtx, "step visited", slog.String("next", string(next)))

		result.Visited = append(result.Visited, current)
		current = next
	}

	result.Outcome = outcomeFor(current)
	e.logger.InfoContext(ctx, "pass finished",
		slog.String("outcome", string(result.Outcome)),
		slog.Int("steps", len(result.Visited)),
	)
	return out, result, nil
}

func outcomeFor(terminal StepID) Outcome {
	switch terminal {
	case StepAwaitingInput:
		return OutcomeAwaitingTicket
	case StepAwaitingAdmin:
		return OutcomeAwaitingAdmin
	default:
		return OutcomeCompleted
	}
}
