package engine

import (
	"strings"

	"github.com/rendis/triago/pkg/schema"
)

// Routing predicates. Each is a pure function over the record: no
// mutation, deterministic for the same input.

// routeAfterIngest ends the pass early when no ticket text was supplied.
func routeAfterIngest(rec schema.TriageRecord) StepID {
	if strings.TrimSpace(rec.TicketText) == "" {
		return StepAwaitingInput
	}
	return StepClassify
}

// routeAfterClassify fetches the order only when an order ID is known.
func routeAfterClassify(rec schema.TriageRecord) StepID {
	if rec.OrderID != "" {
		return StepFetchOrder
	}
	return StepPropose
}

// routeAfterAdmin applies the configured gate policy. Under GateHard an
// unresolved admin gate is a resting state: the pass ends without a draft
// and the caller re-invokes with a decision. Under GateSoft the draft is
// produced regardless.
func routeAfterAdmin(rec schema.TriageRecord, policy GatePolicy) StepID {
	if policy == GateHard && rec.AwaitingAdmin() {
		return StepAwaitingAdmin
	}
	return StepDraftReply
}
