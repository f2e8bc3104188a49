// Package approval implements the human sign-off step for outbound spends.
package approval

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

// slot is one parked request. done carries the decision exactly once.
type slot struct {
	req      domain.ApprovalRequest
	done     chan domain.ApprovalDecision
	resolved bool
}

// Gate holds at most one spend awaiting an operator decision. A second
// request while the slot is occupied fails fast instead of queueing, so
// the operator always sees a single question at a time.
type Gate struct {
	mu      sync.Mutex
	current *slot
	timeout time.Duration
	log     zerolog.Logger
}

// NewGate builds a gate with the given decision timeout.
func NewGate(timeout time.Duration, log zerolog.Logger) *Gate {
	return &Gate{
		timeout: timeout,
		log:     log.With().Str("component", "approval_gate").Logger(),
	}
}

var _ ports.ApprovalGate = (*Gate)(nil)

// Request parks req and blocks until resolution, timeout or ctx cancel.
func (g *Gate) Request(ctx context.Context, req domain.ApprovalRequest) (*domain.ApprovalDecision, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	now := time.Now().UTC()
	req.RequestedAt = now
	req.ExpiresAt = now.Add(g.timeout)

	s := &slot{
		req:  req,
		done: make(chan domain.ApprovalDecision, 1),
	}

	g.mu.Lock()
	if g.current != nil {
		g.mu.Unlock()
		return nil, apperror.ErrApprovalAlreadyPending()
	}
	g.current = s
	g.mu.Unlock()

	g.log.Info().
		Str("request_id", req.ID.String()).
		Int64("amount", req.Amount).
		Str("recipient", req.Recipient).
		Msg("approval requested")

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case d := <-s.done:
		return &d, nil

	case <-timer.C:
		if g.abandon(s) {
			g.log.Warn().Str("request_id", req.ID.String()).Msg("approval timed out")
			return nil, apperror.ErrApprovalTimedOut()
		}
		// An operator resolved it in the same instant; honor the decision.
		d := <-s.done
		return &d, nil

	case <-ctx.Done():
		if g.abandon(s) {
			return nil, ctx.Err()
		}
		d := <-s.done
		return &d, nil
	}
}

// abandon vacates the slot if s is still pending. Returns false when the
// request was already resolved, in which case the decision must be read.
func (g *Gate) abandon(s *slot) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s.resolved {
		return false
	}
	s.resolved = true
	if g.current == s {
		g.current = nil
	}
	return true
}

// Resolve answers the pending request by id. A stale or unknown id is a
// no-op and returns APR_003.
func (g *Gate) Resolve(id uuid.UUID, outcome domain.ApprovalOutcome, note string) error {
	g.mu.Lock()
	s := g.current
	if s == nil || s.resolved || s.req.ID != id {
		g.mu.Unlock()
		return apperror.ErrNoMatchingRequest()
	}
	s.resolved = true
	g.current = nil
	g.mu.Unlock()

	s.done <- domain.ApprovalDecision{
		RequestID: id,
		Outcome:   outcome,
		Note:      note,
		DecidedAt: time.Now().UTC(),
	}

	g.log.Info().
		Str("request_id", id.String()).
		Str("outcome", string(outcome)).
		Msg("approval resolved")
	return nil
}

// Pending returns a copy of the request currently occupying the slot.
func (g *Gate) Pending() (*domain.ApprovalRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil, false
	}
	req := g.current.req
	return &req, true
}
