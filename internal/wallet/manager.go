// Package wallet manages the service's payment wallet: provider selection,
// lazy initialization and the signing backends themselves.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

// Manager owns the process-wide wallet. Construction is deferred until the
// first caller needs it and happens at most once; every caller observes the
// same terminal state afterwards.
type Manager struct {
	mu       sync.Mutex
	state    domain.WalletState
	provider ports.WalletProvider
	initErr  error
	started  bool
	done     chan struct{}

	factories   []ports.ProviderFactory
	network     string
	initTimeout time.Duration
	log         zerolog.Logger
}

var _ ports.WalletManager = (*Manager)(nil)

// NewManager builds a manager that tries factories in order. The first
// factory is the primary; reaching a later one leaves the wallet DEGRADED.
func NewManager(factories []ports.ProviderFactory, network string, initTimeout time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		state:       domain.WalletStateUninitialized,
		factories:   factories,
		network:     network,
		initTimeout: initTimeout,
		log:         log.With().Str("component", "wallet_manager").Logger(),
	}
}

// EnsureReady blocks until the wallet reaches a terminal state. The first
// caller starts construction on a separate goroutine; concurrent callers
// wait on the same completion signal. A caller whose ctx expires gives up
// waiting but does not abort construction.
func (m *Manager) EnsureReady(ctx context.Context) (ports.WalletProvider, error) {
	m.mu.Lock()
	if m.state.IsTerminal() {
		provider, initErr := m.provider, m.initErr
		m.mu.Unlock()
		return provider, initErr
	}
	if !m.started {
		m.started = true
		m.state = domain.WalletStateInitializing
		m.done = make(chan struct{})
		go m.initialize()
	}
	done := m.done
	m.mu.Unlock()

	select {
	case <-done:
		m.mu.Lock()
		provider, initErr := m.provider, m.initErr
		m.mu.Unlock()
		return provider, initErr
	case <-ctx.Done():
		return nil, apperror.ErrWalletUnavailable(ctx.Err())
	}
}

// initialize walks the factory chain. An identity conflict from the
// primary is expected when the owner already registered elsewhere; the
// chain falls through to the local key in that case.
func (m *Manager) initialize() {
	ctx, cancel := context.WithTimeout(context.Background(), m.initTimeout)
	defer cancel()

	var lastErr error
	for i, f := range m.factories {
		provider, err := f.New(ctx)
		if err == nil {
			state := domain.WalletStateReady
			if i > 0 {
				state = domain.WalletStateDegraded
			}
			m.finish(provider, state, nil)
			m.log.Info().
				Str("provider", string(f.Kind())).
				Str("address", provider.Address()).
				Str("state", string(state)).
				Msg("wallet initialized")
			return
		}

		lastErr = err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == "WAL_002" {
			m.log.Warn().
				Str("provider", string(f.Kind())).
				Msg("identity conflict, falling back to next provider")
			continue
		}
		m.log.Error().Err(err).
			Str("provider", string(f.Kind())).
			Msg("provider construction failed")
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no wallet providers configured")
	}
	m.finish(nil, domain.WalletStateFailed, apperror.ErrWalletUnavailable(lastErr))
	m.log.Error().Err(lastErr).Msg("wallet initialization failed")
}

func (m *Manager) finish(provider ports.WalletProvider, state domain.WalletState, initErr error) {
	m.mu.Lock()
	m.provider = provider
	m.state = state
	m.initErr = initErr
	close(m.done)
	m.mu.Unlock()
}

// State reports the current lifecycle state without blocking.
func (m *Manager) State() domain.WalletState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Info reports the current snapshot. Address and provider kind are empty
// until initialization completes.
func (m *Manager) Info() domain.WalletInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := domain.WalletInfo{
		Network: m.network,
		State:   m.state,
	}
	if m.provider != nil {
		info.Address = m.provider.Address()
		info.Kind = m.provider.Kind()
	}
	return info
}
