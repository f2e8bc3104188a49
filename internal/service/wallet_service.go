package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

// confirmationWindow bounds how long a submitted transfer is watched for
// an on-chain outcome before it is left SUBMITTED for manual follow-up.
const confirmationWindow = 5 * time.Minute

// WalletServiceImpl orchestrates operator-approved spends: wallet
// readiness, human approval, a fresh balance check, the transfer itself
// and the journal entry.
type WalletServiceImpl struct {
	manager      ports.WalletManager
	gate         ports.ApprovalGate
	transferRepo ports.TransferRepository
	assetSymbol  string
	reserve      int64
	watchers     sync.WaitGroup
	log          zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. reserve is a balance
// floor in smallest asset units that spends may never dip into.
func NewWalletService(
	manager ports.WalletManager,
	gate ports.ApprovalGate,
	transferRepo ports.TransferRepository,
	assetSymbol string,
	reserve int64,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		manager:      manager,
		gate:         gate,
		transferRepo: transferRepo,
		assetSymbol:  assetSymbol,
		reserve:      reserve,
		log:          log.With().Str("component", "wallet_service").Logger(),
	}
}

var _ ports.WalletService = (*WalletServiceImpl)(nil)

// Info reports the wallet snapshot, triggering initialization if the
// wallet has not been touched yet.
func (s *WalletServiceImpl) Info(ctx context.Context) (domain.WalletInfo, error) {
	// A failed wallet still has a reportable state, so the init error is
	// deliberately dropped here.
	_, _ = s.manager.EnsureReady(ctx)
	return s.manager.Info(), nil
}

// Balance fetches the current on-chain balance.
func (s *WalletServiceImpl) Balance(ctx context.Context) (domain.AssetBalance, error) {
	provider, err := s.manager.EnsureReady(ctx)
	if err != nil {
		return domain.AssetBalance{}, err
	}
	return provider.Balance(ctx)
}

// Spend executes one approved outbound payment.
func (s *WalletServiceImpl) Spend(ctx context.Context, req ports.SpendRequest) (*domain.TransferRecord, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	provider, err := s.manager.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}

	summary := req.Summary
	if summary == "" {
		summary = fmt.Sprintf("send %d %s to %s", req.Amount, s.assetSymbol, req.Recipient)
	}
	decision, err := s.gate.Request(ctx, domain.ApprovalRequest{
		Summary:     summary,
		Amount:      req.Amount,
		AssetSymbol: s.assetSymbol,
		Recipient:   req.Recipient,
	})
	if err != nil {
		return nil, err
	}
	if decision.Outcome != domain.ApprovalOutcomeApproved {
		return nil, apperror.ErrApprovalRejected()
	}

	// Balance is re-read after approval: the operator may sit on the
	// request long enough for the balance to move. The spend must leave
	// the configured reserve untouched.
	required := big.NewInt(req.Amount + s.reserve)
	balance, err := provider.Balance(ctx)
	if err != nil {
		return nil, apperror.ErrWalletUnavailable(err)
	}
	if !balance.Covers(required) {
		return nil, apperror.ErrInsufficientFunds(required.String(), balance.Raw.String(), s.assetSymbol)
	}

	result, err := provider.Transfer(ctx, ports.TransferRequest{
		Recipient: req.Recipient,
		Amount:    big.NewInt(req.Amount),
	})
	if err != nil {
		// Nothing was broadcast, so there is no hash to report.
		return nil, apperror.ErrTransferFailed("", err)
	}

	record := &domain.TransferRecord{
		ID:          uuid.New(),
		TxHash:      result.TxHash,
		Recipient:   req.Recipient,
		Amount:      req.Amount,
		AssetSymbol: s.assetSymbol,
		Provider:    provider.Kind(),
		Status:      domain.TransferStatusSubmitted,
		Gasless:     result.Gasless,
		Reference:   req.Reference,
		CreatedAt:   time.Now().UTC(),
	}
	if result.Confirmed {
		now := time.Now().UTC()
		record.Status = domain.TransferStatusConfirmed
		record.ConfirmedAt = &now
	}

	if err := s.transferRepo.Create(ctx, record); err != nil {
		// The payment is already on-chain; losing the journal entry must
		// not fail the spend.
		s.log.Error().Err(err).Str("tx_hash", record.TxHash).Msg("journaling transfer failed")
	} else if record.Status == domain.TransferStatusSubmitted {
		s.watchers.Add(1)
		go func() {
			defer s.watchers.Done()
			s.watchConfirmation(provider, record.ID, record.TxHash)
		}()
	}

	s.log.Info().
		Str("tx_hash", record.TxHash).
		Str("recipient", record.Recipient).
		Int64("amount", record.Amount).
		Str("status", string(record.Status)).
		Msg("spend completed")
	return record, nil
}

// watchConfirmation finalizes a SUBMITTED journal entry once the chain
// reports the outcome. The spend response has already been sent; this
// only moves the record to CONFIRMED or FAILED.
func (s *WalletServiceImpl) watchConfirmation(provider ports.WalletProvider, id uuid.UUID, txHash string) {
	waitCtx, cancel := context.WithTimeout(context.Background(), confirmationWindow)
	defer cancel()
	err := provider.WaitForConfirmation(waitCtx, txHash)

	ctx, cancelUpdate := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelUpdate()

	switch {
	case err == nil:
		now := time.Now().UTC()
		if repoErr := s.transferRepo.UpdateStatus(ctx, id, domain.TransferStatusConfirmed, &now); repoErr != nil {
			s.log.Error().Err(repoErr).Str("tx_hash", txHash).Msg("recording transfer confirmation failed")
			return
		}
		s.log.Info().Str("tx_hash", txHash).Msg("transfer confirmed")
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.log.Warn().Str("tx_hash", txHash).Msg("confirmation not observed in time, transfer left submitted")
	default:
		s.log.Error().Err(err).Str("tx_hash", txHash).Msg("transfer failed after broadcast")
		if repoErr := s.transferRepo.UpdateStatus(ctx, id, domain.TransferStatusFailed, nil); repoErr != nil {
			s.log.Error().Err(repoErr).Str("tx_hash", txHash).Msg("recording transfer failure failed")
		}
	}
}

// ListTransfers pages through the journal.
func (s *WalletServiceImpl) ListTransfers(ctx context.Context, params ports.TransferListParams) ([]domain.TransferRecord, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.transferRepo.List(ctx, params)
}
