package ports

import (
	"context"
	"math/big"

	"seapay/internal/core/domain"
)

// WalletProvider abstracts a signing backend capable of holding a key,
// reporting balances and sending token transfers.
type WalletProvider interface {
	Kind() domain.ProviderKind
	// Address returns the wallet's checksummed 0x address.
	Address() string
	// Balance fetches the current balance of the configured asset.
	Balance(ctx context.Context) (domain.AssetBalance, error)
	// Transfer sends amount (smallest units) of the configured asset.
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	// WaitForConfirmation blocks until the transfer identified by txHash
	// is confirmed on chain or ctx expires. Returns nil once confirmed, a
	// WAL_004 error when the transaction reverted, and ctx's error when
	// confirmation was not observed in time.
	WaitForConfirmation(ctx context.Context, txHash string) error
}

// TransferRequest holds validated input for an on-chain token transfer.
type TransferRequest struct {
	Recipient string
	Amount    *big.Int
}

// TransferResult is what the chain returned for a submitted transfer.
type TransferResult struct {
	TxHash    string
	Gasless   bool // true when the provider sponsored gas
	Confirmed bool // true when the provider waited for a receipt
}

// ProviderFactory builds a WalletProvider. Factories are tried in order
// during wallet initialization; a factory returning an identity-conflict
// error causes fallback to the next one.
type ProviderFactory interface {
	Kind() domain.ProviderKind
	New(ctx context.Context) (WalletProvider, error)
}

// WalletManager owns the lazily-initialized wallet singleton.
type WalletManager interface {
	// EnsureReady triggers initialization if needed and blocks until the
	// wallet reaches a terminal state or ctx is done. Safe for concurrent
	// use; construction happens at most once.
	EnsureReady(ctx context.Context) (WalletProvider, error)
	// Info reports the current snapshot without triggering initialization.
	Info() domain.WalletInfo
	// State reports the current lifecycle state.
	State() domain.WalletState
}
