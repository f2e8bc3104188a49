package domain

import (
	"fmt"
	"math/big"
)

// WalletState represents the lifecycle state of the managed wallet.
type WalletState string

const (
	WalletStateUninitialized WalletState = "UNINITIALIZED"
	WalletStateInitializing  WalletState = "INITIALIZING"
	WalletStateReady         WalletState = "READY"    // primary provider active
	WalletStateDegraded      WalletState = "DEGRADED" // fallback provider active
	WalletStateFailed        WalletState = "FAILED"
)

// IsTerminal returns true once initialization can no longer change the state.
func (s WalletState) IsTerminal() bool {
	return s == WalletStateReady || s == WalletStateDegraded || s == WalletStateFailed
}

// Usable returns true if the wallet can sign and send payments.
func (s WalletState) Usable() bool {
	return s == WalletStateReady || s == WalletStateDegraded
}

// ProviderKind identifies which signing backend holds the wallet key.
type ProviderKind string

const (
	ProviderKindCustodial ProviderKind = "CUSTODIAL"
	ProviderKindLocalKey  ProviderKind = "LOCAL_KEY"
)

// WalletInfo is the operator-facing snapshot of the managed wallet.
type WalletInfo struct {
	Address string       `json:"address"`
	Kind    ProviderKind `json:"provider"`
	Network string       `json:"network"`
	State   WalletState  `json:"state"`
}

// AssetBalance is an on-chain token balance in the token's smallest unit.
type AssetBalance struct {
	Symbol   string   `json:"symbol"`
	Raw      *big.Int `json:"raw"`
	Decimals int      `json:"decimals"`
}

// Covers returns true if the balance is at least required smallest units.
func (b AssetBalance) Covers(required *big.Int) bool {
	if b.Raw == nil || required == nil {
		return false
	}
	return b.Raw.Cmp(required) >= 0
}

// Formatted renders the balance as a decimal string, e.g. "12.5".
func (b AssetBalance) Formatted() string {
	if b.Raw == nil {
		return "0"
	}
	if b.Decimals == 0 {
		return b.Raw.String()
	}
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(b.Decimals)), nil)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Set(b.Raw), div, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := fmt.Sprintf("%0*d", b.Decimals, frac)
	for len(fracStr) > 0 && fracStr[len(fracStr)-1] == '0' {
		fracStr = fracStr[:len(fracStr)-1]
	}
	return whole.String() + "." + fracStr
}
