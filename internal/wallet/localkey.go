package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

// Minimal ERC-20 ABI: balanceOf for reads, transfer for spends.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

// erc20TransferGasLimit covers a standard token transfer with headroom.
const erc20TransferGasLimit = 100_000

// receiptPollInterval paces receipt lookups while waiting for a
// confirmation.
const receiptPollInterval = 2 * time.Second

var parsedERC20ABI abi.ABI

func init() {
	var err error
	parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(fmt.Sprintf("parsing ERC-20 ABI: %v", err))
	}
}

// ethBackend is the subset of ethclient.Client the provider needs.
// Narrowed for stubbing in tests.
type ethBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// LocalKeyConfig holds what the local signer needs to operate.
type LocalKeyConfig struct {
	PrivateKeyHex string
	RPCURL        string
	ChainID       int64
	AssetContract string
	AssetSymbol   string
	AssetDecimals int
}

// LocalKeyProvider signs transfers with an in-process secp256k1 key.
// The wallet pays its own gas; there is no sponsorship.
type LocalKeyProvider struct {
	key         *ecdsa.PrivateKey
	address     common.Address
	backend     ethBackend
	chainID     *big.Int
	token       common.Address
	symbol      string
	decimals    int
	receiptPoll time.Duration
	log         zerolog.Logger
}

var _ ports.WalletProvider = (*LocalKeyProvider)(nil)

// newLocalKeyProvider wires an already-dialed backend. Used directly by tests.
func newLocalKeyProvider(cfg LocalKeyConfig, backend ethBackend, log zerolog.Logger) (*LocalKeyProvider, error) {
	keyHex := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKeyHex), "0x")
	if keyHex == "" {
		return nil, fmt.Errorf("local key provider: private key not configured")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("local key provider: parsing private key: %w", err)
	}

	return &LocalKeyProvider{
		key:         key,
		address:     crypto.PubkeyToAddress(key.PublicKey),
		backend:     backend,
		chainID:     big.NewInt(cfg.ChainID),
		token:       common.HexToAddress(cfg.AssetContract),
		symbol:      cfg.AssetSymbol,
		decimals:    cfg.AssetDecimals,
		receiptPoll: receiptPollInterval,
		log:         log.With().Str("component", "localkey_provider").Logger(),
	}, nil
}

func (p *LocalKeyProvider) Kind() domain.ProviderKind { return domain.ProviderKindLocalKey }

func (p *LocalKeyProvider) Address() string { return p.address.Hex() }

// Balance reads the token balance via eth_call against the latest block.
func (p *LocalKeyProvider) Balance(ctx context.Context) (domain.AssetBalance, error) {
	callData, err := parsedERC20ABI.Pack("balanceOf", p.address)
	if err != nil {
		return domain.AssetBalance{}, fmt.Errorf("packing balanceOf call: %w", err)
	}

	raw, err := p.backend.CallContract(ctx, ethereum.CallMsg{To: &p.token, Data: callData}, nil)
	if err != nil {
		return domain.AssetBalance{}, fmt.Errorf("calling balanceOf: %w", err)
	}

	unpacked, err := parsedERC20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return domain.AssetBalance{}, fmt.Errorf("unpacking balanceOf result: %w", err)
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok {
		return domain.AssetBalance{}, fmt.Errorf("unexpected balanceOf result type %T", unpacked[0])
	}

	return domain.AssetBalance{
		Symbol:   p.symbol,
		Raw:      balance,
		Decimals: p.decimals,
	}, nil
}

// Transfer signs and broadcasts an EIP-1559 ERC-20 transfer. It returns
// as soon as the transaction is in the mempool; WaitForConfirmation
// observes the receipt.
func (p *LocalKeyProvider) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	recipient := common.HexToAddress(req.Recipient)
	callData, err := parsedERC20ABI.Pack("transfer", recipient, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("packing transfer call: %w", err)
	}

	nonce, err := p.backend.PendingNonceAt(ctx, p.address)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}
	tip, err := p.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas tip cap: %w", err)
	}
	gasPrice, err := p.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas price: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   p.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: new(big.Int).Add(gasPrice, tip),
		Gas:       erc20TransferGasLimit,
		To:        &p.token,
		Value:     big.NewInt(0),
		Data:      callData,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	if err := p.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}

	p.log.Info().
		Str("tx_hash", signed.Hash().Hex()).
		Str("recipient", recipient.Hex()).
		Str("amount", req.Amount.String()).
		Msg("transfer broadcast")

	return &ports.TransferResult{
		TxHash:    signed.Hash().Hex(),
		Gasless:   false,
		Confirmed: false,
	}, nil
}

// WaitForConfirmation polls for the transaction receipt until ctx
// expires. A reverted transaction surfaces as WAL_004 carrying the hash.
func (p *LocalKeyProvider) WaitForConfirmation(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(p.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return apperror.ErrTransferFailed(txHash, errors.New("transaction reverted on chain"))
			}
			p.log.Info().
				Str("tx_hash", txHash).
				Uint64("block", receipt.BlockNumber.Uint64()).
				Msg("transfer confirmed")
			return nil
		case errors.Is(err, ethereum.NotFound):
			// Still pending.
		default:
			p.log.Warn().Err(err).Str("tx_hash", txHash).Msg("receipt lookup failed, retrying")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LocalKeyFactory dials the RPC endpoint on demand and builds the provider.
type LocalKeyFactory struct {
	cfg LocalKeyConfig
	log zerolog.Logger
}

func NewLocalKeyFactory(cfg LocalKeyConfig, log zerolog.Logger) *LocalKeyFactory {
	return &LocalKeyFactory{cfg: cfg, log: log}
}

var _ ports.ProviderFactory = (*LocalKeyFactory)(nil)

func (f *LocalKeyFactory) Kind() domain.ProviderKind { return domain.ProviderKindLocalKey }

func (f *LocalKeyFactory) New(ctx context.Context) (ports.WalletProvider, error) {
	eth, err := ethclient.DialContext(ctx, f.cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing rpc endpoint: %w", err)
	}
	return newLocalKeyProvider(f.cfg, eth, f.log)
}
