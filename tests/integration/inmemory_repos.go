package integration

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/internal/x402"

	"github.com/google/uuid"
)

// --- In-memory TransferRepository ---

type inMemoryTransferRepo struct {
	mu        sync.Mutex
	transfers map[uuid.UUID]domain.TransferRecord
}

func newInMemoryTransferRepo() *inMemoryTransferRepo {
	return &inMemoryTransferRepo{transfers: make(map[uuid.UUID]domain.TransferRecord)}
}

func (r *inMemoryTransferRepo) Create(_ context.Context, t *domain.TransferRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers[t.ID] = *t
	return nil
}

func (r *inMemoryTransferRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *inMemoryTransferRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TransferStatus, confirmedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transfers[id]
	if !ok {
		return fmt.Errorf("transfer not found: %s", id)
	}
	t.Status = status
	t.ConfirmedAt = confirmedAt
	r.transfers[id] = t
	return nil
}

func (r *inMemoryTransferRepo) List(_ context.Context, params ports.TransferListParams) ([]domain.TransferRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []domain.TransferRecord
	for _, t := range r.transfers {
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (params.Page - 1) * params.PageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// --- In-memory ReservationRepository ---

type inMemoryReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]domain.Reservation
}

func newInMemoryReservationRepo() *inMemoryReservationRepo {
	return &inMemoryReservationRepo{reservations: make(map[uuid.UUID]domain.Reservation)}
}

func (r *inMemoryReservationRepo) Create(_ context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[res.ID] = *res
	return nil
}

func (r *inMemoryReservationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *inMemoryReservationRepo) GetByStay(_ context.Context, resourceID, guestName string, checkIn time.Time) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.reservations {
		if res.ResourceID == resourceID && res.GuestName == guestName &&
			res.CheckIn.Equal(checkIn) && res.Status != domain.ReservationStatusFailed {
			out := res
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryReservationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ReservationStatus, settleTx string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("reservation not found: %s", id)
	}
	res.Status = status
	res.SettleTx = settleTx
	r.reservations[id] = res
	return nil
}

func (r *inMemoryReservationRepo) List(_ context.Context, page, pageSize int) ([]domain.Reservation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []domain.Reservation
	for _, res := range r.reservations {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// --- Stub wallet provider ---

// stubProvider behaves like a funded custodial wallet.
type stubProvider struct {
	mu      sync.Mutex
	balance *big.Int
}

func newStubProvider(balance int64) *stubProvider {
	return &stubProvider{balance: big.NewInt(balance)}
}

func (p *stubProvider) Kind() domain.ProviderKind { return domain.ProviderKindCustodial }
func (p *stubProvider) Address() string           { return "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" }

func (p *stubProvider) Balance(context.Context) (domain.AssetBalance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.AssetBalance{Symbol: "USDC", Raw: new(big.Int).Set(p.balance), Decimals: 6}, nil
}

func (p *stubProvider) Transfer(_ context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance.Sub(p.balance, req.Amount)
	return &ports.TransferResult{
		TxHash:    "0x" + uuid.NewString()[:8],
		Gasless:   true,
		Confirmed: true,
	}, nil
}

func (p *stubProvider) WaitForConfirmation(context.Context, string) error { return nil }

type stubFactory struct {
	provider ports.WalletProvider
}

func (f *stubFactory) Kind() domain.ProviderKind { return f.provider.Kind() }
func (f *stubFactory) New(context.Context) (ports.WalletProvider, error) {
	return f.provider, nil
}

// --- Fake facilitator ---

// fakeFacilitator accepts every proof and settles with a fixed hash.
type fakeFacilitator struct {
	mu       sync.Mutex
	settleTx string
	verifies int
	settles  int
}

func (f *fakeFacilitator) Verify(_ context.Context, payload x402.PaymentPayload, _ x402.PaymentRequirements) (*x402.VerifyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies++
	return &x402.VerifyResponse{IsValid: true, Payer: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"}, nil
}

func (f *fakeFacilitator) Settle(_ context.Context, payload x402.PaymentPayload, reqs x402.PaymentRequirements) (*x402.SettleResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settles++
	return &x402.SettleResponse{
		Success:     true,
		Transaction: f.settleTx,
		Network:     reqs.Network,
		Payer:       "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	}, nil
}
