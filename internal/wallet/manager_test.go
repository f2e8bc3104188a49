package wallet

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/internal/core/ports/mocks"
	"seapay/pkg/apperror"
	"seapay/pkg/logger"
)

func newTestManager(factories ...ports.ProviderFactory) *Manager {
	return NewManager(factories, "base-sepolia", 5*time.Second, logger.NewWithWriter("error", io.Discard))
}

func TestManager_ConcurrentEnsureReady_SingleConstruction(t *testing.T) {
	ctrl := gomock.NewController(t)

	provider := mocks.NewMockWalletProvider(ctrl)
	provider.EXPECT().Address().Return("0xabc").AnyTimes()
	provider.EXPECT().Kind().Return(domain.ProviderKindCustodial).AnyTimes()

	var constructions int32
	factory := mocks.NewMockProviderFactory(ctrl)
	factory.EXPECT().Kind().Return(domain.ProviderKindCustodial).AnyTimes()
	factory.EXPECT().New(gomock.Any()).DoAndReturn(func(context.Context) (ports.WalletProvider, error) {
		atomic.AddInt32(&constructions, 1)
		time.Sleep(50 * time.Millisecond) // widen the race window
		return provider, nil
	}).Times(1)

	m := newTestManager(factory)

	const callers = 25
	var wg sync.WaitGroup
	results := make([]ports.WalletProvider, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.EnsureReady(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&constructions))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, provider, results[i])
	}
	assert.Equal(t, domain.WalletStateReady, m.State())
}

func TestManager_IdentityConflictFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)

	custodial := mocks.NewMockProviderFactory(ctrl)
	custodial.EXPECT().Kind().Return(domain.ProviderKindCustodial).AnyTimes()
	custodial.EXPECT().New(gomock.Any()).
		Return(nil, apperror.ErrIdentityConflict(errors.New("owner already registered"))).
		Times(1)

	local := mocks.NewMockWalletProvider(ctrl)
	local.EXPECT().Address().Return("0xdef").AnyTimes()
	local.EXPECT().Kind().Return(domain.ProviderKindLocalKey).AnyTimes()

	localFactory := mocks.NewMockProviderFactory(ctrl)
	localFactory.EXPECT().Kind().Return(domain.ProviderKindLocalKey).AnyTimes()
	localFactory.EXPECT().New(gomock.Any()).Return(local, nil).Times(1)

	m := newTestManager(custodial, localFactory)

	p, err := m.EnsureReady(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderKindLocalKey, p.Kind())
	assert.Equal(t, domain.WalletStateDegraded, m.State())

	info := m.Info()
	assert.Equal(t, "0xdef", info.Address)
	assert.Equal(t, domain.WalletStateDegraded, info.State)
}

func TestManager_AllProvidersFail_TerminalFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	factory := mocks.NewMockProviderFactory(ctrl)
	factory.EXPECT().Kind().Return(domain.ProviderKindCustodial).AnyTimes()
	// Times(1) also proves a failed init is never retried.
	factory.EXPECT().New(gomock.Any()).Return(nil, errors.New("api down")).Times(1)

	m := newTestManager(factory)

	_, err := m.EnsureReady(context.Background())
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
	assert.Equal(t, domain.WalletStateFailed, m.State())

	// Second call observes the memoized failure without reconstructing.
	_, err = m.EnsureReady(context.Background())
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)
}

func TestManager_CallerContextExpiryDoesNotAbortInit(t *testing.T) {
	ctrl := gomock.NewController(t)

	provider := mocks.NewMockWalletProvider(ctrl)
	provider.EXPECT().Address().Return("0xabc").AnyTimes()
	provider.EXPECT().Kind().Return(domain.ProviderKindCustodial).AnyTimes()

	release := make(chan struct{})
	factory := mocks.NewMockProviderFactory(ctrl)
	factory.EXPECT().Kind().Return(domain.ProviderKindCustodial).AnyTimes()
	factory.EXPECT().New(gomock.Any()).DoAndReturn(func(context.Context) (ports.WalletProvider, error) {
		<-release
		return provider, nil
	}).Times(1)

	m := newTestManager(factory)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.EnsureReady(ctx)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WAL_001", appErr.Code)

	// Construction keeps running and later callers get the provider.
	close(release)
	p, err := m.EnsureReady(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", p.Address())
	assert.Equal(t, domain.WalletStateReady, m.State())
}

func TestManager_InfoBeforeInit(t *testing.T) {
	m := newTestManager()

	info := m.Info()
	assert.Equal(t, domain.WalletStateUninitialized, info.State)
	assert.Empty(t, info.Address)
	assert.Equal(t, "base-sepolia", info.Network)
}
