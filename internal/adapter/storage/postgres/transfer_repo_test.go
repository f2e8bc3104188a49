package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"seapay/internal/core/domain"
	"seapay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestTransfer() *domain.TransferRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.TransferRecord{
		ID:          uuid.New(),
		TxHash:      "0xdeadbeef",
		Recipient:   "0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc",
		Amount:      50000000,
		AssetSymbol: "USDC",
		Provider:    domain.ProviderKindCustodial,
		Status:      domain.TransferStatusConfirmed,
		Gasless:     true,
		Reference:   strPtr("booking deposit"),
		CreatedAt:   now,
		ConfirmedAt: &now,
	}
}

func transferCols() []string {
	return []string{"id", "tx_hash", "recipient", "amount", "asset_symbol", "provider",
		"status", "gasless", "reference", "created_at", "confirmed_at"}
}

func transferRow(t *domain.TransferRecord) *pgxmock.Rows {
	return pgxmock.NewRows(transferCols()).AddRow(
		t.ID, t.TxHash, t.Recipient, t.Amount, t.AssetSymbol,
		t.Provider, t.Status, t.Gasless, t.Reference,
		t.CreatedAt, t.ConfirmedAt,
	)
}

func TestTransferRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(
			tr.ID, tr.TxHash, tr.Recipient, tr.Amount, tr.AssetSymbol,
			tr.Provider, tr.Status, tr.Gasless, tr.Reference,
			tr.CreatedAt, tr.ConfirmedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), tr)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_Create_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(
			tr.ID, tr.TxHash, tr.Recipient, tr.Amount, tr.AssetSymbol,
			tr.Provider, tr.Status, tr.Gasless, tr.Reference,
			tr.CreatedAt, tr.ConfirmedAt,
		).
		WillReturnError(errors.New("connection reset"))

	err = repo.Create(context.Background(), tr)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE id").
		WithArgs(tr.ID).
		WillReturnRows(transferRow(tr))

	result, err := repo.GetByID(context.Background(), tr.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tr.ID, result.ID)
	assert.Equal(t, tr.TxHash, result.TxHash)
	assert.Equal(t, tr.Amount, result.Amount)
	assert.Equal(t, tr.Status, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(transferCols()))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE transfers SET status").
		WithArgs(domain.TransferStatusConfirmed, &now, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateStatus(context.Background(), id, domain.TransferStatusConfirmed, &now)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_UpdateStatus_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE transfers SET status").
		WithArgs(domain.TransferStatusFailed, (*time.Time)(nil), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatus(context.Background(), id, domain.TransferStatusFailed, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transfers`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM transfers ORDER BY created_at DESC").
		WithArgs(20, 0).
		WillReturnRows(transferRow(tr))

	transfers, total, err := repo.List(context.Background(), ports.TransferListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, transfers, 1)
	assert.Equal(t, tr.ID, transfers[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_List_StatusFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	status := domain.TransferStatusSubmitted

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transfers WHERE status`).
		WithArgs(status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("SELECT .+ FROM transfers WHERE status .+ ORDER BY created_at DESC").
		WithArgs(status, 20, 0).
		WillReturnRows(pgxmock.NewRows(transferCols()))

	transfers, total, err := repo.List(context.Background(), ports.TransferListParams{
		Page: 1, PageSize: 20, Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, transfers)
	assert.NoError(t, mock.ExpectationsWereMet())
}
