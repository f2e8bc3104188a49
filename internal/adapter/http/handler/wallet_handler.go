package handler

import (
	"math"
	"strconv"

	"seapay/internal/adapter/http/dto"
	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
	"seapay/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler exposes the managed wallet: identity, balance and spends.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Info handles GET /api/v1/wallet.
func (h *WalletHandler) Info(c *gin.Context) {
	info, err := h.walletSvc.Info(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletInfoResponse{
		Address:  info.Address,
		Provider: string(info.Kind),
		Network:  info.Network,
		State:    string(info.State),
	})
}

// Balance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.walletSvc.Balance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Symbol:    balance.Symbol,
		Raw:       balance.Raw.String(),
		Formatted: balance.Formatted(),
		Decimals:  balance.Decimals,
	})
}

// Spend handles POST /api/v1/wallet/spend. The call blocks until the
// operator resolves the approval or it times out.
func (h *WalletHandler) Spend(c *gin.Context) {
	var req dto.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	transfer, err := h.walletSvc.Spend(c.Request.Context(), ports.SpendRequest{
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Summary:   req.Summary,
		Reference: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if transfer.Status == domain.TransferStatusConfirmed {
		response.OK(c, dto.FromTransfer(*transfer))
		return
	}
	response.Accepted(c, dto.FromTransfer(*transfer))
}

// ListTransfers handles GET /api/v1/wallet/transfers.
func (h *WalletHandler) ListTransfers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.TransferListParams{
		Page:     page,
		PageSize: pageSize,
	}

	if s := c.Query("status"); s != "" {
		status := domain.TransferStatus(s)
		params.Status = &status
	}
	if f := c.Query("from"); f != "" {
		if v, err := strconv.ParseInt(f, 10, 64); err == nil {
			params.From = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := strconv.ParseInt(t, 10, 64); err == nil {
			params.To = &v
		}
	}

	transfers, total, err := h.walletSvc.ListTransfers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, dto.FromTransfer(transfers[i]))
	}

	response.OK(c, dto.TransferListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}
