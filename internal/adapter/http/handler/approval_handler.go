package handler

import (
	"seapay/internal/adapter/http/dto"
	"seapay/internal/core/domain"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
	"seapay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApprovalHandler exposes the pending-spend slot to the operator.
type ApprovalHandler struct {
	gate ports.ApprovalGate
}

// NewApprovalHandler creates a new ApprovalHandler.
func NewApprovalHandler(gate ports.ApprovalGate) *ApprovalHandler {
	return &ApprovalHandler{gate: gate}
}

// Pending handles GET /api/v1/approvals/pending.
func (h *ApprovalHandler) Pending(c *gin.Context) {
	req, ok := h.gate.Pending()
	if !ok {
		response.OK(c, gin.H{"pending": nil})
		return
	}
	resp := dto.FromApproval(*req)
	response.OK(c, gin.H{"pending": resp})
}

// Resolve handles POST /api/v1/approvals/:id/resolve.
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid approval id"))
		return
	}

	var req dto.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.gate.Resolve(id, domain.ApprovalOutcome(req.Outcome), req.Note); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"request_id": id.String(), "outcome": req.Outcome})
}
