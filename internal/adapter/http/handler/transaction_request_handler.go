package handler

import (
	"dev3-backend/internal/adapter/http/dto"
	"dev3-backend/internal/adapter/http/middleware"
	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/pkg/apperror"
	"dev3-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionRequestHandler handles contract-call requests prepared for wallets.
type TransactionRequestHandler struct {
	svc ports.TransactionRequestService
}

// NewTransactionRequestHandler creates a new TransactionRequestHandler.
func NewTransactionRequestHandler(svc ports.TransactionRequestService) *TransactionRequestHandler {
	return &TransactionRequestHandler{svc: svc}
}

// Create handles POST /transaction-request.
func (h *TransactionRequestHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	projectID, err := uuid.Parse(req.Project)
	if err != nil {
		response.Error(c, apperror.Validation("invalid project id"))
		return
	}

	tr, err := h.svc.Create(c.Request.Context(), ports.CreateTransactionRequest{
		OwnerUID:   middleware.AccountUID(c),
		ProjectID:  projectID,
		ContractID: req.ContractID,
		Method:     req.Method,
		Args:       req.Args,
		Gas:        req.Gas,
		Deposit:    req.Deposit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, tr.UUID.String())
	response.OK(c, tr)
}

// List handles GET /transaction-request.
func (h *TransactionRequestHandler) List(c *gin.Context) {
	var q dto.TransactionRequestListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.TransactionRequestListParams{
		OwnerUID:   middleware.AccountUID(c),
		ContractID: q.ContractID,
		Method:     q.Method,
		Offset:     q.Offset,
		Limit:      q.Limit,
	}
	if q.Project != "" {
		id, err := uuid.Parse(q.Project)
		if err != nil {
			response.Error(c, apperror.Validation("invalid project id"))
			return
		}
		params.ProjectID = id
	}
	if q.Status != nil {
		s := domain.TransactionRequestStatus(*q.Status)
		params.Status = &s
	}

	params = params.Normalized()

	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.Page{
		Total:  total,
		Offset: params.Offset,
		Limit:  params.Limit,
		Items:  items,
	})
}

// Get handles GET /transaction-request/:id for the owner.
func (h *TransactionRequestHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Transaction request"))
		return
	}

	tr, err := h.svc.Get(c.Request.Context(), id, middleware.AccountUID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tr)
}

// GetByUUID handles GET /transaction-request/uuid/:uuid, the public lookup a
// wallet uses to fetch the call it is asked to sign.
func (h *TransactionRequestHandler) GetByUUID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Transaction request"))
		return
	}

	tr, err := h.svc.GetByUUID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tr)
}

// UpdateStatus handles PATCH /transaction-request/:uuid.
func (h *TransactionRequestHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Transaction request"))
		return
	}

	var req dto.UpdateTransactionRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	tr, err := h.svc.UpdateStatus(c.Request.Context(), ports.UpdateTransactionRequest{
		UUID:      id,
		Status:    domain.TransactionRequestStatus(req.Status),
		CallerUID: middleware.AccountUID(c),
		TxHash:    req.TxHash,
		ReceiptID: req.ReceiptID,
		TxDetails: req.TxDetails,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, tr.UUID.String())
	response.OK(c, tr)
}
