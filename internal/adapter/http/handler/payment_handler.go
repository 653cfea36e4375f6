package handler

import (
	"io"

	"dev3-backend/internal/adapter/http/dto"
	"dev3-backend/internal/adapter/http/middleware"
	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/pkg/apperror"
	"dev3-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment endpoints and indexer webhooks.
type PaymentHandler struct {
	paymentSvc   ports.PaymentService
	reconcileSvc ports.ReconcileService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService, reconcileSvc ports.ReconcileService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, reconcileSvc: reconcileSvc}
}

// Create handles POST /payment.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
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

	payment, err := h.paymentSvc.Create(c.Request.Context(), ports.CreatePaymentRequest{
		OwnerUID:         middleware.AccountUID(c),
		ProjectID:        projectID,
		Amount:           req.Amount,
		Memo:             req.Memo,
		Receiver:         req.Receiver,
		ReceiverFungible: req.ReceiverFungible,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, payment.ID.String())
	response.OK(c, payment)
}

// List handles GET /payment.
func (h *PaymentHandler) List(c *gin.Context) {
	var q dto.PaymentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.PaymentListParams{
		OwnerUID:         middleware.AccountUID(c),
		Receiver:         q.Receiver,
		ReceiverFungible: q.ReceiverFungible,
		Offset:           q.Offset,
		Limit:            q.Limit,
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
		s := domain.PaymentStatus(*q.Status)
		params.Status = &s
	}

	params = params.Normalized()

	items, total, err := h.paymentSvc.List(c.Request.Context(), params)
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

// Get handles GET /payment/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("Payment"))
		return
	}

	payment, err := h.paymentSvc.Get(c.Request.Context(), id, middleware.AccountUID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payment)
}

// GetByUID handles GET /payment/uid/:uid, the public lookup by correlation token.
func (h *PaymentHandler) GetByUID(c *gin.Context) {
	payment, err := h.paymentSvc.GetByCorrelationToken(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payment)
}

// TransferWebhook handles indexer FT transfer deliveries. Success is an
// empty 200; any non-2xx makes the indexer redeliver.
func (h *PaymentHandler) TransferWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.ErrMalformedPayload(err))
		return
	}

	payment, err := h.reconcileSvc.Reconcile(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, payment.ID.String())
	response.Empty(c)
}
