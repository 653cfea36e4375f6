package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful write operations after the handler ran.
// Handlers may set CtxAccountUID and CtxAuditResourceID to enrich the entry.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		action, resourceType := mapRouteToAction(c.Request.Method, c.FullPath())
		if action == "" {
			return
		}

		var accountUID *string
		if uid := AccountUID(c); uid != "" {
			accountUID = &uid
		}

		details, _ := json.Marshal(map[string]interface{}{
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString("request_id"),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			AccountUID:   accountUID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxAuditResourceID),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

// mapRouteToAction names the audited writes. Reads map to "".
func mapRouteToAction(method, route string) (domain.AuditAction, string) {
	switch method {
	case http.MethodPost:
		switch route {
		case "/auth/near":
			return domain.AuditActionLogin, "session"
		case "/auth/near-register":
			return domain.AuditActionRegister, "account"
		case "/payment":
			return domain.AuditActionPaymentCreate, "payment"
		case "/payment/ft-transfer-pagoda", "/payment/ft-transfer-signed":
			return domain.AuditActionWebhook, "payment"
		case "/transaction-request":
			return domain.AuditActionTxRequestCreate, "transaction_request"
		}
	case http.MethodPatch:
		if route == "/transaction-request/:uuid" {
			return domain.AuditActionTxRequestUpdate, "transaction_request"
		}
	}
	return "", ""
}
