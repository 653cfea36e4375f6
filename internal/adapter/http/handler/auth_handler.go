package handler

import (
	"net/http"

	"dev3-backend/internal/adapter/http/dto"
	"dev3-backend/internal/adapter/http/middleware"
	"dev3-backend/internal/core/ports"
	"dev3-backend/pkg/apperror"
	"dev3-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles wallet authentication endpoints.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// NearLogin handles POST /auth/near.
func (h *AuthHandler) NearLogin(c *gin.Context) {
	var req dto.NearAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, _, err := h.authSvc.Login(c.Request.Context(), req.Username, req.SignedJSONString)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAccountUID, req.Username)
	c.Set(middleware.CtxAuditResourceID, req.Username)
	response.Bare(c, dto.TokenResponse{Token: token})
}

// NearRegister handles POST /auth/near-register.
func (h *AuthHandler) NearRegister(c *gin.Context) {
	var req dto.NearRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.authSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Username:   req.Username,
		SignedJSON: req.SignedJSONString,
		Roles:      req.Roles,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAccountUID, account.UID)
	c.Set(middleware.CtxAuditResourceID, account.ID.String())
	response.Bare(c, account)
}

// HealthCheck handles GET /health, pinging every dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
