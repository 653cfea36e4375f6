package handler

import (
	"dev3-backend/internal/adapter/http/middleware"
	"dev3-backend/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	PaymentSvc     ports.PaymentService
	TxRequestSvc   ports.TransactionRequestService // nil = routes not mounted
	ReconcileSvc   ports.ReconcileService
	TokenSvc       ports.TokenService
	SigSvc         ports.WebhookSignatureService
	PagodaBearer   string
	HMACSecret     string             // empty = signed webhook route disabled
	RateLimitStore middleware.Limiter // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// --- Wallet auth (public) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := r.Group("/auth")
	{
		auth.POST("/near", rl("auth_login"), authHandler.NearLogin)
		auth.POST("/near-register", rl("auth_register"), authHandler.NearRegister)
	}

	paymentHandler := NewPaymentHandler(deps.PaymentSvc, deps.ReconcileSvc)
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	payment := r.Group("/payment")
	{
		// Indexer callbacks
		payment.POST("/ft-transfer-pagoda",
			middleware.WebhookBearerAuth(deps.PagodaBearer), rl("webhook"), paymentHandler.TransferWebhook)
		if deps.HMACSecret != "" {
			payment.POST("/ft-transfer-signed",
				middleware.WebhookSignatureAuth(deps.SigSvc, deps.HMACSecret), rl("webhook"), paymentHandler.TransferWebhook)
		}

		payment.GET("/uid/:uid", rl("payments"), paymentHandler.GetByUID)

		payment.POST("", jwtAuth, rl("payments"), paymentHandler.Create)
		payment.GET("", jwtAuth, rl("payments"), paymentHandler.List)
		payment.GET("/:id", jwtAuth, rl("payments"), paymentHandler.Get)
	}

	if deps.TxRequestSvc != nil {
		txHandler := NewTransactionRequestHandler(deps.TxRequestSvc)
		txr := r.Group("/transaction-request")
		{
			txr.GET("/uuid/:uuid", rl("payments"), txHandler.GetByUUID)

			txr.POST("", jwtAuth, rl("payments"), txHandler.Create)
			txr.GET("", jwtAuth, rl("payments"), txHandler.List)
			txr.GET("/:id", jwtAuth, rl("payments"), txHandler.Get)
			txr.PATCH("/:uuid", jwtAuth, rl("payments"), txHandler.UpdateStatus)
		}
	}

	return r
}
