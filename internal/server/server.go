package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	authdomain "github.com/reclaimlabs/recoveryhub/internal/auth/domain"
	"github.com/reclaimlabs/recoveryhub/internal/auth/session"
	"github.com/reclaimlabs/recoveryhub/internal/authorization"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	cryptodomain "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/domain"
	"github.com/reclaimlabs/recoveryhub/internal/currency"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"github.com/reclaimlabs/recoveryhub/internal/observability"
	obslogger "github.com/reclaimlabs/recoveryhub/internal/observability/logger"
	obsmetrics "github.com/reclaimlabs/recoveryhub/internal/observability/metrics"
	obstracing "github.com/reclaimlabs/recoveryhub/internal/observability/tracing"
	paymentconfigdomain "github.com/reclaimlabs/recoveryhub/internal/paymentconfig/domain"
	"github.com/reclaimlabs/recoveryhub/internal/providers/pdf"
	"github.com/reclaimlabs/recoveryhub/internal/ratelimit"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	walletdomain "github.com/reclaimlabs/recoveryhub/internal/wallet/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine           *gin.Engine
	cfg              config.Config
	db               *gorm.DB
	genID            *snowflake.Node
	sessions         *session.Manager
	authsvc          authdomain.Service
	authzSvc         authorization.Service
	auditSvc         auditdomain.Service
	roleSvc          roledomain.Service
	caseSvc          casedomain.Service
	invoiceSvc       invoicedomain.Service
	paymentConfigSvc paymentconfigdomain.Service
	cryptoPaymentSvc cryptodomain.Service
	attachmentSvc    attachmentdomain.Service
	walletSvc        walletdomain.Service
	converter        *currency.Converter
	pdfProvider      pdf.Provider
	loginLimiter     *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	DB               *gorm.DB
	GenID            *snowflake.Node
	Sessions         *session.Manager
	Authsvc          authdomain.Service
	AuthzSvc         authorization.Service
	AuditSvc         auditdomain.Service `optional:"true"`
	RoleSvc          roledomain.Service
	CaseSvc          casedomain.Service
	InvoiceSvc       invoicedomain.Service
	PaymentConfigSvc paymentconfigdomain.Service
	CryptoPaymentSvc cryptodomain.Service
	AttachmentSvc    attachmentdomain.Service
	WalletSvc        walletdomain.Service
	Converter        *currency.Converter
	PDFProvider      pdf.Provider            `optional:"true"`
	LoginLimiter     *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		db:               p.DB,
		genID:            p.GenID,
		sessions:         p.Sessions,
		authsvc:          p.Authsvc,
		authzSvc:         p.AuthzSvc,
		auditSvc:         p.AuditSvc,
		roleSvc:          p.RoleSvc,
		caseSvc:          p.CaseSvc,
		invoiceSvc:       p.InvoiceSvc,
		paymentConfigSvc: p.PaymentConfigSvc,
		cryptoPaymentSvc: p.CryptoPaymentSvc,
		attachmentSvc:    p.AttachmentSvc,
		walletSvc:        p.WalletSvc,
		converter:        p.Converter,
		pdfProvider:      p.PDFProvider,
		loginLimiter:     p.LoginLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerPortalRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/v1/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerPortalRoutes() {
	v1 := s.engine.Group("/v1", s.AuthRequired())

	// -------- Cases --------
	v1.GET("/cases", s.Can(authorization.ObjectCase, authorization.ActionCaseView), s.ListCases)
	v1.POST("/cases", s.Can(authorization.ObjectCase, authorization.ActionCaseCreate), s.CreateCase)
	v1.GET("/cases/:id", s.Can(authorization.ObjectCase, authorization.ActionCaseView), s.GetCaseByID)
	v1.GET("/case-lookup/:reference", s.Can(authorization.ObjectCase, authorization.ActionCaseView), s.GetCaseByReference)
	v1.PATCH("/cases/:id/status", s.Can(authorization.ObjectCase, authorization.ActionCaseUpdateStatus), s.UpdateCaseStatus)

	// -------- Messages --------
	v1.GET("/cases/:id/messages", s.Can(authorization.ObjectMessage, authorization.ActionMessageView), s.ListCaseMessages)
	v1.POST("/cases/:id/messages", s.Can(authorization.ObjectMessage, authorization.ActionMessageCreate), s.AddCaseMessage)
	v1.POST("/cases/:id/messages/read", s.Can(authorization.ObjectMessage, authorization.ActionMessageView), s.MarkCaseMessagesRead)

	// -------- Progress updates --------
	v1.GET("/cases/:id/progress", s.Can(authorization.ObjectProgress, authorization.ActionProgressView), s.ListCaseProgress)
	v1.POST("/cases/:id/progress", s.Can(authorization.ObjectProgress, authorization.ActionProgressCreate), s.AddCaseProgress)

	// -------- Attachments --------
	v1.GET("/cases/:id/attachments", s.Can(authorization.ObjectAttachment, authorization.ActionAttachmentView), s.ListCaseAttachments)
	v1.POST("/cases/:id/attachments", s.Can(authorization.ObjectAttachment, authorization.ActionAttachmentUpload), s.UploadCaseAttachments)
	v1.GET("/attachments/:id/download", s.Can(authorization.ObjectAttachment, authorization.ActionAttachmentView), s.DownloadAttachment)

	// -------- Invoices --------
	v1.GET("/invoices", s.Can(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	v1.POST("/invoices", s.Can(authorization.ObjectInvoice, authorization.ActionInvoiceCreate), s.CreateInvoice)
	v1.GET("/invoices/:id", s.Can(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	v1.GET("/invoices/:id/pdf", s.Can(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.RenderInvoicePDF)
	v1.PATCH("/invoices/:id/status", s.Can(authorization.ObjectInvoice, authorization.ActionInvoiceUpdateStatus), s.UpdateInvoiceStatus)
	v1.DELETE("/invoices/:id", s.Can(authorization.ObjectInvoice, authorization.ActionInvoiceDelete), s.DeleteInvoice)

	// -------- Payment configs --------
	// Clients see the active instruction templates; management is gated separately.
	v1.GET("/payment-configs/active", s.Can(authorization.ObjectPaymentConfig, authorization.ActionPaymentConfigView), s.ListActivePaymentConfigs)
	v1.GET("/payment-configs", s.Can(authorization.ObjectPaymentConfig, authorization.ActionPaymentConfigManage), s.ListPaymentConfigs)
	v1.POST("/payment-configs", s.Can(authorization.ObjectPaymentConfig, authorization.ActionPaymentConfigManage), s.CreatePaymentConfig)
	v1.GET("/payment-configs/:id", s.Can(authorization.ObjectPaymentConfig, authorization.ActionPaymentConfigManage), s.GetPaymentConfigByID)
	v1.PATCH("/payment-configs/:id", s.Can(authorization.ObjectPaymentConfig, authorization.ActionPaymentConfigManage), s.UpdatePaymentConfig)
	v1.DELETE("/payment-configs/:id", s.Can(authorization.ObjectPaymentConfig, authorization.ActionPaymentConfigManage), s.DeletePaymentConfig)

	// -------- Crypto payments --------
	v1.POST("/crypto-payments", s.Can(authorization.ObjectCryptoPayment, authorization.ActionCryptoPaymentSubmit), s.SubmitCryptoPayment)
	v1.GET("/crypto-payments", s.Can(authorization.ObjectCryptoPayment, authorization.ActionCryptoPaymentView), s.ListCryptoPayments)
	v1.GET("/crypto-payments/:id", s.Can(authorization.ObjectCryptoPayment, authorization.ActionCryptoPaymentView), s.GetCryptoPaymentByID)
	v1.POST("/crypto-payments/:id/verify", s.Can(authorization.ObjectCryptoPayment, authorization.ActionCryptoPaymentVerify), s.VerifyCryptoPayment)

	// -------- Wallet --------
	v1.GET("/wallet/config", s.Can(authorization.ObjectWallet, authorization.ActionWalletView), s.WalletConnectConfig)
	v1.GET("/wallet/connections", s.Can(authorization.ObjectWallet, authorization.ActionWalletView), s.ListWalletConnections)
	v1.POST("/wallet/connections", s.Can(authorization.ObjectWallet, authorization.ActionWalletConnect), s.ConnectWallet)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/v1/admin", s.AuthRequired())

	admin.GET("/users", s.Can(authorization.ObjectUser, authorization.ActionUserView), s.ListUsers)
	admin.GET("/users/:id", s.Can(authorization.ObjectUser, authorization.ActionUserView), s.GetUserByID)
	admin.DELETE("/users/:id", s.Can(authorization.ObjectUser, authorization.ActionUserManage), s.DeleteUser)
	admin.GET("/users/:id/auth-details", s.Can(authorization.ObjectUser, authorization.ActionUserManage), s.GetUserAuthDetails)
	admin.PATCH("/users/:id/credentials", s.Can(authorization.ObjectUser, authorization.ActionUserManage), s.UpdateUserCredentials)
	admin.GET("/users/:id/roles", s.Can(authorization.ObjectUser, authorization.ActionUserView), s.ListUserRoles)
	admin.POST("/users/:id/roles", s.Can(authorization.ObjectUser, authorization.ActionUserManage), s.AssignUserRole)
	admin.DELETE("/users/:id/roles/:role", s.Can(authorization.ObjectUser, authorization.ActionUserManage), s.RemoveUserRole)

	admin.GET("/audit-logs", s.Can(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
