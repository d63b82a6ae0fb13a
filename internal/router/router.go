package router

import (
	"time"

	"dream/config"
	"dream/internal/handler"
	"dream/internal/middleware"
	"dream/internal/repository"
	"dream/internal/service"
	"dream/pkg/codestore"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, gateway handler.PaymentGateway, verifier service.NotifyVerifier, genSvc *service.GenerationService, sender service.CodeSender) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Services
	tokenSvc := service.NewTokenService(&cfg.JWT, userRepo)
	verifySvc := service.NewVerificationService(&cfg.Verification, codestore.NewMemoryStore(), sender)
	authSvc := service.NewAuthService(cfg, userRepo, ledgerRepo, tokenSvc, verifySvc)
	settlementSvc := service.NewSettlementService(cfg.Alipay.AppID, verifier, orderRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, tokenSvc)
	pointsHandler := handler.NewPointsHandler(&cfg.Points, ledgerRepo, userRepo)
	paymentHandler := handler.NewPaymentHandler(&cfg.Points, gateway, orderRepo, settlementSvc)
	generationHandler := handler.NewGenerationHandler(genSvc)
	chatHandler := handler.NewChatHandler(genSvc)
	verificationHandler := handler.NewVerificationHandler(verifySvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	activeMw := middleware.ActiveUserRequired(userRepo)
	superMw := middleware.SuperuserRequired()

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", authHandler.Register)
			users.POST("/login", authHandler.Login)
			users.POST("/login-with-code", authHandler.LoginWithCode)
			users.POST("/refresh", authHandler.Refresh)
			users.POST("/send-verification-code", verificationHandler.SendCode)
			users.POST("/verify-code", verificationHandler.VerifyCode)
			users.GET("/me", authMw, activeMw, authHandler.Me)
			users.POST("/bind-phone", authMw, activeMw, authHandler.BindPhone)
			users.PATCH("/change-password", authMw, activeMw, authHandler.ChangePassword)
			users.POST("/logout", authMw, activeMw, authHandler.Logout)
		}

		points := api.Group("/points", authMw, activeMw)
		{
			points.GET("/balance", pointsHandler.GetBalance)
			points.GET("/transactions", pointsHandler.ListTransactions)
			points.POST("/transfer", pointsHandler.Transfer)
			points.POST("/login-bonus", pointsHandler.ClaimLoginBonus)

			admin := points.Group("", superMw)
			{
				admin.POST("/add", pointsHandler.AddPoints)
				admin.POST("/deduct", pointsHandler.DeductPoints)
				admin.GET("/all-transactions", pointsHandler.ListAllTransactions)
				admin.GET("/users/:id/balance", pointsHandler.GetUserBalance)
				admin.GET("/users/:id/transactions", pointsHandler.ListUserTransactions)
			}
		}

		payment := api.Group("/payment")
		{
			payment.POST("/create-order", authMw, activeMw, paymentHandler.CreateOrder)
			payment.GET("/orders", authMw, activeMw, paymentHandler.ListOrders)
			payment.GET("/orders/:out_trade_no", authMw, activeMw, paymentHandler.GetOrder)
			// Gateway callback; the gateway cannot authenticate, the
			// signature check inside replaces it.
			payment.POST("/notify", paymentHandler.Notify)
		}

		api.POST("/generate/image", authMw, activeMw, generationHandler.GenerateImage)
		api.POST("/chat/completions", authMw, activeMw, chatHandler.Completions)
	}

	return r
}
