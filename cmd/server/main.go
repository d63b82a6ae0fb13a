package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dream/config"
	"dream/internal/database"
	"dream/internal/repository"
	"dream/internal/router"
	"dream/internal/service"
	"dream/pkg/alipay"
	"dream/pkg/provider"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Server.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		zap.L().Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		zap.L().Fatal("migrate", zap.Error(err))
	}

	alipayClient, err := alipay.NewClient(
		cfg.Alipay.AppID, cfg.Alipay.SellerID,
		cfg.Alipay.AppPrivateKey, cfg.Alipay.AlipayPublicKey,
		cfg.Alipay.NotifyURL, cfg.Alipay.GatewayURL)
	if err != nil {
		zap.L().Fatal("alipay client", zap.Error(err))
	}

	var imageProvider provider.ImageProvider = &provider.StubImageProvider{}
	if cfg.Image.AccessKey != "" {
		imageProvider = provider.NewVolcanoImageClient(
			cfg.Image.Endpoint, cfg.Image.AccessKey, cfg.Image.SecretKey,
			cfg.Image.Region, cfg.Image.Service)
	}
	var chatProvider provider.ChatProvider = &provider.StubChatProvider{}
	if cfg.Chat.APIKey != "" {
		chatProvider = provider.NewDeepSeekClient(cfg.Chat.BaseURL, cfg.Chat.APIKey, cfg.Chat.Model)
	}

	ledgerRepo := repository.NewLedgerRepository(db)
	genSvc := service.NewGenerationService(&cfg.Points, ledgerRepo, imageProvider, chatProvider)

	engine := router.Setup(cfg, db, alipayClient, alipayClient, genSvc, service.LogSender{})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zap.L().Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Fatal("server shutdown", zap.Error(err))
	}
	zap.L().Info("server stopped")
}
