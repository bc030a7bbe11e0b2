package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wagamachi/meiten/api/core"
	"github.com/wagamachi/meiten/internal/di"
	"github.com/wagamachi/meiten/utils"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container := di.NewContainer(cfg)
	if err := container.Init(ctx); err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			zap.L().Error("Error closing container", zap.Error(err))
		}
	}()

	// 自动DDL
	if err := container.GetDatabaseFactory().AutoMigrate(); err != nil {
		return err
	}

	deps := &core.ServerDependencies{
		Config:  cfg,
		DB:      container.GetDatabaseProvider(),
		Storage: container.GetStorage(),
		Stories: container.GetStoryService(),
		JWT:     container.GetJWTService(),
		Login:   container.GetLoginService(),
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	defer cleanup()

	errCh := make(chan error, 1)
	utils.SafeGo(func() {
		zap.L().Info("Server started",
			zap.String("addr", cfg.Addr()),
			zap.String("storage", container.GetStorage().Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	})

	// 处理退出signal
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zap.L().Info("Server exited successfully")
	return nil
}
