package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
	"github.com/wolfitem/newshub/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务对外提供订阅源载荷",
	Long: `启动HTTP服务，在/api/feed提供带缓存的双语摘要载荷，
/api/stats提供运行指标，/healthz提供健康检查。
并发请求自动合并，缓存过期后按需刷新。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildPipelineConfig()
		if err != nil {
			logger.Error("组装流水线配置失败", "error", err)
			return err
		}

		pipeline := buildPipeline(cfg, false)
		srv := server.New(server.Config{
			Addr:              viper.GetString("server.addr"),
			RateLimit:         viper.GetInt64("server.rate_limit"),
			RateWindowSeconds: viper.GetInt("server.rate_window_seconds"),
		}, pipeline)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// 等待中断信号后优雅退出
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		case sig := <-sigCh:
			logger.Info("接收到中断信号，正在优雅退出", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("关闭HTTP服务失败: %w", err)
		}
		logger.Info("HTTP服务已退出")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
