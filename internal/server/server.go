package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	appservice "github.com/wolfitem/newshub/internal/application/service"
	"github.com/wolfitem/newshub/internal/infrastructure/fetcher"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
	"github.com/wolfitem/newshub/internal/middleware"
)

// Config HTTP服务配置
type Config struct {
	Addr              string // 监听地址
	RateLimit         int64  // 窗口内允许的最大请求数，<=0不限流
	RateWindowSeconds int    // 限流窗口长度，单位秒
}

// Server 是载荷消费方的HTTP边界，处理器内不包含任何流水线逻辑
type Server struct {
	pipeline appservice.FeedPipeline
	http     *http.Server
}

// New 创建HTTP服务
func New(cfg Config, pipeline appservice.FeedPipeline) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	window := time.Duration(cfg.RateWindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}

	s := &Server{pipeline: pipeline}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit, window).Handler)
		r.Get("/feed", s.handleFeed)
		r.Get("/stats", s.handleStats)
	})

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler 返回路由处理器，测试用
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe 启动HTTP服务
func (s *Server) ListenAndServe() error {
	logger.Info("HTTP服务启动", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown 优雅关闭HTTP服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleFeed 返回订阅源载荷，?refresh=1强制刷新
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "1"

	payload, err := s.pipeline.GetPayload(r.Context(), forceRefresh)
	if err != nil {
		status := http.StatusInternalServerError
		var fetchErr *fetcher.FetchError
		if errors.As(err, &fetchErr) {
			status = http.StatusBadGateway
		}
		logger.Error("获取载荷失败", "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleStats 返回运行指标快照
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Metrics())
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("写入响应失败", "error", err)
	}
}
