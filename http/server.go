// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"churnapi/churn"
	"churnapi/config"
	"churnapi/dashboard"
	"churnapi/logger"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           config.DefaultHttpPort,
		Timeout:        config.DefaultHttpTimeout,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   config.DefaultMaxBodyBytes,
	}
}

// ServerConfigFrom 从配置文件转换
func ServerConfigFrom(cfg config.HttpConfig) ServerConfig {
	return ServerConfig{
		Port:           cfg.Port,
		Timeout:        cfg.Timeout,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}
}

// NewHandler 组装路由和中间件链
func NewHandler(cfg ServerConfig, service *churn.Service, provider *dashboard.Provider) http.Handler {
	mux := http.NewServeMux()
	NewHandlers(service, provider, cfg.AllowedOrigins).Register(mux)

	chain := Chain(
		RecoveryMiddleware,                      // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware,                        // 2. 日志中间件
		SecurityHeadersMiddleware,               // 3. 安全头中间件
		CORSMiddleware(cfg.AllowedOrigins),      // 4. CORS中间件
		TimeoutMiddleware(cfg.Timeout),          // 5. 超时中间件
		RequestSizeMiddleware(cfg.MaxBodyBytes), // 6. 请求大小限制
	)
	return chain(mux)
}

// NewServer 创建HTTP服务器
func NewServer(cfg ServerConfig, service *churn.Service, provider *dashboard.Provider) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewHandler(cfg, service, provider),
			ReadHeaderTimeout: cfg.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		config: cfg,
	}
}

// Start 启动服务器，Stop后返回nil
func (s *Server) Start() error {
	logger.Infof("starting HTTP server on %s", s.server.Addr)
	logger.Infof("prediction stream endpoint: ws://localhost%s/api/ws/predict", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
