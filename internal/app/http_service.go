package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/logger"
)

// HTTPService 对外 API 服务
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 按服务配置创建 HTTP 服务
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
		},
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "api"
}

// Start 监听端口并阻塞，监听失败立即返回
func (s *HTTPService) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	logger.Infow("http_listening", "addr", listener.Addr().String())
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 等待进行中的请求完成
func (s *HTTPService) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
