package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// APIServer 巡检接口的 HTTP 服务
type APIServer struct {
	srv *http.Server
}

func NewAPIServer(addr string, handler http.Handler) *APIServer {
	return &APIServer{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}}
}

func (s *APIServer) Name() string { return "api" }

// Start 先监听端口再服务，端口占用时直接返回错误
func (s *APIServer) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 等待进行中的请求完成（如审批写入）后关闭
func (s *APIServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
