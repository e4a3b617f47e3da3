package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/logger"
)

var (
	// ErrUnauthorized 远端拒绝令牌（401），刷新令牌由认证服务负责
	ErrUnauthorized = errors.New("backend unauthorized")
	// ErrNotConfigured 未配置远端地址
	ErrNotConfigured = errors.New("backend base url not configured")
	// ErrReadOnly 远端不支持该写操作
	ErrReadOnly = errors.New("backend resource is read only")
)

// StatusError 远端返回的非 2xx 响应
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Body)
}

// IsNotFound 是否为 404
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client cargo-inspection 远端 REST 客户端
type Client struct {
	baseURL      string
	http         *http.Client
	maxAttempts  int
	backoff      time.Duration
	serviceToken string
}

// NewClient 创建远端客户端
func NewClient(cfg config.BackendConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:         &http.Client{Timeout: timeout},
		maxAttempts:  attempts,
		backoff:      200 * time.Millisecond,
		serviceToken: strings.TrimSpace(cfg.ServiceToken),
	}
}

// Enabled 是否已配置远端
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// bearer 优先透传当前用户令牌，后台任务使用服务令牌
func (c *Client) bearer(ctx context.Context) string {
	if p, ok := identity.FromContext(ctx); ok && strings.TrimSpace(p.Token) != "" {
		return p.Token
	}
	return c.serviceToken
}

func (c *Client) newRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	return payload, nil
}

// retryable 网络错误与 429/5xx 可重试
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// get 幂等读取，瞬时失败按指数退避重试
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(path, query), nil)
		if err != nil {
			return err
		}
		payload, err := c.do(req)
		if err == nil {
			return decodeBody(payload, out)
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxAttempts {
			break
		}
		logger.Debugw("backend_get_retry", "path", path, "attempt", attempt, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return lastErr
}

// send 非幂等写入，不重试
func (c *Client) send(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := c.newRequest(ctx, method, c.endpoint(path, nil), raw)
	if err != nil {
		return err
	}
	payload, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeBody(payload, out)
}

// upsert 先 PATCH，记录不存在时改用 POST
func (c *Client) upsert(ctx context.Context, path string, body interface{}) error {
	err := c.send(ctx, http.MethodPatch, path, body, nil)
	if err == nil || !IsNotFound(err) {
		return err
	}
	return c.send(ctx, http.MethodPost, path, body, nil)
}

func decodeBody(payload []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
