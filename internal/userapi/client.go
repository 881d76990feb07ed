// Package userapi はユーザー認証API（/api/users/login, /api/users/register）のクライアントです。
package userapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	PathLogin    = "/api/users/login"
	PathRegister = "/api/users/register"

	// CodeOK は API が成功を表すコードです。
	CodeOK = 0

	maxReplyBytes = 1 << 20
)

// Reply は API の統一レスポンス形式です。
type Reply[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}

// OK はコードが成功を表すかどうかを返します。
func (r *Reply[T]) OK() bool {
	return r != nil && r.Code == CodeOK
}

// LoginRequest はログインのリクエストボディです。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginData はログイン成功時のペイロードです。
type LoginData struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
}

// RegisterRequest は登録のリクエストボディです。確認用パスワードは含めません。
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterData は登録成功時のペイロードです。
type RegisterData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TransportError は通信そのものが完了しなかった、または応答を解釈できなかったことを表します。
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("userapi: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

var errMissingCode = errors.New("reply has no code")

// Client は認証APIを呼び出します。
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithHTTPClient は使用する http.Client を差し替えます。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout は呼び出し全体のタイムアウトを設定します。0 はタイムアウトなしです。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient は Client を作成します。
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("userapi: base url is empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		// 呼び出し側から渡された http.Client は書き換えない
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Login は POST /api/users/login を呼び出します。
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Reply[LoginData], error) {
	var reply Reply[LoginData]
	if err := c.post(ctx, PathLogin, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Register は POST /api/users/register を呼び出します。
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Reply[RegisterData], error) {
	var reply Reply[RegisterData]
	if err := c.post(ctx, PathRegister, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// post はリクエストを1回だけ送信します。HTTPステータスが 2xx 以外でも
// 統一レスポンス形式のボディであればアプリケーション応答として扱います。
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("user api request failed",
			zap.String("endpoint", path),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if err := decodeEnvelope(io.LimitReader(resp.Body, maxReplyBytes), out); err != nil {
		c.logger.Warn("user api reply is not a JSON envelope",
			zap.String("endpoint", path),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return &TransportError{Endpoint: path, Err: fmt.Errorf("decode reply (status %d): %w", resp.StatusCode, err)}
	}

	c.logger.Debug("user api request completed",
		zap.String("endpoint", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

// decodeEnvelope は統一レスポンス形式を読み込みます。code が無いボディは成功扱いにせずエラーにします。
func decodeEnvelope(r io.Reader, out any) error {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return err
	}
	var head struct {
		Code *int `json:"code"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return err
	}
	if head.Code == nil {
		return errMissingCode
	}
	return json.Unmarshal(raw, out)
}
