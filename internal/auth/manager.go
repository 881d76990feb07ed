// Package auth はブラウザセッション（ログイン状態・CSRFトークン・クライアントID）を管理します。
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/mygo-web/internal/config"
	"github.com/yourusername/mygo-web/internal/session"
)

const (
	SessionCookieName  = "mygo_session"
	sessionKeyIssuedAt = "issued_at"
	sessionKeyCSRF     = "csrf_token"
	sessionKeyClientID = "client_id"

	// CSRFField はフォームに埋め込む CSRF トークンの項目名です。
	CSRFField  = "csrf_token"
	CSRFHeader = "X-CSRF-Token"
)

var maxSessionLifetime = 24 * time.Hour

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func SessionMaxAgeSeconds() int {
	return int(maxSessionLifetime.Seconds())
}

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// Manager はブラウザセッションに関する処理をまとめた構造体です。
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
	}
}

// NewStore はセッション用のクッキーストアを作成します。
// SESSION_SECRET が未設定の場合はプロセス内だけで有効な鍵を生成します（開発用）。
func (m *Manager) NewStore() sessions.Store {
	secret := []byte(m.cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			secret = []byte("insecure-dev-key-please-set-SESSION_SECRET")
		}
		m.logger.Warn("using ephemeral session key; set SESSION_SECRET for production")
	}

	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   m.cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// ginSession は gin のセッションを session.Writer / session.Reader として扱うアダプターです。
type ginSession struct {
	s sessions.Session
}

// Set はキーを保存します。sessionId の書き込みはログインとみなし、
// CSRF トークンとクライアントIDを新しく発行し直します。
func (g ginSession) Set(key, value string) error {
	g.s.Set(key, value)
	if key == session.KeySessionID {
		token, err := generateToken()
		if err != nil {
			return err
		}
		g.s.Set(sessionKeyIssuedAt, time.Now().Unix())
		g.s.Set(sessionKeyCSRF, token)
		g.s.Set(sessionKeyClientID, uuid.NewString())
	}
	return g.s.Save()
}

func (g ginSession) Get(key string) (string, bool) {
	v, ok := g.s.Get(key).(string)
	return v, ok
}

// SessionWriter はログイン情報をブラウザセッションへ書き込む session.Writer を返します。
func (m *Manager) SessionWriter(c *gin.Context) session.Writer {
	return ginSession{s: sessions.Default(c)}
}

// CurrentUser はログイン中のユーザーを返します。有効期限を過ぎたセッションは破棄します。
func (m *Manager) CurrentUser(c *gin.Context) (session.Session, bool) {
	s := sessions.Default(c)
	user, err := session.Read(ginSession{s: s})
	if err != nil {
		return session.Session{}, false
	}

	issuedAt := readUnix(s.Get(sessionKeyIssuedAt))
	if issuedAt.IsZero() || time.Since(issuedAt) > maxSessionLifetime {
		clearLogin(s)
		if err := s.Save(); err != nil {
			m.logger.Warn("failed to clear expired session", zap.Error(err))
		}
		return session.Session{}, false
	}
	return user, true
}

// LoadUser はログイン中のユーザーを gin.Context に格納するミドルウェアを返します。
func (m *Manager) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := m.CurrentUser(c); ok {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// UserFromContext は LoadUser が格納したユーザーを返します。
func UserFromContext(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return session.Session{}, false
	}
	user, ok := v.(session.Session)
	return user, ok
}

// Logout は POST /logout のハンドラーです。ログイン情報を削除してトップへ戻します。
func (m *Manager) Logout(c *gin.Context) {
	s := sessions.Default(c)
	clearLogin(s)
	if err := s.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの削除に失敗しました",
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// CSRFToken はセッションの CSRF トークンを返します。未発行の場合は発行します。
func (m *Manager) CSRFToken(c *gin.Context) string {
	s := sessions.Default(c)
	if token, ok := s.Get(sessionKeyCSRF).(string); ok && token != "" {
		return token
	}
	token, err := generateToken()
	if err != nil {
		m.logger.Error("failed to generate csrf token", zap.Error(err))
		return ""
	}
	s.Set(sessionKeyCSRF, token)
	if err := s.Save(); err != nil {
		m.logger.Warn("failed to save csrf token", zap.Error(err))
	}
	return token
}

// VerifyCSRF はフォーム項目 csrf_token または X-CSRF-Token ヘッダーを検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		s := sessions.Default(c)
		expected, ok := s.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF トークンが設定されていません",
			})
			return
		}

		received := c.GetHeader(CSRFHeader)
		if received == "" {
			received = c.PostForm(CSRFField)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF トークンが一致しません",
			})
			return
		}

		c.Next()
	}
}

// ClientID はブラウザごとに固定の識別子を返します。送信中ロックのキーに使います。
func (m *Manager) ClientID(c *gin.Context) string {
	s := sessions.Default(c)
	if id, ok := s.Get(sessionKeyClientID).(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	s.Set(sessionKeyClientID, id)
	if err := s.Save(); err != nil {
		m.logger.Warn("failed to save client id", zap.Error(err))
	}
	return id
}

func clearLogin(s sessions.Session) {
	s.Delete(session.KeySessionID)
	s.Delete(session.KeyUserID)
	s.Delete(session.KeyUsername)
	s.Delete(sessionKeyIssuedAt)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
