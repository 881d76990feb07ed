package web

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/yourusername/mygo-web/internal/authform"
	"github.com/yourusername/mygo-web/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageComingSoon = "coming_soon.html"
	pageAuth       = "auth.html"
	pageNotFound   = "not_found.html"
)

// LoadTemplates は埋め込みテンプレートを解析します。router.SetHTMLTemplate に渡して使います。
func LoadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// refresh は <meta http-equiv="refresh"> で行う遅延遷移です。
type refresh struct {
	Path  string
	After time.Duration
}

// Content は meta refresh の content 属性値です。秒は切り上げます。
func (r refresh) Content() string {
	seconds := int(math.Ceil(r.After.Seconds()))
	if seconds < 0 {
		seconds = 0
	}
	return strconv.Itoa(seconds) + "; url=" + r.Path
}

func loginPathFor(username string) string {
	if username == "" {
		return "/login"
	}
	return "/login?" + url.Values{"username": {username}}.Encode()
}

// page はすべてのテンプレートに共通するデータです。
type page struct {
	Title     string
	User      *session.Session
	CSRFToken string
	Refresh   *refresh
}

// authPage はログイン/登録画面のデータです。
type authPage struct {
	page
	State authform.State
}

func (p authPage) IsRegister() bool {
	return p.State.Mode == authform.ModeRegister
}

// Locked は入力を受け付けない状態かを返します。送信中と遷移待ちの間は操作させません。
func (p authPage) Locked() bool {
	return p.State.Loading || p.Refresh != nil
}

func authTitle(mode authform.Mode) string {
	if mode == authform.ModeRegister {
		return "アカウント作成"
	}
	return "ログイン"
}

// withoutPasswords はパスワードを画面や JSON に返さないよう空にしたコピーを返します。
func withoutPasswords(s authform.State) authform.State {
	s.Form.Password = ""
	s.Form.ConfirmPassword = ""
	return s
}
