package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mygo-web/internal/auth"
	"github.com/yourusername/mygo-web/internal/authform"
)

// formRequest は /api/form 配下の API が受け取る本文です。
type formRequest struct {
	Mode authform.Mode      `json:"mode"`
	Form authform.FormState `json:"form"`
}

// submitResponse は POST /api/form/submit の応答です。
type submitResponse struct {
	Outcome         *authform.OutcomeKind `json:"outcome"`
	Message         string                `json:"message,omitempty"`
	State           authform.State        `json:"state"`
	Redirect        string                `json:"redirect,omitempty"`
	RedirectAfterMs int64                 `json:"redirectAfterMs,omitempty"`
}

// sessionResponse は GET /api/form/session の応答です。
// セッションIDは HttpOnly クッキーの中だけに置き、応答には含めない。
type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *sessionUser `json:"user,omitempty"`
}

type sessionUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func bindFormRequest(c *gin.Context) (formRequest, bool) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": "リクエストの形式が正しくありません",
		})
		return formRequest{}, false
	}
	return req, true
}

// ValidateForm は POST /api/form/validate のハンドラーです。API は呼び出しません。
func (h *Handler) ValidateForm(c *gin.Context) {
	req, ok := bindFormRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, authform.Validate(req.Form, req.Mode))
}

// SubmitForm は POST /api/form/submit のハンドラーです。画面からの送信と同じ処理を JSON で返します。
func (h *Handler) SubmitForm(c *gin.Context) {
	req, ok := bindFormRequest(c)
	if !ok {
		return
	}

	result := h.submit(c, req.Mode, req.Form)
	// ログイン成功時はトークンが発行し直されるため、毎回最新の値を返す
	c.Header(auth.CSRFHeader, h.auth.CSRFToken(c))
	resp := submitResponse{State: withoutPasswords(result.state)}
	if result.outcome != nil {
		kind := result.outcome.Kind
		resp.Outcome = &kind
		resp.Message = result.outcome.Message
	}
	if result.redirect != nil {
		resp.Redirect = result.redirect.Path
		resp.RedirectAfterMs = result.redirect.After.Milliseconds()
	}
	c.JSON(result.status, resp)
}

// Session は GET /api/form/session のハンドラーです。CSRF トークンを X-CSRF-Token ヘッダーで返します。
func (h *Handler) Session(c *gin.Context) {
	c.Header(auth.CSRFHeader, h.auth.CSRFToken(c))

	var resp sessionResponse
	if user, ok := auth.UserFromContext(c); ok {
		resp.Authenticated = true
		resp.User = &sessionUser{UserID: user.UserID, Username: user.Username}
	}
	c.JSON(http.StatusOK, resp)
}
