// Package web はログイン/登録画面とフォーム用 JSON API の HTTP ハンドラーを提供します。
package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mygo-web/internal/auth"
	"github.com/yourusername/mygo-web/internal/authform"
	"github.com/yourusername/mygo-web/internal/inflight"
	"github.com/yourusername/mygo-web/internal/logging"
	"github.com/yourusername/mygo-web/internal/session"
)

// Handler は画面と API のハンドラーをまとめた構造体です。
type Handler struct {
	api     authform.Authenticator
	auth    *auth.Manager
	guard   inflight.Guard
	reducer authform.Reducer
	logger  *zap.Logger
}

// NewHandler は Handler を作成します。guard が nil の場合はプロセス内ロックを使います。
func NewHandler(api authform.Authenticator, manager *auth.Manager, guard inflight.Guard, reducer authform.Reducer, logger *zap.Logger) *Handler {
	if guard == nil {
		guard = inflight.NewMemoryGuard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		api:     api,
		auth:    manager,
		guard:   guard,
		reducer: reducer,
		logger:  logger,
	}
}

// submission は1回の送信処理の結果です。
type submission struct {
	status   int
	state    authform.State
	outcome  *authform.Outcome
	redirect *refresh
}

// formInput はフォーム送信で受け取る値です。
type formInput struct {
	Mode string `form:"mode" json:"mode"`
	authform.FormState
}

func bindFormInput(c *gin.Context) (formInput, bool) {
	var in formInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_REQUEST",
			"message": "フォームの内容を読み取れませんでした",
		})
		return formInput{}, false
	}
	return in, true
}

// ShowAuth は GET /auth, /login, /register のハンドラーです。
func (h *Handler) ShowAuth(mode authform.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := authform.NewState(mode)
		if username := strings.TrimSpace(c.Query("username")); username != "" {
			state, _ = h.reducer.Update(state, authform.FieldChanged{Field: authform.FieldUsername, Value: username})
		}
		h.renderAuth(c, http.StatusOK, state, nil)
	}
}

// Submit は POST /auth/submit のハンドラーです。
func (h *Handler) Submit(c *gin.Context) {
	in, ok := bindFormInput(c)
	if !ok {
		return
	}

	result := h.submit(c, authform.ParseMode(in.Mode), in.FormState)
	h.renderAuth(c, result.status, result.state, result.redirect)
}

// Toggle は POST /auth/toggle のハンドラーです。入力済みの値を保ったままモードを切り替えます。
func (h *Handler) Toggle(c *gin.Context) {
	in, ok := bindFormInput(c)
	if !ok {
		return
	}

	state := authform.NewState(authform.ParseMode(in.Mode))
	state.Form = in.FormState
	state, _ = h.reducer.Update(state, authform.ModeToggled{})
	h.renderAuth(c, http.StatusOK, state, nil)
}

// submit は検証・二重送信の確認・API 呼び出し・副作用の適用までを行います。
// 画面と JSON API の両方から使います。
func (h *Handler) submit(c *gin.Context, mode authform.Mode, form authform.FormState) submission {
	logger := logging.FromContext(c, h.logger)

	state := authform.NewState(mode)
	state.Form = form
	state, effects := h.reducer.Update(state, authform.SubmitRequested{})
	call, ok := authform.CallOf(effects)
	if !ok {
		return submission{status: http.StatusUnprocessableEntity, state: state}
	}

	ctx := c.Request.Context()
	key := h.auth.ClientID(c)
	token, acquired, err := h.guard.Acquire(ctx, key)
	switch {
	case err != nil:
		// ロック基盤の障害で送信を止めない
		logger.Warn("submit guard unavailable", zap.Error(err))
	case !acquired:
		state.Loading = false
		state.ErrorMessage = authform.MsgSubmitInFlight
		return submission{status: http.StatusConflict, state: state}
	default:
		defer h.release(key, token, logger)
	}

	outcome := authform.Perform(ctx, h.api, call)
	logOutcome(logger, outcome)

	state, effects = h.reducer.Update(state, authform.SubmitCompleted{Outcome: outcome})
	state, redirect := h.applyEffects(c, state, effects, logger)
	return submission{
		status:   http.StatusOK,
		state:    state,
		outcome:  &outcome,
		redirect: redirect,
	}
}

func (h *Handler) release(key, token string, logger *zap.Logger) {
	// リクエストが切断されていてもロックは解放する
	if err := h.guard.Release(context.Background(), key, token); err != nil {
		logger.Warn("failed to release submit guard", zap.Error(err))
	}
}

// applyEffects は Update が返した副作用をブラウザセッションと遅延遷移に置き換えます。
func (h *Handler) applyEffects(c *gin.Context, state authform.State, effects []authform.Effect, logger *zap.Logger) (authform.State, *refresh) {
	var redirect *refresh
	for _, eff := range effects {
		switch e := eff.(type) {
		case authform.PersistSession:
			if err := session.Write(h.auth.SessionWriter(c), e.Session); err != nil {
				logger.Error("failed to persist session", zap.Error(err))
				state, _ = h.reducer.Update(state, authform.SessionSaveFailed{Err: err})
				return state, nil
			}
		case authform.Navigate:
			redirect = &refresh{Path: e.Path, After: e.After}
		case authform.Dispatch:
			if _, ok := e.Event.(authform.RegistrationSettled); ok {
				redirect = &refresh{Path: loginPathFor(strings.TrimSpace(state.Form.Username)), After: e.After}
				continue
			}
			logger.Warn("unsupported delayed event", zap.String("event", fmt.Sprintf("%T", e.Event)))
		}
	}
	return state, redirect
}

func (h *Handler) renderAuth(c *gin.Context, status int, state authform.State, redirect *refresh) {
	data := authPage{
		page:  h.basePage(c, authTitle(state.Mode)),
		State: withoutPasswords(state),
	}
	data.Refresh = redirect
	c.HTML(status, pageAuth, data)
}

func (h *Handler) basePage(c *gin.Context, title string) page {
	p := page{
		Title:     title,
		CSRFToken: h.auth.CSRFToken(c),
	}
	if user, ok := auth.UserFromContext(c); ok {
		p.User = &user
	}
	return p
}

func logOutcome(logger *zap.Logger, out authform.Outcome) {
	fields := []zap.Field{
		zap.Stringer("mode", out.Mode),
		zap.Stringer("outcome", out.Kind),
		zap.Int("code", out.Code),
	}
	if out.Kind == authform.OutcomeTransportError {
		logger.Warn("auth submit failed", append(fields, zap.Error(out.Err))...)
		return
	}
	logger.Info("auth submit completed", fields...)
}
