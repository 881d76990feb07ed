package authform

import (
	"context"
	"errors"

	"github.com/yourusername/mygo-web/internal/session"
	"github.com/yourusername/mygo-web/internal/userapi"
)

// Authenticator は認証APIです。*userapi.Client が実装します。
type Authenticator interface {
	Login(ctx context.Context, req userapi.LoginRequest) (*userapi.Reply[userapi.LoginData], error)
	Register(ctx context.Context, req userapi.RegisterRequest) (*userapi.Reply[userapi.RegisterData], error)
}

var _ Authenticator = (*userapi.Client)(nil)

// OutcomeKind は送信結果の種別です。
type OutcomeKind int

const (
	// OutcomeSuccess は API がコード 0 を返したことを表します。
	OutcomeSuccess OutcomeKind = iota + 1
	// OutcomeApplicationError は API が 0 以外のコードを返したことを表します。
	OutcomeApplicationError
	// OutcomeTransportError は通信が完了しなかった、または応答を解釈できなかったことを表します。
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeApplicationError:
		return "application_error"
	case OutcomeTransportError:
		return "transport_error"
	}
	return "unknown"
}

// MarshalText は JSON API 向けの表現です。
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome は1回の送信の結果です。
type Outcome struct {
	Kind    OutcomeKind
	Mode    Mode
	Code    int
	Message string

	// Session はログイン成功時のみ設定されます。
	Session *session.Session
	// Registered は登録成功時のみ設定されます。
	Registered *userapi.RegisterData
	// Err は OutcomeTransportError の原因です。
	Err error
}

// Call は送信すべきリクエストです。Update が SubmitRequested に対して返します。
type Call struct {
	Mode     Mode
	Login    userapi.LoginRequest
	Register userapi.RegisterRequest
}

func (Call) isEffect() {}

// NewCall はフォームから送信内容を組み立てます。確認用パスワードは送信しません。
func NewCall(mode Mode, form FormState) Call {
	call := Call{Mode: mode}
	if mode == ModeRegister {
		call.Register = userapi.RegisterRequest{
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password,
		}
	} else {
		call.Login = userapi.LoginRequest{
			Username: form.Username,
			Password: form.Password,
		}
	}
	return call
}

var errEmptyLoginData = errors.New("login reply has no data")

// Perform はモードに応じたエンドポイントへリクエストを1回だけ送信し、結果を分類して返します。
// エラーを返すことはなく、失敗はすべて Outcome の種別で表します。
func Perform(ctx context.Context, api Authenticator, call Call) Outcome {
	if api == nil {
		return transportFailure(call.Mode, errors.New("authenticator is nil"))
	}

	if call.Mode == ModeRegister {
		reply, err := api.Register(ctx, call.Register)
		if err != nil {
			return transportFailure(call.Mode, err)
		}
		if reply == nil {
			return transportFailure(call.Mode, errors.New("empty reply"))
		}
		if !reply.OK() {
			return applicationFailure(call.Mode, reply.Code, reply.Message)
		}
		return Outcome{
			Kind:       OutcomeSuccess,
			Mode:       call.Mode,
			Code:       reply.Code,
			Message:    reply.Message,
			Registered: reply.Data,
		}
	}

	reply, err := api.Login(ctx, call.Login)
	if err != nil {
		return transportFailure(call.Mode, err)
	}
	if reply == nil {
		return transportFailure(call.Mode, errors.New("empty reply"))
	}
	if !reply.OK() {
		return applicationFailure(call.Mode, reply.Code, reply.Message)
	}
	// セッションを保存できない成功応答は通信エラーと同じ扱い
	if reply.Data == nil || reply.Data.SessionID == "" {
		return transportFailure(call.Mode, errEmptyLoginData)
	}
	return Outcome{
		Kind:    OutcomeSuccess,
		Mode:    call.Mode,
		Code:    reply.Code,
		Message: reply.Message,
		Session: &session.Session{
			ID:       reply.Data.SessionID,
			UserID:   reply.Data.UserID,
			Username: reply.Data.Username,
		},
	}
}

func applicationFailure(mode Mode, code int, message string) Outcome {
	return Outcome{Kind: OutcomeApplicationError, Mode: mode, Code: code, Message: message}
}

func transportFailure(mode Mode, err error) Outcome {
	return Outcome{Kind: OutcomeTransportError, Mode: mode, Err: err}
}
