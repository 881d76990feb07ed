package authform

import (
	"time"

	"github.com/yourusername/mygo-web/internal/session"
)

// Event は画面状態を変化させる入力です。
type Event interface {
	isEvent()
}

// FieldChanged は入力項目が編集されたことを表します。
type FieldChanged struct {
	Field Field
	Value string
}

// ModeToggled はユーザーがログイン/登録を切り替えたことを表します。
type ModeToggled struct{}

// SubmitRequested は送信ボタンが押されたことを表します。
type SubmitRequested struct{}

// SubmitCompleted は送信が終わったことを表します。
type SubmitCompleted struct {
	Outcome Outcome
}

// RegistrationSettled は登録成功後の待ち時間が経過したことを表します。
type RegistrationSettled struct{}

// SessionSaveFailed はログイン成功後にセッションを保存できなかったことを表します。
type SessionSaveFailed struct {
	Err error
}

func (FieldChanged) isEvent()        {}
func (ModeToggled) isEvent()         {}
func (SubmitRequested) isEvent()     {}
func (SubmitCompleted) isEvent()     {}
func (RegistrationSettled) isEvent() {}
func (SessionSaveFailed) isEvent()   {}

// Effect は Update の呼び出し側が実行する副作用です。
type Effect interface {
	isEffect()
}

// PersistSession はセッションを外部ストアへ保存します。
type PersistSession struct {
	Session session.Session
}

// Navigate は After 経過後に Path へ遷移します。
type Navigate struct {
	Path  string
	After time.Duration
}

// Dispatch は After 経過後に Event を Update へ渡します。
type Dispatch struct {
	Event Event
	After time.Duration
}

func (PersistSession) isEffect() {}
func (Navigate) isEffect()       {}
func (Dispatch) isEffect()       {}

// Reducer は状態遷移の規則です。
type Reducer struct {
	// RedirectDelay は成功メッセージを表示してから遷移するまでの時間です。
	RedirectDelay time.Duration
	// HomePath はログイン成功後の遷移先です。
	HomePath string
}

// DefaultReducer は既定の待ち時間と遷移先を使う Reducer です。
var DefaultReducer = Reducer{RedirectDelay: DefaultRedirectDelay, HomePath: HomePath}

// Update は DefaultReducer で状態を更新します。
func Update(s State, ev Event) (State, []Effect) {
	return DefaultReducer.Update(s, ev)
}

// Update は現在の状態とイベントから次の状態と副作用を返します。引数の状態は変更しません。
func (r Reducer) Update(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case FieldChanged:
		s.Form = s.Form.With(e.Field, e.Value)
		s.Errors = s.Errors.With(e.Field, "")
		s.ErrorMessage = ""
		return s, nil

	case ModeToggled:
		s.Mode = s.Mode.Toggle()
		s.Errors = FieldErrors{}
		s.ErrorMessage = ""
		s.SuccessMessage = ""
		return s, nil

	case SubmitRequested:
		if s.Loading {
			return s, nil
		}
		s.ErrorMessage = ""
		s.SuccessMessage = ""
		result := Validate(s.Form, s.Mode)
		s.Errors = result.Errors
		if !result.Valid {
			return s, nil
		}
		s.Loading = true
		return s, []Effect{NewCall(s.Mode, s.Form)}

	case SubmitCompleted:
		return r.complete(s, e.Outcome)

	case RegistrationSettled:
		s.Mode = ModeLogin
		s.Form.Email = ""
		s.Form.Password = ""
		s.Form.ConfirmPassword = ""
		return s, nil

	case SessionSaveFailed:
		s.SuccessMessage = ""
		s.ErrorMessage = MsgSessionSaveFailed
		return s, nil
	}
	return s, nil
}

func (r Reducer) complete(s State, out Outcome) (State, []Effect) {
	s.Loading = false

	switch out.Kind {
	case OutcomeSuccess:
		if out.Mode == ModeRegister {
			s.SuccessMessage = MsgRegistered
			return s, []Effect{Dispatch{Event: RegistrationSettled{}, After: r.RedirectDelay}}
		}
		if out.Session == nil {
			s.ErrorMessage = MsgNetworkError
			return s, nil
		}
		s.SuccessMessage = LoginSucceeded(out.Session.Username)
		return s, []Effect{
			PersistSession{Session: *out.Session},
			Navigate{Path: r.homePath(), After: r.RedirectDelay},
		}

	case OutcomeApplicationError:
		if out.Message != "" {
			s.ErrorMessage = out.Message
		} else {
			s.ErrorMessage = MsgOperationFailed
		}
		return s, nil

	default:
		s.ErrorMessage = MsgNetworkError
		return s, nil
	}
}

func (r Reducer) homePath() string {
	if r.HomePath == "" {
		return HomePath
	}
	return r.HomePath
}

// CallOf は副作用の中から送信リクエストを探します。
func CallOf(effects []Effect) (Call, bool) {
	for _, eff := range effects {
		if call, ok := eff.(Call); ok {
			return call, true
		}
	}
	return Call{}, false
}
