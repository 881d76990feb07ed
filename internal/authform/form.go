// Package authform はログイン/新規登録フォームの入力検証・送信・画面状態の遷移を扱います。
//
// 画面状態は State として値で受け渡し、Update（Reducer）だけが新しい State と
// 実行すべき副作用（Effect）を返します。副作用の実行は Controller や Web ハンドラーが担います。
package authform

import (
	"fmt"
	"strings"
)

// Mode はフォームがログイン用か新規登録用かを表します。
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Toggle は反対のモードを返します。
func (m Mode) Toggle() Mode {
	if m == ModeRegister {
		return ModeLogin
	}
	return ModeRegister
}

// ParseMode は文字列からモードを判定します。"register" 以外はログインとして扱います。
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "register") {
		return ModeRegister
	}
	return ModeLogin
}

// MarshalText は JSON 等でのモード表現です。
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText は "login" / "register" を受け付けます。
func (m *Mode) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "login":
		*m = ModeLogin
	case "register":
		*m = ModeRegister
	default:
		return fmt.Errorf("unknown mode %q", string(b))
	}
	return nil
}

// Field はフォームの入力項目です。
type Field string

const (
	FieldUsername        Field = "username"
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"
)

// Fields はすべての入力項目を表示順に並べたものです。
var Fields = []Field{FieldUsername, FieldEmail, FieldPassword, FieldConfirmPassword}

// ParseField は項目名を検証して Field を返します。
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// FormState はフォームの入力値です。
type FormState struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// Value は項目の値を返します。
func (f FormState) Value(field Field) string {
	switch field {
	case FieldUsername:
		return f.Username
	case FieldEmail:
		return f.Email
	case FieldPassword:
		return f.Password
	case FieldConfirmPassword:
		return f.ConfirmPassword
	}
	return ""
}

// With は項目を書き換えたコピーを返します。
func (f FormState) With(field Field, value string) FormState {
	switch field {
	case FieldUsername:
		f.Username = value
	case FieldEmail:
		f.Email = value
	case FieldPassword:
		f.Password = value
	case FieldConfirmPassword:
		f.ConfirmPassword = value
	}
	return f
}

// FieldErrors は項目ごとのエラーメッセージです。空文字はエラーなしを表します。
type FieldErrors struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Get は項目のエラーメッセージを返します。
func (e FieldErrors) Get(field Field) string {
	switch field {
	case FieldUsername:
		return e.Username
	case FieldEmail:
		return e.Email
	case FieldPassword:
		return e.Password
	case FieldConfirmPassword:
		return e.ConfirmPassword
	}
	return ""
}

// With は項目のエラーを書き換えたコピーを返します。
func (e FieldErrors) With(field Field, msg string) FieldErrors {
	switch field {
	case FieldUsername:
		e.Username = msg
	case FieldEmail:
		e.Email = msg
	case FieldPassword:
		e.Password = msg
	case FieldConfirmPassword:
		e.ConfirmPassword = msg
	}
	return e
}

// Any はいずれかの項目にエラーがあるかを返します。
func (e FieldErrors) Any() bool {
	return e != FieldErrors{}
}

// State は画面全体の状態です。値として扱い、更新は Update を通して行います。
type State struct {
	Mode           Mode        `json:"mode"`
	Form           FormState   `json:"form"`
	Errors         FieldErrors `json:"errors"`
	ErrorMessage   string      `json:"error,omitempty"`
	SuccessMessage string      `json:"success,omitempty"`
	Loading        bool        `json:"loading"`
}

// NewState は指定モードの初期状態を返します。
func NewState(mode Mode) State {
	return State{Mode: mode}
}
