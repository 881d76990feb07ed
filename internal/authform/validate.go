package authform

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// local@domain.tld の形だけを確認する簡易パターン
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult は入力検証の結果です。
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Errors FieldErrors `json:"errors"`
}

// Validate はフォームを検証します。副作用はなく、すべての規則を評価して
// 失敗した項目すべてにメッセージを設定します。
// ログインモードではメールアドレスと確認用パスワードを検証しません。
func Validate(form FormState, mode Mode) ValidationResult {
	var errs FieldErrors

	username := strings.TrimSpace(form.Username)
	switch {
	case username == "":
		errs.Username = MsgUsernameRequired
	case utf8.RuneCountInString(username) < minUsernameLength:
		errs.Username = MsgUsernameTooShort
	}

	if mode == ModeRegister {
		switch {
		case strings.TrimSpace(form.Email) == "":
			errs.Email = MsgEmailRequired
		case !emailPattern.MatchString(form.Email):
			errs.Email = MsgEmailInvalid
		}
	}

	switch {
	case form.Password == "":
		errs.Password = MsgPasswordRequired
	case utf8.RuneCountInString(form.Password) < minPasswordLength:
		errs.Password = MsgPasswordTooShort
	}

	if mode == ModeRegister {
		switch {
		case form.ConfirmPassword == "":
			errs.ConfirmPassword = MsgConfirmRequired
		case form.ConfirmPassword != form.Password:
			errs.ConfirmPassword = MsgPasswordMismatch
		}
	}

	return ValidationResult{Valid: !errs.Any(), Errors: errs}
}
