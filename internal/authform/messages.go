package authform

import (
	"fmt"
	"time"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	// DefaultRedirectDelay は成功メッセージを表示してから画面遷移するまでの時間です。
	DefaultRedirectDelay = 1500 * time.Millisecond
	// HomePath はログイン成功後の遷移先です。
	HomePath = "/"
)

// 画面に表示するメッセージ
const (
	MsgUsernameRequired  = "ユーザー名を入力してください"
	MsgUsernameTooShort  = "ユーザー名は3文字以上で入力してください"
	MsgEmailRequired     = "メールアドレスを入力してください"
	MsgEmailInvalid      = "有効なメールアドレスを入力してください"
	MsgPasswordRequired  = "パスワードを入力してください"
	MsgPasswordTooShort  = "パスワードは6文字以上で入力してください"
	MsgConfirmRequired   = "確認用パスワードを入力してください"
	MsgPasswordMismatch  = "パスワードが一致しません"
	MsgRegistered        = "登録が完了しました。ログインしてください。"
	MsgOperationFailed   = "処理に失敗しました。もう一度お試しください。"
	MsgNetworkError      = "ネットワークエラーが発生しました。接続を確認してから再度お試しください。"
	MsgSubmitInFlight    = "送信処理中です。しばらくお待ちください。"
	MsgSessionSaveFailed = "ログイン情報の保存に失敗しました。もう一度お試しください。"
)

// LoginSucceeded はログイン成功時のメッセージを返します。
func LoginSucceeded(username string) string {
	return fmt.Sprintf("おかえりなさい、%s さん！", username)
}
