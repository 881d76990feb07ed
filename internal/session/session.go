// Package session はログイン成功時に発行されるセッション情報と、その保存先となる
// キーバリューストアの抽象を提供します。
package session

import (
	"errors"
	"fmt"
	"strconv"
)

// 保存先に書き込むキー名です。ブラウザ版の localStorage と同じ名前を使います。
const (
	KeySessionID = "sessionId"
	KeyUserID    = "userId"
	KeyUsername  = "username"
)

// Session はログインAPIが返すセッション識別子とユーザー情報です。
type Session struct {
	ID       string `json:"session_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Writer はセッションを書き込むキーバリューストアです。
type Writer interface {
	Set(key, value string) error
}

// Reader はセッションを読み出すキーバリューストアです。
type Reader interface {
	Get(key string) (string, bool)
}

// ErrNotFound はストアにセッションが保存されていないことを表します。
var ErrNotFound = errors.New("session: not found")

// Write はセッションの3つのキーをストアへ書き込みます。
func Write(w Writer, s Session) error {
	if w == nil {
		return errors.New("session: writer is nil")
	}
	if s.ID == "" {
		return errors.New("session: id is empty")
	}
	pairs := [...][2]string{
		{KeySessionID, s.ID},
		{KeyUserID, strconv.FormatInt(s.UserID, 10)},
		{KeyUsername, s.Username},
	}
	for _, kv := range pairs {
		if err := w.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("session: set %s: %w", kv[0], err)
		}
	}
	return nil
}

// Read はストアからセッションを復元します。
func Read(r Reader) (Session, error) {
	id, ok := r.Get(KeySessionID)
	if !ok || id == "" {
		return Session{}, ErrNotFound
	}
	s := Session{ID: id}
	if raw, ok := r.Get(KeyUserID); ok && raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Session{}, fmt.Errorf("session: invalid %s %q: %w", KeyUserID, raw, err)
		}
		s.UserID = userID
	}
	s.Username, _ = r.Get(KeyUsername)
	return s, nil
}
