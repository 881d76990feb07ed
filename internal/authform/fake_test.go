package authform

import (
	"context"
	"errors"
	"sync"

	"github.com/yourusername/mygo-web/internal/userapi"
)

// fakeAPI は呼び出し回数と受け取ったリクエストを記録する認証APIです。
type fakeAPI struct {
	mu sync.Mutex

	loginReply    *userapi.Reply[userapi.LoginData]
	registerReply *userapi.Reply[userapi.RegisterData]
	err           error

	// release が設定されている場合、呼び出しはそこから値を受け取るまでブロックします。
	release chan struct{}
	entered chan struct{}

	loginCalls    []userapi.LoginRequest
	registerCalls []userapi.RegisterRequest
}

func (f *fakeAPI) wait(ctx context.Context) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release == nil {
		return nil
	}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) Login(ctx context.Context, req userapi.LoginRequest) (*userapi.Reply[userapi.LoginData], error) {
	f.mu.Lock()
	f.loginCalls = append(f.loginCalls, req)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.loginReply, f.err
}

func (f *fakeAPI) Register(ctx context.Context, req userapi.RegisterRequest) (*userapi.Reply[userapi.RegisterData], error) {
	f.mu.Lock()
	f.registerCalls = append(f.registerCalls, req)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.registerReply, f.err
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loginCalls) + len(f.registerCalls)
}

func loginOK(sessionID string, userID int64, username string) *userapi.Reply[userapi.LoginData] {
	return &userapi.Reply[userapi.LoginData]{
		Code:    0,
		Message: "success",
		Data:    &userapi.LoginData{SessionID: sessionID, UserID: userID, Username: username},
	}
}

// memStore はテスト用のキーバリューストアです。
type memStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (m *memStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *memStore) snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:8081: connect: connection refused")
