package authform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mygo-web/internal/userapi"
)

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNav) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func fastReducer() Reducer {
	return Reducer{RedirectDelay: 10 * time.Millisecond, HomePath: "/"}
}

func fillLogin(c *Controller, username, password string) {
	c.Input(FieldUsername, username)
	c.Input(FieldPassword, password)
}

func TestControllerLoginSuccess(t *testing.T) {
	api := &fakeAPI{loginReply: loginOK("s1", 1, "bob")}
	store := newMemStore()
	nav := &recordingNav{}
	c := NewController(api, store, nav, WithReducer(fastReducer()))
	defer c.Close()

	fillLogin(c, "bob", "secret1")
	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, out.Kind)

	assert.Equal(t, map[string]string{
		"sessionId": "s1",
		"userId":    "1",
		"username":  "bob",
	}, store.snapshot())
	st := c.State()
	assert.Contains(t, st.SuccessMessage, "bob")
	assert.False(t, st.Loading)

	require.Eventually(t, func() bool { return len(nav.visited()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"/"}, nav.visited())
}

func TestControllerInvalidFormSkipsNetwork(t *testing.T) {
	api := &fakeAPI{loginReply: loginOK("s1", 1, "bob")}
	c := NewController(api, newMemStore(), &recordingNav{})
	defer c.Close()

	fillLogin(c, "ab", "secret1")
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidForm)
	assert.Zero(t, api.calls())
	assert.Equal(t, MsgUsernameTooShort, c.State().Errors.Username)
	assert.False(t, c.State().Loading)
}

func TestControllerApplicationErrorLeavesStoreUntouched(t *testing.T) {
	api := &fakeAPI{loginReply: &userapi.Reply[userapi.LoginData]{Code: 1, Message: "bad password"}}
	store := newMemStore()
	nav := &recordingNav{}
	c := NewController(api, store, nav, WithReducer(fastReducer()))
	defer c.Close()

	fillLogin(c, "bob", "secret1")
	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplicationError, out.Kind)
	assert.Equal(t, "bad password", c.State().ErrorMessage)
	assert.Empty(t, store.snapshot())

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, nav.visited())
}

func TestControllerTransportErrorClearsLoading(t *testing.T) {
	api := &fakeAPI{err: errConnRefused}
	c := NewController(api, newMemStore(), &recordingNav{})
	defer c.Close()

	fillLogin(c, "bob", "secret1")
	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransportError, out.Kind)
	st := c.State()
	assert.Equal(t, MsgNetworkError, st.ErrorMessage)
	assert.False(t, st.Loading)
}

func TestControllerRejectsOverlappingSubmit(t *testing.T) {
	api := &fakeAPI{
		loginReply: loginOK("s1", 1, "bob"),
		release:    make(chan struct{}),
		entered:    make(chan struct{}, 1),
	}
	c := NewController(api, newMemStore(), &recordingNav{}, WithReducer(fastReducer()))
	defer c.Close()
	fillLogin(c, "bob", "secret1")

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	<-api.entered
	assert.True(t, c.State().Loading, "送信中フラグは呼び出し前に立つ")

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitInFlight)

	close(api.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.calls())
	assert.False(t, c.State().Loading)
}

func TestControllerRegisterThenSwitchesToLogin(t *testing.T) {
	api := &fakeAPI{registerReply: &userapi.Reply[userapi.RegisterData]{
		Code: 0,
		Data: &userapi.RegisterData{UserID: 2, Username: "alice", Email: "alice@example.com"},
	}}
	store := newMemStore()
	c := NewController(api, store, &recordingNav{}, WithReducer(fastReducer()), WithInitialMode(ModeRegister))
	defer c.Close()

	form := validRegisterForm()
	for _, f := range Fields {
		c.Input(f, form.Value(f))
	}
	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgRegistered, c.State().SuccessMessage)
	assert.Empty(t, store.snapshot(), "登録ではセッションを保存しない")

	require.Eventually(t, func() bool { return c.State().Mode == ModeLogin }, time.Second, 5*time.Millisecond)
	assert.Equal(t, FormState{Username: "alice"}, c.State().Form)
	require.Len(t, api.registerCalls, 1)
	assert.Equal(t, userapi.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "abcdef"}, api.registerCalls[0])
}

func TestControllerCloseCancelsDelayedNavigation(t *testing.T) {
	api := &fakeAPI{loginReply: loginOK("s1", 1, "bob")}
	nav := &recordingNav{}
	c := NewController(api, newMemStore(), nav, WithReducer(Reducer{RedirectDelay: 30 * time.Millisecond}))

	fillLogin(c, "bob", "secret1")
	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	c.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, nav.visited())

	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestControllerSessionSaveFailure(t *testing.T) {
	api := &fakeAPI{loginReply: loginOK("s1", 1, "bob")}
	store := newMemStore()
	store.err = errors.New("quota exceeded")
	nav := &recordingNav{}
	c := NewController(api, store, nav, WithReducer(fastReducer()))
	defer c.Close()

	fillLogin(c, "bob", "secret1")
	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgSessionSaveFailed, c.State().ErrorMessage)

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, nav.visited())
}

func TestControllerToggleAndOnChange(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	c := NewController(&fakeAPI{}, newMemStore(), nil, WithOnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}))
	defer c.Close()

	c.Input(FieldUsername, "a")
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidForm)
	require.True(t, c.State().Errors.Any())

	c.Toggle()
	st := c.State()
	assert.Equal(t, ModeRegister, st.Mode)
	assert.False(t, st.Errors.Any())
	assert.Equal(t, "a", st.Form.Username)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestControllerReplyWithoutCodeIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error":"upstream unavailable"}`)
	}))
	defer srv.Close()

	api, err := userapi.NewClient(srv.URL)
	require.NoError(t, err)
	c := NewController(api, newMemStore(), &recordingNav{}, WithReducer(fastReducer()), WithInitialMode(ModeRegister))
	defer c.Close()

	form := validRegisterForm()
	for _, f := range Fields {
		c.Input(f, form.Value(f))
	}
	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransportError, out.Kind)

	st := c.State()
	assert.Empty(t, st.SuccessMessage)
	assert.Equal(t, MsgNetworkError, st.ErrorMessage)
	assert.False(t, st.Loading)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, ModeRegister, c.State().Mode, "登録完了後の切り替えは起きない")
}

// manualScheduler は Fire が呼ばれるまで予約を実行しません。
type manualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
	closed  bool
}

func (s *manualScheduler) After(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, fn)
	return func() {}
}

func (s *manualScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func TestControllerUsesInjectedScheduler(t *testing.T) {
	api := &fakeAPI{loginReply: loginOK("s1", 1, "bob")}
	nav := &recordingNav{}
	sched := &manualScheduler{}
	c := NewController(api, newMemStore(), nav, WithScheduler(sched))

	fillLogin(c, "bob", "secret1")
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{DefaultRedirectDelay}, sched.delays)
	assert.Empty(t, nav.visited(), "予約が実行されるまで遷移しない")

	sched.fire()
	assert.Equal(t, []string{"/"}, nav.visited())

	c.Close()
	assert.True(t, sched.closed)
}
