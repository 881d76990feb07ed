package authform

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/mygo-web/internal/schedule"
	"github.com/yourusername/mygo-web/internal/session"
)

var (
	// ErrInvalidForm は入力検証に失敗したため送信しなかったことを表します。
	ErrInvalidForm = errors.New("authform: form is invalid")
	// ErrSubmitInFlight は送信中のため新しい送信を受け付けなかったことを表します。
	ErrSubmitInFlight = errors.New("authform: submission already in flight")
	// ErrClosed は Close 済みの Controller への操作を表します。
	ErrClosed = errors.New("authform: controller closed")
)

// Navigator は画面遷移を行います。
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc は関数を Navigator として使うためのアダプターです。
type NavigatorFunc func(path string)

// Navigate は f(path) を呼び出します。
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Controller はフォーム1つ分の状態を保持し、副作用を実行します。
// 遅延遷移は Controller の寿命に紐づき、Close で取り消されます。
type Controller struct {
	mu      sync.Mutex
	state   State
	closed  bool
	reducer Reducer

	api    Authenticator
	store  session.Writer
	nav    Navigator
	timers schedule.Scheduler
	logger *zap.Logger

	onChange func(State)
}

// ControllerOption は Controller の設定を変更します。
type ControllerOption func(*Controller)

// WithReducer は遷移規則（待ち時間・遷移先）を差し替えます。
func WithReducer(r Reducer) ControllerOption {
	return func(c *Controller) { c.reducer = r }
}

// WithInitialMode は初期モードを設定します。
func WithInitialMode(m Mode) ControllerOption {
	return func(c *Controller) { c.state.Mode = m }
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithScheduler は遅延遷移の予約先を差し替えます。Close で予約ごと閉じられます。
func WithScheduler(s schedule.Scheduler) ControllerOption {
	return func(c *Controller) {
		if s != nil {
			c.timers = s
		}
	}
}

// WithOnChange は状態が変わるたびに呼ばれる関数を設定します。
// 関数は Controller のロック中に呼ばれるため、Controller のメソッドを呼んではいけません。
func WithOnChange(fn func(State)) ControllerOption {
	return func(c *Controller) { c.onChange = fn }
}

// NewController は Controller を作成します。
func NewController(api Authenticator, store session.Writer, nav Navigator, opts ...ControllerOption) *Controller {
	c := &Controller{
		state:   NewState(ModeLogin),
		reducer: DefaultReducer,
		api:     api,
		store:   store,
		nav:     nav,
		timers:  schedule.NewTimers(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State は現在の状態のコピーを返します。
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Input は項目の編集を反映します。
func (c *Controller) Input(field Field, value string) {
	c.dispatch(FieldChanged{Field: field, Value: value})
}

// Toggle はログイン/登録を切り替えます。
func (c *Controller) Toggle() {
	c.dispatch(ModeToggled{})
}

// Submit は入力を検証し、問題なければ認証APIへ1回だけ送信します。
// 送信中フラグは呼び出し前に立て、結果にかかわらず必ず下ろします。
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if c.state.Loading {
		c.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	next, effects := c.reducer.Update(c.state, SubmitRequested{})
	c.setLocked(next)
	call, ok := CallOf(effects)
	c.mu.Unlock()

	if !ok {
		return Outcome{}, ErrInvalidForm
	}

	out := Perform(ctx, c.api, call)
	if out.Kind == OutcomeTransportError {
		c.logger.Warn("auth submit failed",
			zap.String("mode", call.Mode.String()),
			zap.Error(out.Err),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next, effects = c.reducer.Update(c.state, SubmitCompleted{Outcome: out})
	c.setLocked(next)
	c.applyLocked(effects)
	return out, nil
}

// Close は予約済みの遅延遷移をすべて取り消します。
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.timers.Close()
}

func (c *Controller) dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	next, effects := c.reducer.Update(c.state, ev)
	c.setLocked(next)
	c.applyLocked(effects)
}

func (c *Controller) setLocked(s State) {
	if s == c.state {
		return
	}
	c.state = s
	if c.onChange != nil {
		c.onChange(s)
	}
}

func (c *Controller) applyLocked(effects []Effect) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case PersistSession:
			if err := session.Write(c.store, e.Session); err != nil {
				c.logger.Error("failed to persist session", zap.Error(err))
				next, _ := c.reducer.Update(c.state, SessionSaveFailed{Err: err})
				c.setLocked(next)
				// 保存に失敗した場合は遷移しない
				return
			}
		case Navigate:
			path := e.Path
			c.timers.After(e.After, func() {
				if c.nav != nil {
					c.nav.Navigate(path)
				}
			})
		case Dispatch:
			ev := e.Event
			c.timers.After(e.After, func() { c.dispatch(ev) })
		}
	}
}
