// Package schedule はコンポーネントの寿命に紐づいた、キャンセル可能な遅延コールバックを提供します。
package schedule

import (
	"sync"
	"time"
)

// Scheduler は遅延コールバックの予約先です。*Timers が実装します。
type Scheduler interface {
	// After は d 経過後に fn を実行するよう予約します。返り値の関数で予約を取り消せます。
	After(d time.Duration, fn func()) (cancel func())
	// Close は未実行の予約をすべて取り消します。
	Close()
}

var _ Scheduler = (*Timers)(nil)

// Timers は time.AfterFunc をまとめて管理し、Close で未実行の予約をすべて取り消します。
type Timers struct {
	mu      sync.Mutex
	closed  bool
	nextID  uint64
	pending map[uint64]*time.Timer
}

// NewTimers は Timers を作成します。
func NewTimers() *Timers {
	return &Timers{pending: make(map[uint64]*time.Timer)}
}

// After は d 経過後に fn を実行します。Close 済みの場合は何も予約しません。
func (t *Timers) After(d time.Duration, fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || fn == nil {
		return func() {}
	}

	t.nextID++
	id := t.nextID
	t.pending[id] = time.AfterFunc(d, func() {
		if !t.take(id) {
			return
		}
		fn()
	})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if timer, ok := t.pending[id]; ok {
			timer.Stop()
			delete(t.pending, id)
		}
	}
}

// take は予約を取り出し、まだ実行してよいかを返します。
func (t *Timers) take(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if _, ok := t.pending[id]; !ok {
		return false
	}
	delete(t.pending, id)
	return true
}

// Pending は未実行の予約数を返します。
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close はすべての予約を取り消します。以降の After は無視されます。
func (t *Timers) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}
