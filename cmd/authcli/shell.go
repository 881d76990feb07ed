package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/yourusername/mygo-web/internal/authform"
	"github.com/yourusername/mygo-web/internal/session"
)

const helpText = "Available commands: help, mode, toggle, set <field> <value>, show, submit, session, logout, exit\n" +
	"Fields: username, email, password, confirmPassword"

// shell は標準入力のコマンドで Controller を操作します。
type shell struct {
	ctrl  *authform.Controller
	store *session.FileStore

	// タイマーからの出力と競合しないように書き込みを直列化する
	mu       sync.Mutex
	out      io.Writer
	lastMode authform.Mode
}

func newShell(out io.Writer, store *session.FileStore) *shell {
	return &shell{out: out, store: store}
}

// attach は操作対象の Controller を設定します。
func (s *shell) attach(ctrl *authform.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl = ctrl
	s.lastMode = ctrl.State().Mode
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// navigated は遅延遷移の通知先です。
func (s *shell) navigated(path string) {
	s.printf("→ %s へ移動しました\n", path)
}

// changed は状態が変わるたびに呼ばれます。Controller のロック内で呼ばれるため Controller は操作しない。
func (s *shell) changed(st authform.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Mode != s.lastMode {
		fmt.Fprintf(s.out, "モード: %s\n", st.Mode)
		s.lastMode = st.Mode
	}
}

func (s *shell) run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		s.printf("mygo(%s)> ", s.ctrl.State().Mode)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.exec(line) {
			return
		}
	}
}

// exec は1行のコマンドを実行します。exit の場合は false を返します。
func (s *shell) exec(line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "help":
		s.printf("%s\n", helpText)
	case "mode":
		s.printf("%s\n", s.ctrl.State().Mode)
	case "toggle":
		s.ctrl.Toggle()
		s.printf("%s\n", s.ctrl.State().Mode)
	case "set":
		name, value, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
		field, ok := authform.ParseField(name)
		if !ok {
			s.printf("Usage: set <field> <value>\n")
			return true
		}
		s.ctrl.Input(field, value)
	case "show":
		s.show(s.ctrl.State())
	case "submit":
		s.submit()
	case "session":
		s.showSession()
	case "logout":
		if err := s.store.Clear(); err != nil {
			s.printf("セッションの削除に失敗しました: %v\n", err)
			return true
		}
		s.printf("ログアウトしました\n")
	case "exit":
		s.printf("Bye\n")
		return false
	default:
		s.printf("Unknown command. Type 'help' for a list of commands.\n")
	}
	return true
}

func (s *shell) submit() {
	_, err := s.ctrl.Submit(context.Background())
	st := s.ctrl.State()
	switch {
	case errors.Is(err, authform.ErrInvalidForm):
		s.printErrors(st)
	case errors.Is(err, authform.ErrSubmitInFlight):
		s.printf("%s\n", authform.MsgSubmitInFlight)
	case err != nil:
		s.printf("error: %v\n", err)
	}
	if st.ErrorMessage != "" {
		s.printf("✗ %s\n", st.ErrorMessage)
	}
	if st.SuccessMessage != "" {
		s.printf("✓ %s\n", st.SuccessMessage)
	}
}

func (s *shell) printErrors(st authform.State) {
	for _, f := range authform.Fields {
		if msg := st.Errors.Get(f); msg != "" {
			s.printf("  %s: %s\n", f, msg)
		}
	}
}

func (s *shell) show(st authform.State) {
	s.printf("mode: %s\n", st.Mode)
	for _, f := range authform.Fields {
		if st.Mode == authform.ModeLogin && (f == authform.FieldEmail || f == authform.FieldConfirmPassword) {
			continue
		}
		value := st.Form.Value(f)
		if (f == authform.FieldPassword || f == authform.FieldConfirmPassword) && value != "" {
			value = strings.Repeat("*", len([]rune(value)))
		}
		s.printf("  %s: %s\n", f, value)
	}
	s.printErrors(st)
}

func (s *shell) showSession() {
	sess, err := session.Read(s.store)
	if err != nil {
		s.printf("ログインしていません\n")
		return
	}
	s.printf("user_id: %d\nusername: %s\n", sess.UserID, sess.Username)
}
