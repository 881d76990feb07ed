// Package main はログイン/新規登録フォームを端末から操作するクライアントです。
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mygo-web/internal/authform"
	"github.com/yourusername/mygo-web/internal/config"
	"github.com/yourusername/mygo-web/internal/logging"
	"github.com/yourusername/mygo-web/internal/session"
	"github.com/yourusername/mygo-web/internal/userapi"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var (
		baseURL     string
		sessionFile string
		mode        string
		timeout     time.Duration
		delay       time.Duration
		logLevel    string
	)
	flag.StringVar(&baseURL, "url", cfg.UserAPIBaseURL, "user API base URL")
	flag.StringVar(&sessionFile, "session-file", ".mygo-session.json", "file to store the login session")
	flag.StringVar(&mode, "mode", "login", "initial mode: login | register")
	flag.DurationVar(&timeout, "timeout", cfg.UserAPITimeout, "request timeout (0 disables)")
	flag.DurationVar(&delay, "delay", cfg.RedirectDelay, "delay before navigating after success")
	flag.StringVar(&logLevel, "log-level", "warn", "log level")
	flag.Parse()

	logger, err := logging.New(logLevel, "debug")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	api, err := userapi.NewClient(baseURL,
		userapi.WithTimeout(timeout),
		userapi.WithLogger(logger.Named("userapi")),
	)
	if err != nil {
		log.Fatal(err)
	}

	store, err := session.OpenFileStore(sessionFile)
	if err != nil {
		log.Fatal(err)
	}

	sh := newShell(os.Stdout, store)
	ctrl := authform.NewController(api, store, authform.NavigatorFunc(sh.navigated),
		authform.WithReducer(authform.Reducer{RedirectDelay: delay, HomePath: authform.HomePath}),
		authform.WithInitialMode(authform.ParseMode(mode)),
		authform.WithLogger(logger.Named("authform")),
		authform.WithOnChange(sh.changed),
	)
	defer ctrl.Close()
	sh.attach(ctrl)

	logger.Debug("starting shell", zap.String("url", baseURL), zap.String("session_file", sessionFile))
	fmt.Fprintln(os.Stdout, "mygo auth shell. Type 'help' for a list of commands.")
	sh.run(os.Stdin)
}
