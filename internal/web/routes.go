package web

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mygo-web/internal/auth"
	"github.com/yourusername/mygo-web/internal/authform"
	"github.com/yourusername/mygo-web/internal/config"
	"github.com/yourusername/mygo-web/internal/logging"
)

// NewRouter はミドルウェア・テンプレート・ルーティングを設定した gin.Engine を作成します。
func NewRouter(cfg *config.Config, h *Handler, manager *auth.Manager, logger *zap.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger(logger))
	router.Use(sessions.Sessions(auth.SessionCookieName, manager.NewStore()))
	router.Use(manager.LoadUser())

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	setupRoutes(router, cfg, h, manager)
	return router, nil
}

// setupRoutes は画面・フォーム API・ヘルスチェックの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, h *Handler, manager *auth.Manager) {
	router.GET("/health", Health)

	router.GET("/", h.ComingSoon)
	router.GET("/auth", h.ShowAuth(authform.ModeLogin))
	router.GET("/login", h.ShowAuth(authform.ModeLogin))
	router.GET("/register", h.ShowAuth(authform.ModeRegister))

	forms := router.Group("")
	forms.Use(manager.VerifyCSRF())
	{
		forms.POST("/auth/submit", h.Submit)
		forms.POST("/auth/toggle", h.Toggle)
		forms.POST("/logout", manager.Logout)
	}

	api := router.Group("/api/form")
	api.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	{
		// トークン発行前なので CSRF 検証は不要
		api.GET("/session", h.Session)
		api.OPTIONS("/*path", func(c *gin.Context) {})

		protected := api.Group("")
		protected.Use(manager.VerifyCSRF())
		{
			protected.POST("/validate", h.ValidateForm)
			protected.POST("/submit", h.SubmitForm)
		}
	}

	router.NoRoute(h.NotFound)
}

func corsConfig(allowed string) cors.Config {
	corsCfg := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	var origins []string
	for _, origin := range strings.Split(allowed, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		auth.CSRFHeader,
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsCfg.ExposeHeaders = []string{auth.CSRFHeader}
	return corsCfg
}
