package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ComingSoon は GET / のハンドラーです。
func (h *Handler) ComingSoon(c *gin.Context) {
	c.HTML(http.StatusOK, pageComingSoon, h.basePage(c, "準備中"))
}

// NotFound は未定義のパスに対するハンドラーです。/api 配下は JSON で返します。
func (h *Handler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "指定されたリソースは存在しません",
		})
		return
	}
	c.HTML(http.StatusNotFound, pageNotFound, h.basePage(c, "ページが見つかりません"))
}

// Health はヘルスチェックエンドポイントのハンドラーです。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "mygo-web",
		"version": "0.1.0",
	})
}
