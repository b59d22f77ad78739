package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"postlint/pkg/config"
)

// NewRouter wires the HTTP API.
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Session Setup
	store := cookie.NewStore([]byte(config.SessionSecret))
	r.Use(sessions.Sessions("postlint", store))

	// --- Auth Routes ---
	r.GET("/login", LoginPage)
	r.GET("/login/github", GithubLogin)
	r.GET("/auth/callback", AuthCallback)
	r.GET("/logout", Logout)

	authorized := r.Group("/")
	authorized.Use(AuthRequired)
	{
		authorized.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "auth": config.AuthEnabled()})
		})

		api := authorized.Group("/api")
		{
			api.GET("/posts", ListPosts)
			api.GET("/post", GetPost)
			api.POST("/post", SavePost)
			api.POST("/create", CreatePost)
			api.POST("/lint", LintPost)
			api.GET("/report", GetReport)
			api.POST("/diff", GetDiff)
			api.GET("/config", GetConfig)
			api.GET("/media", ListMedia)
		}
	}

	return r
}
