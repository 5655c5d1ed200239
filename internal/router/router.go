package router

import (
	"github.com/gdgblog/internal/config"
	"github.com/gdgblog/internal/db"
	"github.com/gdgblog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("gdgblog_session", store))

	api := handler.NewAPI(db.DB)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 公开接口
	public := r.Group("/api")
	{
		public.GET("/posts", api.ListPosts)
		public.GET("/posts/trending", api.GetTrending)
		public.GET("/posts/:id", api.GetPost)
		public.POST("/posts/:id/view", api.RecordView)
		public.GET("/posts/:id/comments", api.ListComments)
		public.POST("/posts/:id/comments", api.CreateComment)
		public.POST("/posts/:id/like", api.ToggleLike)

		// 收藏需要登录
		reader := public.Group("")
		reader.Use(handler.AuthRequired())
		{
			reader.GET("/bookmarks", api.ListBookmarks)
			reader.POST("/posts/:id/bookmark", api.AddBookmark)
			reader.DELETE("/posts/:id/bookmark", api.RemoveBookmark)
		}
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", handler.Login)
		admin.GET("/logout", handler.Logout)

		// 需要认证的后台路由
		auth := admin.Group("/api")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/posts", api.AdminListPosts)
			auth.GET("/posts/:id", api.AdminGetPost)
			auth.POST("/posts", api.CreatePost)
			auth.PUT("/posts/:id", api.UpdatePost)
			auth.POST("/posts/:id/publish", api.PublishPost)
			auth.POST("/posts/:id/unpublish", api.UnpublishPost)
			auth.DELETE("/posts/:id", api.DeletePost)

			auth.DELETE("/comments/:id", api.DeleteComment)

			auth.GET("/analytics", api.GetAnalytics)
		}
	}

	return r
}
