package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/gdgblog/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Post{}, &db.Comment{}, &db.PostLike{}, &db.Bookmark{},
		&db.PostStatistic{}, &db.PostVisitor{}, &db.PostDailyStat{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	db.DB = gdb

	return NewAPI(gdb), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// newSessionEngine 构造带会话中间件的测试引擎，
// 供依赖 sessions.Default 的处理函数使用。
func newSessionEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(sessions.Sessions("gdgblog_session", cookie.NewStore([]byte("test-secret"))))
	return engine
}

func seedPublishedPost(t *testing.T, title string) *db.Post {
	t.Helper()

	now := time.Now()
	post := db.Post{Title: title, Content: "# " + title + "\n正文", Status: "published", PublishedAt: &now}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return &post
}
