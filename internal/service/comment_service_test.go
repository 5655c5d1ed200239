package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gdgblog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCommentTestDB(t *testing.T) func() {
	t.Helper()

	dsn := fmt.Sprintf("file:comment-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Post{}, &db.Comment{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestCreateCommentMaintainsCount(t *testing.T) {
	cleanup := setupCommentTestDB(t)
	defer cleanup()

	post := db.Post{Title: "评论", Content: "正文", Status: "published"}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	svc := NewCommentService(db.DB)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(CommentInput{
			PostID:     post.ID,
			AuthorName: fmt.Sprintf("读者-%d", i),
			Content:    "写得不错",
		}); err != nil {
			t.Fatalf("create comment failed: %v", err)
		}
	}

	var reloaded db.Post
	if err := db.DB.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if reloaded.CommentCount != 3 {
		t.Fatalf("expected comment count 3, got %d", reloaded.CommentCount)
	}

	comments, err := svc.ListForPost(post.ID)
	if err != nil {
		t.Fatalf("list comments failed: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(comments))
	}
}

func TestCreateCommentSanitizesContent(t *testing.T) {
	cleanup := setupCommentTestDB(t)
	defer cleanup()

	post := db.Post{Title: "净化", Content: "正文", Status: "published"}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	svc := NewCommentService(db.DB)

	comment, err := svc.Create(CommentInput{
		PostID:  post.ID,
		Content: `好文<script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("create comment failed: %v", err)
	}

	if comment.Content != "好文" {
		t.Fatalf("expected sanitized content, got %q", comment.Content)
	}
	if comment.AuthorName != "匿名读者" {
		t.Fatalf("expected default author name, got %q", comment.AuthorName)
	}
}

func TestCreateCommentRejectsEmptyAndDrafts(t *testing.T) {
	cleanup := setupCommentTestDB(t)
	defer cleanup()

	draft := db.Post{Title: "草稿", Content: "正文", Status: "draft"}
	if err := db.DB.Create(&draft).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	svc := NewCommentService(db.DB)

	if _, err := svc.Create(CommentInput{PostID: draft.ID, Content: "评论"}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for draft, got %v", err)
	}

	published := db.Post{Title: "空评论", Content: "正文", Status: "published"}
	if err := db.DB.Create(&published).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	if _, err := svc.Create(CommentInput{PostID: published.ID, Content: "   "}); !errors.Is(err, ErrCommentEmpty) {
		t.Fatalf("expected ErrCommentEmpty, got %v", err)
	}
}

func TestDeleteCommentDecrementsCount(t *testing.T) {
	cleanup := setupCommentTestDB(t)
	defer cleanup()

	post := db.Post{Title: "删除评论", Content: "正文", Status: "published"}
	if err := db.DB.Create(&post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	svc := NewCommentService(db.DB)

	comment, err := svc.Create(CommentInput{PostID: post.ID, Content: "将被删除"})
	if err != nil {
		t.Fatalf("create comment failed: %v", err)
	}

	if err := svc.Delete(comment.ID); err != nil {
		t.Fatalf("delete comment failed: %v", err)
	}

	var reloaded db.Post
	if err := db.DB.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if reloaded.CommentCount != 0 {
		t.Fatalf("expected comment count 0, got %d", reloaded.CommentCount)
	}

	if err := svc.Delete(comment.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}
