package handler

import (
	"github.com/gdgblog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	posts        *service.PostService
	comments     *service.CommentService
	interactions *service.InteractionService
	analytics    *service.AnalyticsService
	trending     *service.TrendingService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB) *API {
	return &API{
		db:           db,
		posts:        service.NewPostService(db),
		comments:     service.NewCommentService(db),
		interactions: service.NewInteractionService(db),
		analytics:    service.NewAnalyticsService(db),
		trending:     service.NewTrendingService(db),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
