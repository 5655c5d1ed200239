package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gdgblog/internal/db"
	"github.com/gdgblog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	visitorCookieName   = "gdg_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60

	publicExcerptLimit = 150
)

// ListPosts 返回已发布文章的分页列表，附带浏览统计。
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
		Status:   "published",
		Page:     parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage:  parsePositiveInt(c.DefaultQuery("perPage", "10"), 10),
	}

	result, err := a.posts.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取文章列表失败")
		return
	}

	postIDs := make([]uint, 0, len(result.Posts))
	for i := range result.Posts {
		postIDs = append(postIDs, result.Posts[i].ID)
	}

	statsMap, err := a.analytics.PostStatsMap(postIDs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取文章统计失败")
		return
	}

	items := make([]gin.H, 0, len(result.Posts))
	for i := range result.Posts {
		items = append(items, publicPostSummary(&result.Posts[i], statsMap[result.Posts[i].ID]))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      items,
		"page":       result.Page,
		"perPage":    result.PerPage,
		"total":      result.Total,
		"totalPages": result.TotalPages,
	})
}

// GetPost 返回单篇已发布文章及渲染后的正文。
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	post, err := a.posts.GetPublished(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取文章失败")
		return
	}

	htmlContent, err := service.RenderMarkdown(post.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "渲染内容失败")
		return
	}

	statsMap, err := a.analytics.PostStatsMap([]uint{post.ID})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取文章统计失败")
		return
	}

	payload := publicPostSummary(post, statsMap[post.ID])
	payload["content"] = post.Content
	payload["html"] = htmlContent

	c.JSON(http.StatusOK, gin.H{"post": payload})
}

// RecordView 记录一次浏览上报，浏览失败对读者而言是非阻塞的。
func (a *API) RecordView(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	var body struct {
		VisitorToken       string   `json:"visitorToken"`
		TimeSpentSeconds   *float64 `json:"timeSpentSeconds"`
		ScrollDepthPercent *float64 `json:"scrollDepthPercent"`
		DeviceType         string   `json:"deviceType"`
	}
	if !bindJSON(c, &body, "无效的浏览上报") {
		return
	}

	visitorToken := strings.TrimSpace(body.VisitorToken)
	if visitorToken == "" {
		visitorToken = a.ensureVisitorID(c)
	}

	stats, err := a.analytics.RecordPostView(id, service.ViewEvent{
		VisitorToken:       visitorToken,
		TimeSpentSeconds:   body.TimeSpentSeconds,
		ScrollDepthPercent: body.ScrollDepthPercent,
		DeviceType:         body.DeviceType,
	}, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "文章不存在")
		case errors.Is(err, service.ErrInvalidViewEvent):
			respondError(c, http.StatusBadRequest, "无效的浏览上报")
		default:
			respondError(c, http.StatusInternalServerError, "记录浏览失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"viewCounters": viewCounters(stats)})
}

// GetTrending 返回热门文章列表。
func (a *API) GetTrending(c *gin.Context) {
	limit := parsePositiveInt(c.DefaultQuery("limit", "6"), service.DefaultTrendingLimit)

	ranked, err := a.trending.Top(limit, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取热门文章失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": ranked})
}

// ListComments 返回文章的评论列表。
func (a *API) ListComments(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	comments, err := a.comments.ListForPost(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取评论失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment 为文章新增评论。
func (a *API) CreateComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	var body struct {
		AuthorName  string `json:"authorName"`
		AuthorEmail string `json:"authorEmail"`
		Content     string `json:"content"`
	}
	if !bindJSON(c, &body, "无效的评论参数") {
		return
	}

	input := service.CommentInput{
		PostID:      id,
		AuthorName:  body.AuthorName,
		AuthorEmail: body.AuthorEmail,
		Content:     body.Content,
	}
	if userID := currentUserID(c); userID != 0 {
		input.UserID = &userID
	}

	comment, err := a.comments.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "文章不存在")
		case errors.Is(err, service.ErrCommentEmpty):
			respondError(c, http.StatusBadRequest, "评论内容不能为空")
		default:
			respondError(c, http.StatusInternalServerError, "发表评论失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// ToggleLike 切换当前访客对文章的点赞状态。
func (a *API) ToggleLike(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	result, err := a.interactions.ToggleLike(id, a.ensureVisitorID(c))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "点赞失败")
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddBookmark 收藏文章，要求登录。
func (a *API) AddBookmark(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	if err := a.interactions.AddBookmark(currentUserID(c), id); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "收藏失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已收藏"})
}

// RemoveBookmark 取消收藏。
func (a *API) RemoveBookmark(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	if err := a.interactions.RemoveBookmark(currentUserID(c), id); err != nil {
		respondError(c, http.StatusInternalServerError, "取消收藏失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已取消收藏"})
}

// ListBookmarks 返回当前用户收藏的文章。
func (a *API) ListBookmarks(c *gin.Context) {
	posts, err := a.interactions.ListBookmarks(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取收藏失败")
		return
	}

	items := make([]gin.H, 0, len(posts))
	for i := range posts {
		items = append(items, publicPostSummary(&posts[i], nil))
	}

	c.JSON(http.StatusOK, gin.H{"posts": items})
}

func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	secure := c.Request.TLS != nil

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   visitorCookieMaxAge,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})

	return visitorID
}

// publicPostSummary 构造对外的文章摘要投影。
func publicPostSummary(post *db.Post, stats *db.PostStatistic) gin.H {
	excerpt := strings.TrimSpace(post.Summary)
	if excerpt == "" {
		excerpt = service.PlainTextExcerpt(post.Content, publicExcerptLimit)
	}

	authorName := post.User.DisplayName
	if authorName == "" {
		authorName = post.User.Username
	}

	summary := gin.H{
		"id":           post.ID,
		"title":        post.Title,
		"excerpt":      excerpt,
		"coverUrl":     post.CoverURL,
		"category":     post.Category,
		"createdAt":    post.CreatedAt,
		"publishedAt":  post.PublishedAt,
		"authorId":     post.UserID,
		"authorName":   authorName,
		"likeCount":    post.LikeCount,
		"commentCount": post.CommentCount,
	}

	if stats != nil {
		summary["viewCounters"] = viewCounters(stats)
	}

	return summary
}

// viewCounters 构造浏览计数的对外投影。
func viewCounters(stats *db.PostStatistic) gin.H {
	return gin.H{
		"total":                 stats.TotalViews,
		"uniqueTotal":           stats.UniqueVisitors,
		"avgTimeSpentSeconds":   stats.AvgTimeSpentSeconds,
		"avgScrollDepthPercent": stats.AvgScrollDepthPercent,
	}
}
