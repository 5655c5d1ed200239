package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gdgblog/internal/service"
	"github.com/gin-gonic/gin"
)

type postPayload struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Summary  string `json:"summary"`
	CoverURL string `json:"coverUrl"`
	Category string `json:"category"`
}

// AdminListPosts 返回后台文章列表，支持状态/分类/搜索过滤。
func (a *API) AdminListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Status:   strings.TrimSpace(c.Query("status")),
		Category: strings.TrimSpace(c.Query("category")),
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
		post := &result.Posts[i]
		item := gin.H{
			"id":           post.ID,
			"title":        post.Title,
			"summary":      post.Summary,
			"category":     post.Category,
			"status":       post.Status,
			"createdAt":    post.CreatedAt,
			"publishedAt":  post.PublishedAt,
			"likeCount":    post.LikeCount,
			"commentCount": post.CommentCount,
		}
		if stats := statsMap[post.ID]; stats != nil {
			item["viewCounters"] = viewCounters(stats)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":          items,
		"total":          result.Total,
		"publishedCount": result.PublishedCount,
		"draftCount":     result.DraftCount,
		"page":           result.Page,
		"totalPages":     result.TotalPages,
	})
}

// AdminGetPost 返回单篇文章，草稿也可见。
func (a *API) AdminGetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取文章失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// CreatePost 创建新文章草稿。
func (a *API) CreatePost(c *gin.Context) {
	var payload postPayload
	if !bindJSON(c, &payload, "无效的文章参数") {
		return
	}

	post, err := a.posts.Create(service.PostInput{
		Title:    payload.Title,
		Content:  payload.Content,
		Summary:  payload.Summary,
		CoverURL: payload.CoverURL,
		Category: payload.Category,
		UserID:   currentUserID(c),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "创建文章失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "文章创建成功", "post": post})
}

// UpdatePost 更新文章内容。
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	var payload postPayload
	if !bindJSON(c, &payload, "无效的文章参数") {
		return
	}

	post, err := a.posts.Update(id, service.PostInput{
		Title:    payload.Title,
		Content:  payload.Content,
		Summary:  payload.Summary,
		CoverURL: payload.CoverURL,
		Category: payload.Category,
	})
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "更新文章失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "文章更新成功", "post": post})
}

// PublishPost 发布文章。
func (a *API) PublishPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	var payload struct {
		PublishedAt *time.Time `json:"publishedAt"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		payload.PublishedAt = nil
	}

	post, err := a.posts.Publish(id, payload.PublishedAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "文章不存在")
		case errors.Is(err, service.ErrInvalidPublishState):
			respondError(c, http.StatusBadRequest, "标题或正文为空，无法发布")
		default:
			respondError(c, http.StatusInternalServerError, "发布文章失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "文章已发布", "post": post})
}

// UnpublishPost 将文章退回草稿。
func (a *API) UnpublishPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	post, err := a.posts.Unpublish(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "操作失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "文章已退回草稿", "post": post})
}

// DeletePost 删除文章及其关联数据。
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	if err := a.posts.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除文章失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "文章删除成功"})
}

// DeleteComment 删除评论（后台审核用）。
func (a *API) DeleteComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的评论ID")
		return
	}

	if err := a.comments.Delete(id); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			respondError(c, http.StatusNotFound, "评论不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "删除评论失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "评论删除成功"})
}
