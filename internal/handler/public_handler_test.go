package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gdgblog/internal/db"
	"github.com/gin-gonic/gin"
)

func postViewRequest(t *testing.T, api *API, postID string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/posts/"+postID+"/view", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: postID}}

	api.RecordView(c)
	return w
}

func TestRecordViewNotFound(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w := postViewRequest(t, api, "9999", map[string]any{
		"visitorToken": "visitor-1",
		"deviceType":   "desktop",
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestRecordViewAccumulatesCounters(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	post := seedPublishedPost(t, "浏览上报")
	id := strconv.Itoa(int(post.ID))

	for i := 0; i < 2; i++ {
		w := postViewRequest(t, api, id, map[string]any{
			"visitorToken":       "visitor-1",
			"deviceType":         "mobile",
			"timeSpentSeconds":   42.0,
			"scrollDepthPercent": 80.0,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	}

	var response struct {
		ViewCounters struct {
			Total                 uint64  `json:"total"`
			UniqueTotal           uint64  `json:"uniqueTotal"`
			AvgTimeSpentSeconds   float64 `json:"avgTimeSpentSeconds"`
			AvgScrollDepthPercent float64 `json:"avgScrollDepthPercent"`
		} `json:"viewCounters"`
	}

	w := postViewRequest(t, api, id, map[string]any{
		"visitorToken": "visitor-2",
		"deviceType":   "desktop",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.ViewCounters.Total != 3 || response.ViewCounters.UniqueTotal != 2 {
		t.Fatalf("expected total=3 unique=2, got %+v", response.ViewCounters)
	}
	if response.ViewCounters.AvgTimeSpentSeconds != 42 || response.ViewCounters.AvgScrollDepthPercent != 80 {
		t.Fatalf("unexpected engagement averages: %+v", response.ViewCounters)
	}
}

func TestGetPostHidesDraft(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	draft := db.Post{Title: "草稿", Content: "正文", Status: "draft"}
	if err := db.DB.Create(&draft).Error; err != nil {
		t.Fatalf("failed to seed draft: %v", err)
	}

	id := strconv.Itoa(int(draft.ID))
	req := httptest.NewRequest(http.MethodGet, "/api/posts/"+id, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{gin.Param{Key: "id", Value: id}}

	api.GetPost(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestGetTrendingRespectsLimit(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		post := seedPublishedPost(t, "热门-"+strconv.Itoa(i))
		if err := db.DB.Model(post).Update("like_count", 10-i).Error; err != nil {
			t.Fatalf("failed to set likes: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts/trending?limit=2", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.GetTrending(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Posts []struct {
			Title string  `json:"title"`
			Score float64 `json:"score"`
		} `json:"posts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Posts) != 2 {
		t.Fatalf("expected 2 trending posts, got %d", len(response.Posts))
	}
	if response.Posts[0].Score < response.Posts[1].Score {
		t.Fatal("expected trending sorted by score descending")
	}
}

func TestCreateCommentThroughEngine(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	post := seedPublishedPost(t, "评论接口")

	engine := newSessionEngine()
	engine.POST("/api/posts/:id/comments", api.CreateComment)

	payload := map[string]any{"authorName": "读者", "content": "好文章"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/posts/"+strconv.Itoa(int(post.ID))+"/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded db.Post
	if err := db.DB.First(&reloaded, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if reloaded.CommentCount != 1 {
		t.Fatalf("expected comment count 1, got %d", reloaded.CommentCount)
	}
}

func TestToggleLikeMintsVisitorCookie(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	post := seedPublishedPost(t, "点赞接口")

	engine := newSessionEngine()
	engine.POST("/api/posts/:id/like", api.ToggleLike)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/"+strconv.Itoa(int(post.ID))+"/like", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"likeCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Liked || response.LikeCount != 1 {
		t.Fatalf("expected liked=true count=1, got %+v", response)
	}

	foundCookie := false
	for _, c := range w.Result().Cookies() {
		if c.Name == visitorCookieName && c.Value != "" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Fatal("expected visitor cookie to be minted")
	}
}
