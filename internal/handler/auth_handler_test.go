package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gdgblog/internal/db"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func seedAdmin(t *testing.T, username, password string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := db.User{Username: username, Password: string(hashed), DisplayName: "GDG Admin", IsAdmin: true}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
}

func loginRequest(username, password string) *http.Request {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	seedAdmin(t, "admin", "correct-password")

	engine := newSessionEngine()
	engine.POST("/admin/login", Login)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, loginRequest("admin", "wrong-password"))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	seedAdmin(t, "admin", "correct-password")

	engine := newSessionEngine()
	engine.POST("/admin/login", Login)

	protected := engine.Group("/admin/api")
	protected.Use(AuthRequired())
	protected.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// 未登录访问受保护接口被拒绝
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/api/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 before login, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, loginRequest("admin", "correct-password"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 on login, got %d: %s", w.Code, w.Body.String())
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie after login")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/api/whoami", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 with session, got %d", w.Code)
	}
}
