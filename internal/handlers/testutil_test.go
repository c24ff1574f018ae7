package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/middleware"
	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB points the global handle at a fresh in-memory sqlite database
// named after the test, so tests stay isolated from each other.
func setupTestDB(t *testing.T) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")

	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	db.DB = gdb

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
}

// setupRouter wires the handlers the same way the router package does. The
// router package itself cannot be imported here without a cycle.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	t.Setenv("JWT_SECRET", "test-secret")

	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("failed to init JWT secret: %v", err)
	}

	setupTestDB(t)

	r := gin.New()

	api := r.Group("/api")

	epics := api.Group("/epics", middleware.AuthMiddleware())
	epics.GET("", ListEpics)
	epics.POST("", CreateEpic)

	stories := api.Group("/stories", middleware.AuthMiddleware())
	stories.GET("", ListStories)
	stories.POST("", CreateStory)

	tasks := api.Group("/tasks", middleware.AuthMiddleware())
	tasks.GET("", ListTasks)
	tasks.POST("", CreateTask)
	tasks.PUT("/:id", UpdateTask)
	tasks.DELETE("/:id", DeleteTask)

	jira := api.Group("/jira", middleware.AuthMiddleware())
	jira.GET("/sync", JiraStatus)
	jira.POST("/sync", JiraSync)
	jira.POST("/status", JiraTransition)

	return r
}

func createTestUser(t *testing.T, email string) models.User {
	t.Helper()

	user := models.User{
		Name:  "Test User",
		Email: email,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return token
}

// doRequest issues a JSON request through the router. An empty token leaves
// the request unauthenticated.
func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

// createdAt spaces out CreatedAt values so newest-first ordering is
// deterministic.
func createdAt(minutesAgo int) time.Time {
	return time.Now().Add(-time.Duration(minutesAgo) * time.Minute)
}
