package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	t.Setenv("JWT_SECRET", "test-secret")
	if err := auth.InitJWTSecret(); err != nil {
		t.Fatal(err)
	}

	gdb, err := gorm.Open(sqlite.Open("file:middleware_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := gdb.AutoMigrate(&models.User{}); err != nil {
		t.Fatal(err)
	}
	db.DB = gdb

	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(ctx *gin.Context) {
		user := ctx.MustGet("user").(AuthenticatedUser)
		ctx.JSON(http.StatusOK, gin.H{"email": user.Email})
	})

	return r
}

func get(r *gin.Engine, header, cookie string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r := setup(t)

	if w := get(r, "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: got status %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := get(r, "Token abc", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong scheme: got status %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := get(r, "Bearer not-a-jwt", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: got status %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareUnknownUserIs404(t *testing.T) {
	r := setup(t)

	// Valid token, but nobody provisioned the user.
	token, err := auth.GenerateJWT("some-id", "ghost@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if w := get(r, "Bearer "+token, ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: got status %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAuthMiddlewareAcceptsHeaderAndCookie(t *testing.T) {
	r := setup(t)

	user := models.User{Name: "Alice", Email: "alice@example.com"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatal(err)
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)
	if err != nil {
		t.Fatal(err)
	}

	if w := get(r, "Bearer "+token, ""); w.Code != http.StatusOK {
		t.Errorf("bearer token: got status %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if w := get(r, "", token); w.Code != http.StatusOK {
		t.Errorf("cookie token: got status %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}
