package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/auth"
	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

const oauthStateCookie = "oauth_state"

// GitHubLogin starts the OAuth code flow. The state nonce is pinned in a
// short-lived cookie and checked in the callback.
func GitHubLogin(ctx *gin.Context) {
	if !auth.GitHubOAuthConfigured() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub login is not configured"})
		return
	}

	state := uuid.NewString()

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	ctx.Redirect(http.StatusTemporaryRedirect, auth.GitHubOAuthConfig().AuthCodeURL(state))
}

// GitHubCallback exchanges the code, provisions a user on first login and
// issues the session cookie.
func GitHubCallback(ctx *gin.Context) {
	if !auth.GitHubOAuthConfigured() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "GitHub login is not configured"})
		return
	}

	state, err := ctx.Cookie(oauthStateCookie)

	if err != nil || state == "" || ctx.Query("state") != state {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}

	code := ctx.Query("code")

	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	oauthConfig := auth.GitHubOAuthConfig()

	token, err := oauthConfig.Exchange(context.Background(), code)

	if err != nil {
		log.Printf("Failed to exchange OAuth code: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to complete GitHub login"})
		return
	}

	githubUser, err := auth.FetchGitHubUser(oauthConfig.Client(context.Background(), token))

	if err != nil {
		log.Printf("Failed to fetch GitHub profile: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch GitHub profile"})
		return
	}

	var user models.User

	err = db.DB.Where("email = ?", githubUser.Email).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Name:  githubUser.Name,
			Email: githubUser.Email,
			Image: githubUser.AvatarURL,
		}

		if err := db.DB.Create(&user).Error; err != nil {
			log.Printf("Failed to provision user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	} else if err != nil {
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	sessionToken, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	setSessionCookie(ctx, sessionToken, 60*60*24*7)

	redirect := os.Getenv("CLIENT_URL")

	if redirect == "" {
		redirect = "/"
	}

	ctx.Redirect(http.StatusTemporaryRedirect, redirect)
}
