package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/types"
	"github.com/taskflow-dev/taskflow/internal/utils"
)

type CreateEpicRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	Priority    types.Priority `json:"priority"`
}

// ListEpics returns the caller's epics with their stories and those
// stories' tasks preloaded, newest first.
func ListEpics(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var epics []models.Epic

	if err := db.DB.
		Where("user_id = ?", userID).
		Preload("Stories.Tasks").
		Order("created_at DESC").
		Find(&epics).Error; err != nil {
		log.Printf("Failed to retrieve epics: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve epics"})
		return
	}

	ctx.JSON(http.StatusOK, epics)
}

func CreateEpic(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateEpicRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	body.Title = strings.TrimSpace(body.Title)

	if body.Title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	if body.Priority == "" {
		body.Priority = types.PriorityMedium
	}

	if !body.Priority.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	epic := models.Epic{
		Title:       body.Title,
		Description: body.Description,
		Status:      types.StatusTodo,
		Priority:    body.Priority,
		UserID:      userID,
		Stories:     []models.Story{},
	}

	if err := db.DB.Create(&epic).Error; err != nil {
		log.Printf("Failed to create epic: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create epic"})
		return
	}

	ctx.JSON(http.StatusCreated, epic)
}
