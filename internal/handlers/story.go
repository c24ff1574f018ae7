package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/types"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"gorm.io/gorm"
)

type CreateStoryRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	Priority    types.Priority `json:"priority"`
	EpicID      *string        `json:"epicId"`
}

// ListStories returns the caller's stories with their parent epic and child
// tasks preloaded, newest first.
func ListStories(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var stories []models.Story

	if err := db.DB.
		Where("user_id = ?", userID).
		Preload("Epic").
		Preload("Tasks").
		Order("created_at DESC").
		Find(&stories).Error; err != nil {
		log.Printf("Failed to retrieve stories: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stories"})
		return
	}

	ctx.JSON(http.StatusOK, stories)
}

func CreateStory(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateStoryRequest

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

	var epic *models.Epic

	if body.EpicID != nil && *body.EpicID != "" {
		epic = &models.Epic{}

		if err := db.DB.Where("id = ? AND user_id = ?", *body.EpicID, userID).First(epic).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Epic not found"})
			} else {
				log.Printf("Failed to retrieve epic: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}
	} else {
		body.EpicID = nil
	}

	story := models.Story{
		Title:       body.Title,
		Description: body.Description,
		Status:      types.StatusTodo,
		Priority:    body.Priority,
		EpicID:      body.EpicID,
		UserID:      userID,
		Tasks:       []models.Task{},
	}

	if err := db.DB.Create(&story).Error; err != nil {
		log.Printf("Failed to create story: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create story"})
		return
	}

	story.Epic = epic

	ctx.JSON(http.StatusCreated, story)
}
