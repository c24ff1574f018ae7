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

type CreateTaskRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	Priority    types.Priority `json:"priority"`
	StoryID     *string        `json:"storyId"`
}

// UpdateTaskRequest is a sparse patch: nil means "leave unchanged", a
// non-nil pointer to the zero value means "set to empty". An empty StoryID
// detaches the task from its story.
type UpdateTaskRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Completed   *bool           `json:"completed"`
	Status      *types.Status   `json:"status"`
	Priority    *types.Priority `json:"priority"`
	StoryID     *string         `json:"storyId"`
}

// ListTasks returns the caller's tasks with their story and that story's
// epic preloaded, newest first.
func ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var tasks []models.Task

	if err := db.DB.
		Where("user_id = ?", userID).
		Preload("Story.Epic").
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		log.Printf("Failed to retrieve tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

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

	var story *models.Story

	if body.StoryID != nil && *body.StoryID != "" {
		story = &models.Story{}

		if err := db.DB.Where("id = ? AND user_id = ?", *body.StoryID, userID).Preload("Epic").First(story).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
			} else {
				log.Printf("Failed to retrieve story: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}
	} else {
		body.StoryID = nil
	}

	task := models.Task{
		Title:       body.Title,
		Description: body.Description,
		Completed:   false,
		Status:      types.StatusTodo,
		Priority:    body.Priority,
		StoryID:     body.StoryID,
		UserID:      userID,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	task.Story = story

	ctx.JSON(http.StatusCreated, task)
}

func UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates, ok := buildTaskUpdates(ctx, userID, body)

	if !ok {
		return
	}

	taskID := ctx.Param("id")

	if len(updates) > 0 {
		// Scoped by id and owner in one statement: an id owned by someone
		// else matches zero rows and is indistinguishable from a missing id.
		result := db.DB.Model(&models.Task{}).Where("id = ? AND user_id = ?", taskID, userID).Updates(updates)

		if result.Error != nil {
			log.Printf("Failed to update task: %v", result.Error)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
			return
		}

		if result.RowsAffected == 0 {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND user_id = ?", taskID, userID).Preload("Story.Epic").First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// buildTaskUpdates validates the patch and maps present fields to columns.
// Writes the error response itself and returns ok=false on invalid input.
func buildTaskUpdates(ctx *gin.Context, userID string, body UpdateTaskRequest) (map[string]interface{}, bool) {
	updates := make(map[string]interface{})

	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)

		if title == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return nil, false
		}

		updates["title"] = title
	}

	if body.Description != nil {
		updates["description"] = *body.Description
	}

	if body.Completed != nil {
		updates["completed"] = *body.Completed
	}

	if body.Status != nil {
		if !body.Status.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return nil, false
		}

		updates["status"] = *body.Status
	}

	if body.Priority != nil {
		if !body.Priority.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
			return nil, false
		}

		updates["priority"] = *body.Priority
	}

	if body.StoryID != nil {
		if *body.StoryID == "" {
			updates["story_id"] = nil
		} else {
			var story models.Story

			if err := db.DB.Where("id = ? AND user_id = ?", *body.StoryID, userID).First(&story).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
				} else {
					log.Printf("Failed to retrieve story: %v", err)
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				}
				return nil, false
			}

			updates["story_id"] = *body.StoryID
		}
	}

	return updates, true
}

func DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID := ctx.Param("id")

	result := db.DB.Where("id = ? AND user_id = ?", taskID, userID).Delete(&models.Task{})

	if result.Error != nil {
		log.Printf("Failed to delete task: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
