package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-dev/taskflow/db"
	"github.com/taskflow-dev/taskflow/internal/jira"
	"github.com/taskflow-dev/taskflow/internal/models"
	"github.com/taskflow-dev/taskflow/internal/utils"
	"gorm.io/gorm"
)

type JiraSyncRequest struct {
	TaskID string `json:"taskId" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type JiraTransitionRequest struct {
	IssueKey string `json:"issueKey" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// newJiraClient is a hook so handler tests can substitute a client pointed
// at a local server.
var newJiraClient = func() (*jira.Client, bool) {
	cfg, ok := jira.ConfigFromEnv()

	if !ok {
		return nil, false
	}

	return jira.NewClient(cfg), true
}

func jiraProjectKey() string {
	if key := os.Getenv("JIRA_PROJECT_KEY"); key != "" {
		return key
	}

	return "CLAUDE"
}

// keyRecordError marks a local datastore failure after the remote issue was
// already created. It must surface as a generic internal error, not as a
// remote-service failure.
type keyRecordError struct {
	err error
}

func (e *keyRecordError) Error() string {
	return e.err.Error()
}

// jiraKeyPattern matches the marker appended to a description after a sync.
var jiraKeyPattern = regexp.MustCompile(`Jira Issue: ([A-Z][A-Z0-9_]*-\d+)`)

// extractJiraKey returns the remote key recorded in a description by an
// earlier sync, or "" when the entity was never synced.
func extractJiraKey(description string) string {
	match := jiraKeyPattern.FindStringSubmatch(description)

	if match == nil {
		return ""
	}

	return match[1]
}

// appendJiraKey records the remote key at the end of the description. A
// second sync appends a second marker; duplicates are expected.
func appendJiraKey(description string, key string) string {
	if description == "" {
		return "Jira Issue: " + key
	}

	return description + "\n\nJira Issue: " + key
}

// JiraStatus reports whether the bridge is configured and, if so, probes
// connectivity by listing the first few remote projects. Probe failures are
// soft errors in the response body, never a 5xx.
func JiraStatus(ctx *gin.Context) {
	if _, err := utils.GetCurrentUser(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	client, configured := newJiraClient()

	if !configured {
		ctx.JSON(http.StatusOK, gin.H{
			"configured": false,
			"message":    "Jira configuration not found. Please set JIRA_DOMAIN, JIRA_EMAIL, and JIRA_API_TOKEN environment variables.",
		})
		return
	}

	projects, err := client.Projects()

	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"configured": false,
			"error":      "Failed to connect to Jira. Please check your configuration.",
			"details":    err.Error(),
		})
		return
	}

	if len(projects) > 5 {
		projects = projects[:5]
	}

	ctx.JSON(http.StatusOK, gin.H{
		"configured": true,
		"projects":   projects,
		"domain":     client.Domain(),
	})
}

// JiraSync pushes a local entity to Jira. The action picks which level of
// the task's hierarchy is pushed: the task itself, its story, or its
// story's epic. The resulting remote key is appended to the synced entity's
// description, which is the only local record of the linkage.
func JiraSync(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body JiraSyncRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	client, configured := newJiraClient()

	if !configured {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Jira configuration not found"})
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND user_id = ?", body.TaskID, userID).Preload("Story.Epic").First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to retrieve task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var jiraKey string

	switch body.Action {
	case "create_task":
		jiraKey, err = syncTask(client, &task)
	case "create_story":
		if task.Story == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task is not associated with a story"})
			return
		}
		jiraKey, err = syncStory(client, task.Story)
	case "create_epic":
		if task.Story == nil || task.Story.Epic == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Task is not associated with an epic"})
			return
		}
		jiraKey, err = syncEpic(client, task.Story.Epic)
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}

	if err != nil {
		// The remote issue exists at this point; only the local record is
		// stale. Never show the datastore error to the client.
		var recordErr *keyRecordError
		if errors.As(err, &recordErr) {
			log.Printf("Failed to record Jira key locally: %v", recordErr.err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		log.Printf("Failed to sync to Jira: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to sync to Jira",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Successfully synced to Jira",
		"jiraKey": jiraKey,
	})
}

func syncTask(client *jira.Client, task *models.Task) (string, error) {
	req := jira.IssueRequest{
		ProjectKey:  jiraProjectKey(),
		Summary:     task.Title,
		Description: task.Description,
	}

	// Attach the story's real Jira key when the story has been synced.
	if task.Story != nil {
		req.ParentKey = extractJiraKey(task.Story.Description)
	}

	issue, err := client.CreateTask(req)

	if err != nil {
		return "", err
	}

	description := appendJiraKey(task.Description, issue.Key)

	if err := db.DB.Model(task).Update("description", description).Error; err != nil {
		return "", &keyRecordError{err: err}
	}

	return issue.Key, nil
}

func syncStory(client *jira.Client, story *models.Story) (string, error) {
	req := jira.IssueRequest{
		ProjectKey:  jiraProjectKey(),
		Summary:     story.Title,
		Description: story.Description,
	}

	if story.Epic != nil {
		req.ParentKey = extractJiraKey(story.Epic.Description)
	}

	issue, err := client.CreateStory(req)

	if err != nil {
		return "", err
	}

	description := appendJiraKey(story.Description, issue.Key)

	if err := db.DB.Model(story).Update("description", description).Error; err != nil {
		return "", &keyRecordError{err: err}
	}

	return issue.Key, nil
}

func syncEpic(client *jira.Client, epic *models.Epic) (string, error) {
	req := jira.IssueRequest{
		ProjectKey:  jiraProjectKey(),
		Summary:     epic.Title,
		Description: epic.Description,
	}

	issue, err := client.CreateEpic(req)

	if err != nil {
		return "", err
	}

	description := appendJiraKey(epic.Description, issue.Key)

	if err := db.DB.Model(epic).Update("description", description).Error; err != nil {
		return "", &keyRecordError{err: err}
	}

	return issue.Key, nil
}

// JiraTransition moves a remote issue to a named workflow status.
func JiraTransition(ctx *gin.Context) {
	if _, err := utils.GetCurrentUser(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body JiraTransitionRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	client, configured := newJiraClient()

	if !configured {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Jira configuration not found"})
		return
	}

	if err := client.TransitionIssue(body.IssueKey, body.Status); err != nil {
		if errors.Is(err, jira.ErrTransitionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Transition to status \"" + body.Status + "\" not found"})
			return
		}

		log.Printf("Failed to transition Jira issue: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to update Jira issue status",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Successfully updated Jira issue status"})
}
