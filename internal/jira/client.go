package jira

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Config holds the three connection parameters the bridge needs. All three
// must be present for the bridge to consider itself configured.
type Config struct {
	Domain   string
	Email    string
	APIToken string
}

// ConfigFromEnv reads the connection parameters from the environment. The
// second return value is false when any of them is missing, which callers
// must treat as "bridge disabled", not as an error.
func ConfigFromEnv() (Config, bool) {
	cfg := Config{
		Domain:   os.Getenv("JIRA_DOMAIN"),
		Email:    os.Getenv("JIRA_EMAIL"),
		APIToken: os.Getenv("JIRA_API_TOKEN"),
	}

	if cfg.Domain == "" || cfg.Email == "" || cfg.APIToken == "" {
		return Config{}, false
	}

	return cfg, true
}

// APIError carries the remote HTTP status text so the caller can show it to
// the user deciding whether to retry manually.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira: %s failed: %s", e.Op, e.Status)
}

var ErrTransitionNotFound = fmt.Errorf("jira: no matching transition")

type Client struct {
	config Config

	// BaseURL is derived from the configured domain; tests point it at a
	// local server.
	BaseURL string

	httpClient *http.Client
}

func NewClient(config Config) *Client {
	return &Client{
		config:  config,
		BaseURL: fmt.Sprintf("https://%s/rest/api/3", config.Domain),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Domain() string {
	return c.config.Domain
}

type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Issue struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// IssueRequest describes one issue to create. ParentKey, when set, must be a
// real Jira issue key.
type IssueRequest struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
	ParentKey   string
}

type issueFields struct {
	Project     projectRef   `json:"project"`
	Summary     string       `json:"summary"`
	Description *adfDocument `json:"description,omitempty"`
	IssueType   issueTypeRef `json:"issuetype"`
	Parent      *parentRef   `json:"parent,omitempty"`
}

type projectRef struct {
	Key string `json:"key"`
}

type issueTypeRef struct {
	Name string `json:"name"`
}

type parentRef struct {
	Key string `json:"key"`
}

// adfDocument is the minimal Atlassian Document Format wrapper Jira Cloud
// requires for rich-text fields: a single paragraph of plain text.
type adfDocument struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

func newADFDocument(text string) *adfDocument {
	if text == "" {
		return nil
	}

	return &adfDocument{
		Type:    "doc",
		Version: 1,
		Content: []adfNode{
			{
				Type: "paragraph",
				Content: []adfNode{
					{Type: "text", Text: text},
				},
			},
		},
	}
}

// CreateEpic creates a remote Epic issue and returns it. Epics never carry a
// parent linkage.
func (c *Client) CreateEpic(req IssueRequest) (*Issue, error) {
	req.IssueType = "Epic"
	req.ParentKey = ""
	return c.createIssue(req)
}

func (c *Client) CreateStory(req IssueRequest) (*Issue, error) {
	req.IssueType = "Story"
	return c.createIssue(req)
}

func (c *Client) CreateTask(req IssueRequest) (*Issue, error) {
	req.IssueType = "Task"
	return c.createIssue(req)
}

func (c *Client) createIssue(req IssueRequest) (*Issue, error) {
	fields := issueFields{
		Project:     projectRef{Key: req.ProjectKey},
		Summary:     req.Summary,
		Description: newADFDocument(req.Description),
		IssueType:   issueTypeRef{Name: req.IssueType},
	}

	if req.ParentKey != "" {
		fields.Parent = &parentRef{Key: req.ParentKey}
	}

	payload := struct {
		Fields issueFields `json:"fields"`
	}{Fields: fields}

	var issue Issue

	if err := c.do(http.MethodPost, "/issue", "create issue", payload, &issue); err != nil {
		return nil, err
	}

	return &issue, nil
}

// Projects lists the remote projects, used as a connectivity probe.
func (c *Client) Projects() ([]Project, error) {
	var projects []Project

	if err := c.do(http.MethodGet, "/project", "list projects", nil, &projects); err != nil {
		return nil, err
	}

	return projects, nil
}

type transition struct {
	ID string `json:"id"`
	To struct {
		Name string `json:"name"`
	} `json:"to"`
}

// TransitionIssue moves the remote issue to the workflow status whose name
// matches statusName case-insensitively. Returns ErrTransitionNotFound when
// the issue's current state offers no such transition.
func (c *Client) TransitionIssue(issueKey string, statusName string) error {
	var result struct {
		Transitions []transition `json:"transitions"`
	}

	path := fmt.Sprintf("/issue/%s/transitions", issueKey)

	if err := c.do(http.MethodGet, path, "get transitions", nil, &result); err != nil {
		return err
	}

	var match *transition

	for i := range result.Transitions {
		if strings.EqualFold(result.Transitions[i].To.Name, statusName) {
			match = &result.Transitions[i]
			break
		}
	}

	if match == nil {
		return ErrTransitionNotFound
	}

	payload := struct {
		Transition struct {
			ID string `json:"id"`
		} `json:"transition"`
	}{}
	payload.Transition.ID = match.ID

	return c.do(http.MethodPost, path, "transition issue", payload, nil)
}

func (c *Client) do(method, path, op string, payload interface{}, out interface{}) error {
	body := &bytes.Buffer{}

	if payload != nil {
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)

	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Basic "+c.basicAuth())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.config.Email + ":" + c.config.APIToken))
}
