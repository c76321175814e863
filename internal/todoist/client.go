// Package todoist is a minimal Todoist REST v2 client covering what the
// pipeline needs: provisioning a project with per-course sections at
// registration, and creating one task per new course item.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// API is the per-user Todoist surface. Clients are built per token via a
// Factory because the token travels inside the user record.
type API interface {
	AddProject(ctx context.Context, name string) (*Project, error)
	AddSection(ctx context.Context, name, projectID string) (*Section, error)
	AddTask(ctx context.Context, task NewTask) (*Task, error)
}

// Factory builds an API bound to one user's token.
type Factory func(token string) API

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type Task struct {
	ID string `json:"id"`
}

// NewTask is a task creation request.
type NewTask struct {
	Content     string   `json:"content"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	Description string   `json:"description,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewFactory returns a Factory for the given API base URL.
func NewFactory(baseURL string) Factory {
	return func(token string) API {
		return &Client{
			baseURL: baseURL,
			token:   token,
			httpClient: &http.Client{
				Timeout: 15 * time.Second,
			},
		}
	}
}

func (c *Client) AddProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	if err := c.post(ctx, "/projects", map[string]string{"name": name}, &p); err != nil {
		return nil, fmt.Errorf("add project %q: %w", name, err)
	}
	return &p, nil
}

func (c *Client) AddSection(ctx context.Context, name, projectID string) (*Section, error) {
	body := map[string]string{
		"name":       name,
		"project_id": projectID,
	}
	var s Section
	if err := c.post(ctx, "/sections", body, &s); err != nil {
		return nil, fmt.Errorf("add section %q: %w", name, err)
	}
	return &s, nil
}

func (c *Client) AddTask(ctx context.Context, task NewTask) (*Task, error) {
	var t Task
	if err := c.post(ctx, "/tasks", task, &t); err != nil {
		return nil, fmt.Errorf("add task: %w", err)
	}
	return &t, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("todoist api error: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
