// Package scraper holds the clients for the external scraping collaborators:
// the CMS portal scraper and the webmail scraper. Both are thin HTTP JSON
// clients; the actual HTML session handling lives in the scraper services.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gucnotify/internal/model"
)

// ErrInvalidCredentials is returned when the portal rejects the user's
// username/password. Registration maps it to a client error; it is never
// retried.
var ErrInvalidCredentials = errors.New("invalid GUC username or password")

// CourseData is the current remote state of one course.
type CourseData struct {
	Announcements string       `json:"announcements"`
	Weeks         []model.Week `json:"weeks"`
}

// CMS pulls the current portal state for a user.
type CMS interface {
	GetCourses(ctx context.Context, username, password string) ([]model.CourseMetadata, error)
	GetCourseData(ctx context.Context, username, password, courseID, semester string) (*CourseData, error)
}

// CMSClient talks to the CMS scraper service.
type CMSClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCMSClient(baseURL string) *CMSClient {
	return &CMSClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // 抓取一个课程可能很慢
		},
	}
}

func (c *CMSClient) GetCourses(ctx context.Context, username, password string) ([]model.CourseMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/courses", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(username, password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cms scraper error: %d", resp.StatusCode)
	}

	var courses []model.CourseMetadata
	if err := json.NewDecoder(resp.Body).Decode(&courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CMSClient) GetCourseData(ctx context.Context, username, password, courseID, semester string) (*CourseData, error) {
	u := fmt.Sprintf("%s/courses/%s/data?semester=%s",
		c.baseURL, url.PathEscape(courseID), url.QueryEscape(semester))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(username, password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cms scraper error for course %s: %d", courseID, resp.StatusCode)
	}

	var data CourseData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
