package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Mail is the webmail scraper collaborator: session auth, page enumeration,
// per-page mail ids and server-side forwarding.
type Mail interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	CountPages(ctx context.Context, session string) (int, error)
	ListMailIDs(ctx context.Context, session string, page int) ([]string, error)
	Forward(ctx context.Context, session, mailID, toAddress string) error
}

// MailClient talks to the webmail scraper service.
type MailClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMailClient(baseURL string) *MailClient {
	return &MailClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Authenticate logs in to the webmail system and returns a session token.
func (c *MailClient) Authenticate(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("mail scraper auth error: %d", resp.StatusCode)
	}

	var out struct {
		Session string `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Session == "" {
		return "", fmt.Errorf("mail scraper returned empty session")
	}
	return out.Session, nil
}

func (c *MailClient) CountPages(ctx context.Context, session string) (int, error) {
	var out struct {
		Pages int `json:"pages"`
	}
	if err := c.get(ctx, session, "/mail/pages", &out); err != nil {
		return 0, err
	}
	return out.Pages, nil
}

func (c *MailClient) ListMailIDs(ctx context.Context, session string, page int) ([]string, error) {
	var out struct {
		MailIDs []string `json:"mail_ids"`
	}
	if err := c.get(ctx, session, fmt.Sprintf("/mail/pages/%d", page), &out); err != nil {
		return nil, err
	}
	return out.MailIDs, nil
}

// Forward asks the webmail system to forward one mail to the given address.
func (c *MailClient) Forward(ctx context.Context, session, mailID, toAddress string) error {
	body, err := json.Marshal(map[string]string{"to": toAddress})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/mail/%s/forward", c.baseURL, url.PathEscape(mailID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session", session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail scraper forward error for %s: %d", mailID, resp.StatusCode)
	}
	return nil
}

func (c *MailClient) get(ctx context.Context, session, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Session", session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail scraper error on %s: %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
