package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sorenmh/appsmith/failure"
	"github.com/sorenmh/appsmith/models"
)

// Client is an appsd API client
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new appsd API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// joinURL safely joins a base URL with a path, handling trailing slashes
func (c *Client) joinURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// do sends a request and decodes the response into out when it is non-nil.
// Every error it returns carries a failure kind.
func (c *Client) do(ctx context.Context, method, rawURL string, in, out interface{}, want int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return failure.Transport(fmt.Errorf("failed to marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return failure.Transport(fmt.Errorf("failed to create request: %w", err))
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return failure.Transport(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return failure.Transport(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// statusError maps a non-success response to a failure kind. 400 and 404
// carry the server's message, everything else is a transport failure.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp models.ErrorResponse
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return failure.Validation(msg)
	case http.StatusNotFound:
		return failure.NotFound(msg)
	default:
		return failure.Transport(fmt.Errorf("API returned status %d: %s", resp.StatusCode, msg))
	}
}

func (c *Client) appURL(id string, parts ...string) string {
	path := "api/v1/apps/" + url.PathEscape(id)
	for _, p := range parts {
		path += "/" + p
	}
	return c.joinURL(path)
}

// ListApplications lists applications
func (c *Client) ListApplications(ctx context.Context, limit, offset int) (*models.ListAppsResponse, error) {
	u, err := url.Parse(c.joinURL("api/v1/apps"))
	if err != nil {
		return nil, failure.Transport(fmt.Errorf("failed to parse URL: %w", err))
	}

	q := u.Query()
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	u.RawQuery = q.Encode()

	var listResp models.ListAppsResponse
	if err := c.do(ctx, http.MethodGet, u.String(), nil, &listResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &listResp, nil
}

// CreateApplication creates a new application
func (c *Client) CreateApplication(ctx context.Context, req *models.CreateAppRequest) (*models.Application, error) {
	var app models.Application
	if err := c.do(ctx, http.MethodPost, c.joinURL("api/v1/apps"), req, &app, http.StatusCreated); err != nil {
		return nil, err
	}
	return &app, nil
}

// resolvePageSize is the page size used when looking up an application by name
const resolvePageSize = 100

// ResolveID turns an application name or ID into an ID. Names are matched
// across every page of the list.
func (c *Client) ResolveID(ctx context.Context, nameOrID string) (string, error) {
	if _, err := uuid.Parse(nameOrID); err == nil {
		return nameOrID, nil
	}

	offset := 0
	for {
		resp, err := c.ListApplications(ctx, resolvePageSize, offset)
		if err != nil {
			return "", err
		}
		for _, app := range resp.Apps {
			if app.Name == nameOrID {
				return app.ID, nil
			}
		}
		offset += len(resp.Apps)
		if len(resp.Apps) == 0 || offset >= resp.Total {
			break
		}
	}
	return "", failure.NotFound(fmt.Sprintf("application not found: %s", nameOrID))
}

// FetchDetail gets the full detail of an application
func (c *Client) FetchDetail(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	if err := c.do(ctx, http.MethodGet, c.appURL(id), nil, &app, http.StatusOK); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateInfo replaces name, icon and description of an application
func (c *Client) UpdateInfo(ctx context.Context, id string, req *models.UpdateInfoRequest) (*models.Application, error) {
	var app models.Application
	if err := c.do(ctx, http.MethodPut, c.appURL(id), req, &app, http.StatusOK); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateSiteConfig changes the site config of an application
func (c *Client) UpdateSiteConfig(ctx context.Context, id string, params *models.SiteConfigParams) error {
	return c.do(ctx, http.MethodPost, c.appURL(id, "site"), params, nil, http.StatusOK)
}

// Duplicate copies an application
func (c *Client) Duplicate(ctx context.Context, id string, req *models.DuplicateRequest) (*models.Application, error) {
	var app models.Application
	if err := c.do(ctx, http.MethodPost, c.appURL(id, "copy"), req, &app, http.StatusCreated); err != nil {
		return nil, err
	}
	return &app, nil
}

// Export returns the raw configuration snapshot of an application
func (c *Client) Export(ctx context.Context, id string) ([]byte, error) {
	var exp models.ExportResponse
	if err := c.do(ctx, http.MethodGet, c.appURL(id, "export"), nil, &exp, http.StatusOK); err != nil {
		return nil, err
	}
	if exp.Data == "" {
		return nil, failure.Transport(errors.New("export returned no data"))
	}
	return []byte(exp.Data), nil
}

// Delete removes an application
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.appURL(id), nil, nil, http.StatusNoContent)
}

// Usage returns the plan usage counters
func (c *Client) Usage(ctx context.Context) (*models.UsageResponse, error) {
	var usage models.UsageResponse
	if err := c.do(ctx, http.MethodGet, c.joinURL("api/v1/usage"), nil, &usage, http.StatusOK); err != nil {
		return nil, err
	}
	return &usage, nil
}
