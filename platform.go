package dbdeploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of an error response is kept in APIError.
const maxErrorBody = 4 << 10

// PlatformClient talks to the hosted platform's HTTP APIs.
type PlatformClient struct {
	settings   *Settings
	httpClient *http.Client
}

// NewPlatformClient creates a client. A nil httpClient gets a 30s timeout client.
func NewPlatformClient(s *Settings, httpClient *http.Client) *PlatformClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &PlatformClient{
		settings:   s,
		httpClient: httpClient,
	}
}

// Probe checks that the REST endpoint accepts the service credential.
func (c *PlatformClient) Probe(ctx context.Context) error {
	url := strings.TrimRight(c.settings.URL, "/") + "/rest/v1/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.settings.ServiceRoleKey)
	req.Header.Set("Authorization", "Bearer "+c.settings.ServiceRoleKey)

	slog.Debug("probing rest endpoint", "url", url, "key", c.settings.MaskedKey())
	return c.do(req)
}

// RunQuery sends sql to the management API query endpoint of the project.
func (c *PlatformClient) RunQuery(ctx context.Context, sql string) error {
	if c.settings.AccessToken == "" {
		return fmt.Errorf("%w: SUPABASE_ACCESS_TOKEN", ErrMissingSettings)
	}
	ref := c.settings.ProjectRef()
	if ref == "_" {
		return fmt.Errorf("%w: SUPABASE_PROJECT_REF", ErrMissingSettings)
	}

	body, err := json.Marshal(map[string]string{"query": sql})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/v1/projects/%s/database/query", strings.TrimRight(c.settings.APIURL, "/"), ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.settings.AccessToken)

	slog.Debug("running query via management api", "url", url, "bytes", len(sql))
	return c.do(req)
}

func (c *PlatformClient) do(req *http.Request) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
