// Package client provides the HTTP client for Apollo organization lookups.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lead_capture_backend/platform/logger"
)

const (
	DefaultBaseURL = "https://api.apollo.io/v1"

	enrichPath = "/organizations/enrich"
	searchPath = "/organizations/search"
)

// ErrNoAPIKey is returned when the client has no credential.
var ErrNoAPIKey = errors.New("apollo api key not configured")

// FlexNumber handles JSON values that can be either string or number.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexNumber(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
		if str == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexNumber(parsed)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexNumber", string(data))
}

// ToIntPtr converts to an int pointer; zero and negative counts mean unknown.
func (f *FlexNumber) ToIntPtr() *int {
	if f == nil || *f <= 0 {
		return nil
	}
	v := int(*f)
	return &v
}

// Organization is the subset of Apollo's organization record the service uses.
type Organization struct {
	Name                  string      `json:"name"`
	Industry              string      `json:"industry"`
	EstimatedNumEmployees *FlexNumber `json:"estimated_num_employees"`
	LinkedInURL           string      `json:"linkedin_url"`
	WebsiteURL            string      `json:"website_url"`
	ShortDescription      string      `json:"short_description"`
	PrimaryDomain         string      `json:"primary_domain"`
}

type enrichResponse struct {
	Organization *Organization `json:"organization"`
}

type searchResponse struct {
	Organizations []Organization `json:"organizations"`
}

// Client handles Apollo requests. Callers bound each call through ctx.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// New creates a new Apollo client.
func New(baseURL, apiKey string, httpClient *http.Client, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		log:        log,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// EnrichByDomain looks an organization up by web domain.
// Returns nil when Apollo has no match.
func (c *Client) EnrichByDomain(ctx context.Context, domain string) (*Organization, error) {
	var payload enrichResponse
	if err := c.post(ctx, enrichPath, map[string]any{"domain": domain}, &payload); err != nil {
		return nil, err
	}
	return payload.Organization, nil
}

// SearchByName returns the best organization match for a company name.
// Returns nil when Apollo has no match.
func (c *Client) SearchByName(ctx context.Context, name string) (*Organization, error) {
	body := map[string]any{
		"q_organization_name": name,
		"page":                1,
		"per_page":            1,
	}
	var payload searchResponse
	if err := c.post(ctx, searchPath, body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Organizations) == 0 {
		return nil, nil
	}
	org := payload.Organizations[0]
	return &org, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	if !c.Enabled() {
		return ErrNoAPIKey
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("apollo: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("apollo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("apollo request failed", "path", path, "error", err)
		return fmt.Errorf("apollo %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.log.Debug("apollo request error", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("apollo %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apollo %s: decode: %w", path, err)
	}
	return nil
}
