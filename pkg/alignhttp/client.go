package alignhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"lipsync/pkg/mfa"
	"lipsync/pkg/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	URL string `yaml:"url"`
}

// Client talks to an alignment server that runs the forced aligner remotely
// and answers with the same JSON document the local aligner writes.
type Client struct {
	httpClient HTTPClient
	cfg        *Config
}

func New(httpClient HTTPClient, cfg *Config) *Client {
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

type alignRequest struct {
	Audio      []byte `json:"audio"`
	Transcript string `json:"transcript"`
	Language   string `json:"language"`
}

type versionResponse struct {
	Version string `json:"version"`
}

func (c *Client) endpoint(p string) (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	u.Path = p

	return u.String(), nil
}

func (c *Client) Align(ctx context.Context, req mfa.Request) ([]byte, error) {
	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	transcript, err := os.ReadFile(req.TranscriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	reqBody, err := json.Marshal(alignRequest{
		Audio:      audio,
		Transcript: string(transcript),
		Language:   req.Language,
	})
	if err != nil {
		return nil, err
	}

	u, err := c.endpoint("/align")
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send http request: %w", err)
	}
	defer tools.DrainAndClose(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read http response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to align: %s: %s", resp.Status, bytes.TrimSpace(respBody))
	}

	return respBody, nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	u, err := c.endpoint("/version")
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send http request: %w", err)
	}
	defer tools.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get version: %s", resp.Status)
	}

	var version versionResponse
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", fmt.Errorf("failed to unmarshal http response body: %w", err)
	}

	return version.Version, nil
}
