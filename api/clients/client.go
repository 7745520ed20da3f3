package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ruteri/fincrypt/api"
)

// Client talks to a FinCrypt HTTP server.
type Client struct {
	// ServerAddr is the base URL of the server, e.g. http://127.0.0.1:8080.
	ServerAddr string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Encrypt asks the server to seal plaintext for recipient and sign it with the server's key.
func (c *Client) Encrypt(ctx context.Context, recipient string, plaintext []byte) (*api.EncryptResponse, error) {
	var resp api.EncryptResponse
	if err := c.do(ctx, http.MethodPost, api.EncryptPath+url.PathEscape(recipient), plaintext, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Decrypt asks the server to open text addressed to its key and verify it against sender.
func (c *Client) Decrypt(ctx context.Context, sender string, text string) (*api.DecryptResponse, error) {
	var resp api.DecryptResponse
	if err := c.do(ctx, http.MethodPost, api.DecryptPath+url.PathEscape(sender), []byte(text), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Keys lists the public keys known to the server.
func (c *Client) Keys(ctx context.Context) (*api.KeysResponse, error) {
	var resp api.KeysResponse
	if err := c.do(ctx, http.MethodGet, api.KeysPath, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.ServerAddr, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
