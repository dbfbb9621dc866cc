package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultBaseURL = "https://chat.stream-io-api.com"

// Client talks to a Stream-compatible chat API. User-facing tokens and the
// server-side auth token are both HS256 JWTs signed with the API secret.
type Client struct {
	apiKey     string
	apiSecret  []byte
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a chat provider client. baseURL may be empty to use the
// provider's default endpoint.
func NewClient(apiKey, apiSecret, baseURL string) (*Client, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("chat provider credentials not configured")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		apiSecret:  []byte(apiSecret),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// CreateToken mints a chat token for a user. The provider validates the
// signature against the shared API secret.
func (c *Client) CreateToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("empty user id")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
	})
	return token.SignedString(c.apiSecret)
}

// serverToken is the credential for server-to-server API calls.
func (c *Client) serverToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
	})
	return token.SignedString(c.apiSecret)
}

// UpsertUser creates or updates the user's chat-side profile so that the
// chat UI can render names and avatars.
func (c *Client) UpsertUser(ctx context.Context, user User) error {
	if user.ID == "" {
		return fmt.Errorf("empty user id")
	}

	body, err := json.Marshal(map[string]map[string]User{
		"users": {user.ID: user},
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/users?api_key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	authToken, err := c.serverToken()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authToken)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chat provider returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
