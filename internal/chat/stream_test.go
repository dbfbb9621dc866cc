package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "secret", "")
	require.Error(t, err)

	_, err = NewClient("key", "", "")
	require.Error(t, err)
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	client, err := NewClient("key", "secret", "")
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, client.baseURL)

	client, err = NewClient("key", "secret", "https://chat.example.com")
	require.NoError(t, err)
	require.Equal(t, "https://chat.example.com", client.baseURL)
}

func TestCreateToken(t *testing.T) {
	client, err := NewClient("key", "supersecret", "")
	require.NoError(t, err)

	tokenStr, err := client.CreateToken("user-123")
	require.NoError(t, err)

	// The token must verify against the API secret and carry the user id.
	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
		return []byte("supersecret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "user-123", claims["user_id"])
}

func TestCreateTokenEmptyUser(t *testing.T) {
	client, err := NewClient("key", "supersecret", "")
	require.NoError(t, err)

	_, err = client.CreateToken("")
	require.Error(t, err)
}

func TestUpsertUser(t *testing.T) {
	var got struct {
		Users map[string]User `json:"users"`
	}
	var gotAuthType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users", r.URL.Path)
		require.Equal(t, "key", r.URL.Query().Get("api_key"))
		gotAuthType = r.Header.Get("Stream-Auth-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := NewClient("key", "supersecret", srv.URL)
	require.NoError(t, err)

	err = client.UpsertUser(context.Background(), User{ID: "user-123", Name: "Alice", Image: "pic.png"})
	require.NoError(t, err)

	require.Equal(t, "jwt", gotAuthType)
	require.Equal(t, "Alice", got.Users["user-123"].Name)
}

func TestUpsertUserProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient("key", "supersecret", srv.URL)
	require.NoError(t, err)

	err = client.UpsertUser(context.Background(), User{ID: "user-123", Name: "Alice"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}
