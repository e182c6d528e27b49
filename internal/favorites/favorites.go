// Package favorites talks to the remote favorites service where users
// keep their recipe library and planning preferences.
package favorites

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meal-rotation-planner/internal/config"
	"meal-rotation-planner/internal/planner"
	"meal-rotation-planner/internal/recipe"
)

// Client is an interface for the favorites service API.
type Client interface {
	FetchFavorites(ctx context.Context) ([]recipe.Recipe, error)
	FetchPreferences(ctx context.Context, userID string) (planner.UserPreferences, bool, error)
}

type recipesResponse struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

type preferencesResponse struct {
	Preferences planner.UserPreferences `json:"preferences"`
}

// favoritesClient is the concrete implementation of the favorites API client.
type favoritesClient struct {
	httpClient *http.Client
	config     *config.Config
}

// NewClient creates a new favorites API client.
func NewClient(cfg *config.Config) Client {
	return &favoritesClient{
		httpClient: &http.Client{},
		config:     cfg,
	}
}

// FetchFavorites fetches the user's full recipe library from the
// favorites service.
func (c *favoritesClient) FetchFavorites(ctx context.Context) ([]recipe.Recipe, error) {
	url := fmt.Sprintf("%s/api/v1/recipes", c.config.FavoritesAPIURL)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("favorites api error: status %d", status)
	}

	var response recipesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Recipes, nil
}

// FetchPreferences fetches the planning preferences a user saved on the
// favorites service. The second return value is false when the user has
// never saved any.
func (c *favoritesClient) FetchPreferences(ctx context.Context, userID string) (planner.UserPreferences, bool, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s/preferences", c.config.FavoritesAPIURL, userID)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return planner.UserPreferences{}, false, err
	}
	if status == http.StatusNotFound {
		return planner.UserPreferences{}, false, nil
	}
	if status != http.StatusOK {
		return planner.UserPreferences{}, false, fmt.Errorf("favorites api error: status %d", status)
	}

	var response preferencesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return planner.UserPreferences{}, false, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Preferences, true, nil
}

func (c *favoritesClient) get(ctx context.Context, url string) ([]byte, int, error) {
	token, err := c.createAdminToken()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create admin token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// createAdminToken generates a short-lived JWT for the favorites API.
func (c *favoritesClient) createAdminToken() (string, error) {
	keyParts := strings.Split(c.config.FavoritesAdminKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	id := keyParts[0]
	secretHex := keyParts[1]

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": "/v1/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
