package favorites

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"meal-rotation-planner/internal/config"
	"meal-rotation-planner/internal/planner"
	"meal-rotation-planner/internal/recipe"
)

const (
	testKeyID     = "64f0a1b2c3d4e5f6a7b8c9d0"
	testSecretHex = "aabbccddeeff00112233445566778899"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		FavoritesAPIURL:   apiURL,
		FavoritesAdminKey: testKeyID + ":" + testSecretHex,
	}
}

// requireValidToken checks the Authorization header carries a JWT signed
// with the shared admin secret.
func requireValidToken(t *testing.T, r *http.Request) {
	t.Helper()

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		t.Errorf("Expected Bearer authorization header, got %q", header)
		return
	}

	raw := strings.TrimPrefix(header, "Bearer ")
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return hex.DecodeString(testSecretHex)
	})
	if err != nil {
		t.Errorf("Expected valid token, got parse error: %v", err)
		return
	}
	if kid, _ := token.Header["kid"].(string); kid != testKeyID {
		t.Errorf("Expected kid %q, got %q", testKeyID, kid)
	}
}

func TestFetchFavorites(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/recipes" {
			t.Errorf("Expected path /api/v1/recipes, got %s", r.URL.Path)
		}
		requireValidToken(t, r)

		json.NewEncoder(w).Encode(recipesResponse{Recipes: []recipe.Recipe{
			{
				ID:                "fav-01",
				Title:             "Lentil Curry",
				Type:              recipe.TypeMainCourse,
				Cuisine:           recipe.CuisineIndian,
				IngredientsCount:  9,
				InstructionsCount: 6,
				PrepTimeMinutes:   15,
				CookTimeMinutes:   25,
			},
			{
				ID:                "fav-02",
				Title:             "Tiramisu",
				Type:              recipe.TypeDessert,
				Cuisine:           recipe.CuisineItalian,
				IngredientsCount:  7,
				InstructionsCount: 5,
				PrepTimeMinutes:   30,
			},
		}})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	recipes, err := client.FetchFavorites(context.Background())
	if err != nil {
		t.Fatalf("FetchFavorites failed: %v", err)
	}

	if len(recipes) != 2 {
		t.Fatalf("Expected 2 recipes, got %d", len(recipes))
	}
	if recipes[0].ID != "fav-01" || recipes[0].Type != recipe.TypeMainCourse {
		t.Errorf("Unexpected first recipe: %+v", recipes[0])
	}
	if recipes[1].Cuisine != recipe.CuisineItalian {
		t.Errorf("Expected italian cuisine, got %q", recipes[1].Cuisine)
	}
}

func TestFetchFavoritesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.FetchFavorites(context.Background())
	if err == nil {
		t.Fatal("Expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Expected status 500 error, got %v", err)
	}
}

func TestFetchPreferences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/user-7/preferences" {
			t.Errorf("Expected preferences path, got %s", r.URL.Path)
		}
		requireValidToken(t, r)

		prefs := planner.DefaultPreferences()
		prefs.MaxPrepTimeWeeknight = 30
		prefs.DietaryRestrictions = []recipe.DietaryTag{recipe.TagVegetarian}
		json.NewEncoder(w).Encode(preferencesResponse{Preferences: prefs})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	prefs, ok, err := client.FetchPreferences(context.Background(), "user-7")
	if err != nil {
		t.Fatalf("FetchPreferences failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected preferences to be found")
	}
	if prefs.MaxPrepTimeWeeknight != 30 {
		t.Errorf("Expected weeknight ceiling 30, got %d", prefs.MaxPrepTimeWeeknight)
	}
	if len(prefs.DietaryRestrictions) != 1 || prefs.DietaryRestrictions[0] != recipe.TagVegetarian {
		t.Errorf("Expected vegetarian restriction, got %v", prefs.DietaryRestrictions)
	}
}

func TestFetchPreferencesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, ok, err := client.FetchPreferences(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FetchPreferences failed: %v", err)
	}
	if ok {
		t.Error("Expected ok=false for user without saved preferences")
	}
}

func TestCreateAdminTokenBadKey(t *testing.T) {
	client := &favoritesClient{
		httpClient: &http.Client{},
		config:     &config.Config{FavoritesAdminKey: "not-a-valid-key"},
	}

	_, err := client.createAdminToken()
	if err == nil {
		t.Fatal("Expected error for malformed admin key, got nil")
	}
	if !strings.Contains(err.Error(), "invalid admin key format") {
		t.Errorf("Expected key format error, got %v", err)
	}
}
