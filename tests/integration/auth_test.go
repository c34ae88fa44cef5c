//go:build integration
// +build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestGuestCreation(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	guest := createGuest(t, baseURL, "Guest")

	if guest.ID == "" {
		t.Fatal("learner ID is empty")
	}
	if guest.RefreshToken == "" {
		t.Fatal("refresh token is empty")
	}
}

func TestGuestDisplayNameTooLong(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	long := make([]byte, 60)
	for i := range long {
		long[i] = 'a'
	}

	var out errorBody
	status := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/auth/guest", baseURL), "", map[string]string{"display_name": string(long)}, &out)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if out.Error != "validation_failed" {
		t.Fatalf("unexpected error code: %s", out.Error)
	}
}

func TestRefreshToken(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	guest := createGuest(t, baseURL, "Refresh")

	var out struct {
		AccessToken string `json:"access_token"`
	}
	status := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/auth/refresh", baseURL), "", map[string]string{"refresh_token": guest.RefreshToken}, &out)
	if status != http.StatusOK {
		t.Fatalf("refresh failed: %d", status)
	}
	if out.AccessToken == "" {
		t.Fatal("refresh returned empty access token")
	}

	status = doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/auth/refresh", baseURL), "", map[string]string{"refresh_token": guest.AccessToken}, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("access token accepted as refresh token: %d", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	for _, path := range []string{"/v1/progress", "/v1/tutor/transcript", "/v1/preferences/language"} {
		status := doJSON(t, http.MethodGet, baseURL+path, "", nil, nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, status)
		}
	}
}
