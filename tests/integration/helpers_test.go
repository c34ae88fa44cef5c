//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type guestInfo struct {
	ID           string
	AccessToken  string
	RefreshToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func createGuest(t *testing.T, baseURL, displayName string) guestInfo {
	t.Helper()

	payload := map[string]string{
		"display_name": fmt.Sprintf("%s-%d", displayName, time.Now().UnixNano()%10000),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal guest payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/guest", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create guest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected guest response status: %d", resp.StatusCode)
	}

	var out struct {
		LearnerID    string `json:"learner_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode guest response failed: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatalf("empty access token in guest response")
	}

	return guestInfo{ID: out.LearnerID, AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}
}

// doJSON sends body (when non-nil) as JSON with an optional bearer token and
// decodes the response into out (when non-nil). It returns the status code.
func doJSON(t *testing.T, method, url, token string, body, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
