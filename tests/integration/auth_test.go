package integration

import (
	"net/http"
	"testing"
)

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	t.Run("register, login, and fetch profile", func(t *testing.T) {
		app.registerAndLogin(t, "flow@example.com")

		rec := app.request("POST", "/api/v1/auth/login", "",
			`{"email":"flow@example.com","password":"password123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
		}
		token := decodeJSON(t, rec)["token"].(string)

		rec = app.request("GET", "/api/v1/profile", token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("profile fetch failed with %d", rec.Code)
		}
		user := decodeJSON(t, rec)["user"].(map[string]interface{})
		if user["email"] != "flow@example.com" {
			t.Errorf("unexpected profile email %v", user["email"])
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		app.registerAndLogin(t, "locked@example.com")

		rec := app.request("POST", "/api/v1/auth/login", "",
			`{"email":"locked@example.com","password":"wrong-pass"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/assets", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}

		rec = app.request("GET", "/api/v1/assets", "not-a-token", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for a bad token, got %d", rec.Code)
		}
	})
}
