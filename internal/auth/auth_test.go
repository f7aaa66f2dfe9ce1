package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestKeyAuthenticator_ValidKeyPerRole(t *testing.T) {
	a := NewKeyAuthenticator("device-secret", "dashboard-secret")

	r := httptest.NewRequest("POST", "/data", nil)
	r.Header.Set("X-API-Key", "device-secret")

	if _, err := a.Authenticate(r, RoleDevice); err != nil {
		t.Errorf("Valid device key rejected: %v", err)
	}
}

func TestKeyAuthenticator_RoleSeparation(t *testing.T) {
	a := NewKeyAuthenticator("device-secret", "dashboard-secret")

	// A correct device key must not pass on a dashboard endpoint
	r := httptest.NewRequest("GET", "/data", nil)
	r.Header.Set("X-API-Key", "device-secret")
	if _, err := a.Authenticate(r, RoleDashboard); err == nil {
		t.Error("Device key accepted for dashboard role")
	}

	// And vice versa
	r = httptest.NewRequest("POST", "/data", nil)
	r.Header.Set("X-API-Key", "dashboard-secret")
	if _, err := a.Authenticate(r, RoleDevice); err == nil {
		t.Error("Dashboard key accepted for device role")
	}
}

func TestKeyAuthenticator_MissingOrWrongKey(t *testing.T) {
	a := NewKeyAuthenticator("device-secret", "dashboard-secret")

	r := httptest.NewRequest("POST", "/data", nil)
	if _, err := a.Authenticate(r, RoleDevice); err == nil {
		t.Error("Missing key accepted")
	}

	r.Header.Set("X-API-Key", "wrong")
	if _, err := a.Authenticate(r, RoleDevice); err == nil {
		t.Error("Wrong key accepted")
	}
}

func TestKeyAuthenticator_EmptyConfiguredSecret(t *testing.T) {
	a := NewKeyAuthenticator("", "dashboard-secret")

	// An unset secret must not be matchable with an empty header
	r := httptest.NewRequest("POST", "/data", nil)
	r.Header.Set("X-API-Key", "")
	if _, err := a.Authenticate(r, RoleDevice); err == nil {
		t.Error("Empty key matched empty configured secret")
	}
}

func TestTokenAuthenticator_IssueAndVerify(t *testing.T) {
	a := NewTokenAuthenticator("test-secret", time.Hour, "dashboard-secret")

	token, err := a.Issue("sensor-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	r := httptest.NewRequest("POST", "/data", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	identity, err := a.Authenticate(r, RoleDevice)
	if err != nil {
		t.Fatalf("Valid token rejected: %v", err)
	}
	if identity.DeviceID != "sensor-42" {
		t.Errorf("Expected device id sensor-42, got %s", identity.DeviceID)
	}
}

func TestTokenAuthenticator_ExpiredToken(t *testing.T) {
	a := NewTokenAuthenticator("test-secret", -time.Minute, "dashboard-secret")

	token, err := a.Issue("sensor-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	r := httptest.NewRequest("POST", "/data", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	if _, err := a.Authenticate(r, RoleDevice); err == nil {
		t.Error("Expired token accepted")
	}
}

func TestTokenAuthenticator_TamperedToken(t *testing.T) {
	a := NewTokenAuthenticator("test-secret", time.Hour, "dashboard-secret")

	token, err := a.Issue("sensor-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Flip the last character of the signature
	tampered := token[:len(token)-1]
	if token[len(token)-1] == 'A' {
		tampered += "B"
	} else {
		tampered += "A"
	}

	r := httptest.NewRequest("POST", "/data", nil)
	r.Header.Set("Authorization", "Bearer "+tampered)

	if _, err := a.Authenticate(r, RoleDevice); err == nil {
		t.Error("Tampered token accepted")
	}
}

func TestTokenAuthenticator_WrongSecret(t *testing.T) {
	issuer := NewTokenAuthenticator("secret-a", time.Hour, "dashboard-secret")
	verifier := NewTokenAuthenticator("secret-b", time.Hour, "dashboard-secret")

	token, err := issuer.Issue("sensor-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	r := httptest.NewRequest("POST", "/data", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	if _, err := verifier.Authenticate(r, RoleDevice); err == nil {
		t.Error("Token signed with a different secret accepted")
	}
}

func TestTokenAuthenticator_MalformedHeader(t *testing.T) {
	a := NewTokenAuthenticator("test-secret", time.Hour, "dashboard-secret")

	for _, header := range []string{"", "Bearer", "Basic abc", "nonsense"} {
		r := httptest.NewRequest("POST", "/data", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if _, err := a.Authenticate(r, RoleDevice); err == nil {
			t.Errorf("Malformed header %q accepted", header)
		}
	}
}

func TestTokenAuthenticator_DashboardUsesAPIKey(t *testing.T) {
	a := NewTokenAuthenticator("test-secret", time.Hour, "dashboard-secret")

	r := httptest.NewRequest("GET", "/data", nil)
	r.Header.Set("X-API-Key", "dashboard-secret")
	if _, err := a.Authenticate(r, RoleDashboard); err != nil {
		t.Errorf("Dashboard key rejected in token mode: %v", err)
	}

	// A device token must not pass on a dashboard endpoint
	token, _ := a.Issue("sensor-42")
	r = httptest.NewRequest("GET", "/data", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	if _, err := a.Authenticate(r, RoleDashboard); err == nil {
		t.Error("Device token accepted for dashboard role")
	}
}
