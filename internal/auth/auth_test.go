package auth

import (
	"testing"

	"voicetovision/internal/config"
)

func TestAuthorizerLists(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.AuthorizedUsers = []string{"100", "200"}
	cfg.Auth.Admins = []string{"300"}

	a := New(&cfg)

	if !a.IsAuthorized("100") || !a.IsAuthorized("200") {
		t.Error("listed users should be authorized")
	}
	if a.IsAuthorized("999") {
		t.Error("unlisted user should not be authorized")
	}
	if a.IsAdmin("100") {
		t.Error("regular user should not be admin")
	}
	if !a.IsAdmin("300") {
		t.Error("listed admin should be admin")
	}
	// Admins are implicitly authorized.
	if !a.IsAuthorized("300") {
		t.Error("admin should be authorized")
	}
	if !a.IsAuthorized(ServiceInbox) {
		t.Error("inbox service identity should always be authorized")
	}
	if a.IsAdmin(ServiceInbox) {
		t.Error("inbox service identity must not be admin")
	}
}

func TestAuthorizerEmptyListsDenyEveryone(t *testing.T) {
	cfg := config.Default()
	a := New(&cfg)
	if a.IsAuthorized("1") || a.IsAdmin("1") || a.IsAuthorized("") {
		t.Error("empty allowlists must deny all users")
	}
}
