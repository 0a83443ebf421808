// Package auth answers who may submit work and who may perform privileged
// idea operations, based on the configured allowlists.
package auth

import (
	"strings"

	"voicetovision/internal/config"
)

// ServiceInbox is the identity used for files picked up from the inbox
// directory by the daemon itself. It is always authorized to submit.
const ServiceInbox = "inbox"

// Authorizer checks user permissions. Admins are implicitly authorized.
type Authorizer struct {
	authorized map[string]struct{}
	admins     map[string]struct{}
}

// New builds an Authorizer from the configured allowlists.
func New(cfg *config.Config) *Authorizer {
	a := &Authorizer{
		authorized: make(map[string]struct{}, len(cfg.Auth.AuthorizedUsers)),
		admins:     make(map[string]struct{}, len(cfg.Auth.Admins)),
	}
	for _, user := range cfg.Auth.AuthorizedUsers {
		a.authorized[strings.TrimSpace(user)] = struct{}{}
	}
	for _, user := range cfg.Auth.Admins {
		a.admins[strings.TrimSpace(user)] = struct{}{}
	}
	return a
}

// IsAuthorized reports whether a user may submit audio and query ideas.
func (a *Authorizer) IsAuthorized(userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == ServiceInbox {
		return true
	}
	if _, ok := a.authorized[userID]; ok {
		return true
	}
	_, ok := a.admins[userID]
	return ok
}

// IsAdmin reports whether a user may rename or delete ideas.
func (a *Authorizer) IsAdmin(userID string) bool {
	_, ok := a.admins[strings.TrimSpace(userID)]
	return ok
}
