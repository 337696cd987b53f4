package service

import "strings"

// Identity is the signed-in principal resolved from the bearer token.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
}

// SignedIn reports whether the identity carries a stable id.
func (i Identity) SignedIn() bool {
	return strings.TrimSpace(i.UID) != ""
}

// FallbackLabel is the label shown when no registry record is linked.
func (i Identity) FallbackLabel() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// AdminPolicy is the static allow-list of administrator ids.
type AdminPolicy struct {
	uids map[string]struct{}
}

// NewAdminPolicy builds the allow-list from the configured ids.
func NewAdminPolicy(uids []string) AdminPolicy {
	set := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		if trimmed := strings.TrimSpace(uid); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return AdminPolicy{uids: set}
}

// IsAdmin reports whether uid is on the allow-list.
func (p AdminPolicy) IsAdmin(uid string) bool {
	_, ok := p.uids[strings.TrimSpace(uid)]
	return ok
}
