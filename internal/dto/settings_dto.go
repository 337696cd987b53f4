package dto

import "time"

// MenuSettingsResponse lists every known feature flag with its effective state.
type MenuSettingsResponse struct {
	Flags     map[string]bool `json:"flags"`
	UpdatedAt *time.Time      `json:"updated_at"`
}

// FeatureToggleRequest switches a single flag.
type FeatureToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// FeatureAccessResponse reports the gate decision for the current identity.
type FeatureAccessResponse struct {
	Feature string `json:"feature"`
	Granted bool   `json:"granted"`
}
