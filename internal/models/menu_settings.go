package models

import (
	"time"

	"gorm.io/datatypes"
)

// MenuSettingsID identifies the singleton settings row.
const MenuSettingsID = "main"

// Feature flags gating the workflow pages.
const (
	FeatureMockEval01 = "mockEval01"
	FeatureMockEval02 = "mockEval02"
	FeatureProbing01  = "probing01"
	FeatureProbing02  = "probing02"
	FeatureActivity2  = "activity2"
)

// KnownFeatures lists the flags exposed in the admin console, in display order.
var KnownFeatures = []string{FeatureMockEval01, FeatureMockEval02, FeatureProbing01, FeatureProbing02, FeatureActivity2}

// MenuSettings maps feature flag names to their enabled state.
type MenuSettings struct {
	ID        string            `gorm:"primaryKey;size:32" json:"id"`
	Flags     datatypes.JSONMap `gorm:"type:json" json:"flags"`
	UpdatedAt *time.Time        `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName keeps the singleton in menu_settings.
func (MenuSettings) TableName() string {
	return "menu_settings"
}

// Disabled reports whether the flag is explicitly switched off. Missing keys and
// non-boolean values count as enabled.
func (m MenuSettings) Disabled(flag string) bool {
	value, ok := m.Flags[flag]
	if !ok {
		return false
	}
	enabled, isBool := value.(bool)
	return isBool && !enabled
}
