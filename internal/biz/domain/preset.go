package domain

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPresetNameLength is the longest accepted preset name, in runes
const MaxPresetNameLength = 25

// PresetSetting decides which posts of a preset's members raise notifications.
// The two flags are always written together.
type PresetSetting struct {
	NotifyOnAnyPost         bool `json:"notify_on_any_post"`
	NotifyOnHighlightedOnly bool `json:"notify_on_highlighted_only"`
}

// IsActive reports whether the setting selects any post at all
func (s PresetSetting) IsActive() bool {
	return s.NotifyOnAnyPost || s.NotifyOnHighlightedOnly
}

// Preset represents an owner-defined group of watched users
type Preset struct {
	ID        string
	OwnerID   string
	Name      string
	Members   []string // Watched user IDs, never contains OwnerID
	Setting   PresetSetting
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy checks if the preset belongs to the given user
func (p *Preset) IsOwnedBy(userID string) bool {
	return p.OwnerID == userID
}

// PresetInput is the payload for creating a preset.
// A nil Setting creates an inactive preset.
type PresetInput struct {
	Name    string
	Members []string
	Setting *SettingPatch
}

// SettingPatch carries a setting update. Both flags must be present.
type SettingPatch struct {
	NotifyOnAnyPost         *bool `json:"notify_on_any_post"`
	NotifyOnHighlightedOnly *bool `json:"notify_on_highlighted_only"`
}

// Resolve turns the patch into a full setting, rejecting half-filled pairs
func (p *SettingPatch) Resolve() (PresetSetting, error) {
	if p.NotifyOnAnyPost == nil || p.NotifyOnHighlightedOnly == nil {
		return PresetSetting{}, &ValidationError{Field: "setting", Message: "incomplete setting pair"}
	}
	return PresetSetting{
		NotifyOnAnyPost:         *p.NotifyOnAnyPost,
		NotifyOnHighlightedOnly: *p.NotifyOnHighlightedOnly,
	}, nil
}

// PresetPatch is an owner's update. Nil fields are left untouched.
type PresetPatch struct {
	Name    *string
	Members *[]string
	Setting *SettingPatch
}

// NormalizePresetName trims and validates a preset name
func NormalizePresetName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", &ValidationError{Field: "name", Message: "required"}
	}
	if n > MaxPresetNameLength {
		return "", &ValidationError{Field: "name", Message: "must be at most 25 characters"}
	}
	return name, nil
}

// NormalizeMembers validates a member list against its owner and returns it
// deduplicated and sorted. Existence of each member is checked by the caller.
func NormalizeMembers(ownerID string, members []string) ([]string, error) {
	seen := make(map[string]struct{}, len(members))
	result := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			return nil, &ValidationError{Field: "members", Message: "empty member id"}
		}
		if m == ownerID {
			return nil, &ValidationError{Field: "members", Message: "owner cannot watch themselves"}
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}
	sort.Strings(result)
	return result, nil
}
