package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizePresetName(t *testing.T) {
	name, err := NormalizePresetName("  friends  ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name != "friends" {
		t.Errorf("Expected trimmed name, got %q", name)
	}

	if _, err := NormalizePresetName("   "); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for blank name, got %v", err)
	}
	if _, err := NormalizePresetName(strings.Repeat("x", 26)); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for long name, got %v", err)
	}
	// Length is counted in characters, not bytes
	if _, err := NormalizePresetName(strings.Repeat("é", 25)); err != nil {
		t.Errorf("Expected 25 runes to be accepted, got %v", err)
	}
}

func TestNormalizeMembers(t *testing.T) {
	got, err := NormalizeMembers("owner", []string{"b", "a", " b "})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected deduplicated sorted members, got %v", got)
	}

	if _, err := NormalizeMembers("owner", []string{"a", "owner"}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected owner membership to be rejected, got %v", err)
	}
	if _, err := NormalizeMembers("owner", []string{""}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected empty id to be rejected, got %v", err)
	}
}

func TestSettingPatch_Resolve(t *testing.T) {
	on, off := true, false

	s, err := (&SettingPatch{NotifyOnAnyPost: &off, NotifyOnHighlightedOnly: &on}).Resolve()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.NotifyOnAnyPost || !s.NotifyOnHighlightedOnly {
		t.Errorf("Unexpected setting %+v", s)
	}

	_, err = (&SettingPatch{NotifyOnAnyPost: &on}).Resolve()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "setting" {
		t.Errorf("Expected setting validation error, got %v", err)
	}
}
