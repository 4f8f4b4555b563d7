package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures describes demo data for `micropost seed`.
// Users are referenced by name inside the file.
type Fixtures struct {
	Users   []string        `yaml:"users"`
	Posts   []FixturePost   `yaml:"posts"`
	Presets []FixturePreset `yaml:"presets"`
}

// FixturePost is a post authored by a named user
type FixturePost struct {
	Author      string `yaml:"author"`
	Content     string `yaml:"content"`
	Highlighted bool   `yaml:"highlighted"`
}

// FixturePreset is a preset owned by a named user
type FixturePreset struct {
	Owner                   string   `yaml:"owner"`
	Name                    string   `yaml:"name"`
	Members                 []string `yaml:"members"`
	NotifyOnAnyPost         bool     `yaml:"notify_on_any_post"`
	NotifyOnHighlightedOnly bool     `yaml:"notify_on_highlighted_only"`
}

// LoadFixtures loads fixtures from a YAML file
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures parses fixtures and checks that every referenced user is declared
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	declared := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		declared[u] = true
	}
	check := func(name, where string) error {
		if !declared[name] {
			return fmt.Errorf("fixtures: %s references undeclared user %q", where, name)
		}
		return nil
	}
	for i, p := range f.Posts {
		if err := check(p.Author, fmt.Sprintf("posts[%d]", i)); err != nil {
			return nil, err
		}
	}
	for i, p := range f.Presets {
		where := fmt.Sprintf("presets[%d]", i)
		if err := check(p.Owner, where); err != nil {
			return nil, err
		}
		for _, m := range p.Members {
			if err := check(m, where); err != nil {
				return nil, err
			}
		}
	}
	return &f, nil
}
