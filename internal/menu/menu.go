// Package menu loads the console navigation and trims it to what a
// permission set may see.
package menu

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/ag-office-console/internal/permission"
)

//go:embed menu.yaml
var defaultMenu []byte

// Item is a navigation entry. An item with children and no path is a group.
type Item struct {
	Key         string   `yaml:"key" json:"key"`
	Name        string   `yaml:"name" json:"name"`
	Path        string   `yaml:"path,omitempty" json:"path,omitempty"`
	Permissions []string `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Children    []Item   `yaml:"children,omitempty" json:"children,omitempty"`
}

// Section groups items under an optional label.
type Section struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	Items []Item `yaml:"items" json:"items"`
}

// Route is a navigable path and the codes guarding it.
type Route struct {
	Key         string
	Name        string
	Path        string
	Permissions []string
}

// Default returns the embedded console navigation.
func Default() ([]Section, error) {
	return Parse(defaultMenu)
}

// Parse decodes a YAML navigation document.
func Parse(raw []byte) ([]Section, error) {
	var sections []Section
	if err := yaml.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("parse menu: %w", err)
	}
	for _, s := range sections {
		if s.Key == "" {
			return nil, fmt.Errorf("parse menu: section without key")
		}
	}
	return sections, nil
}

// Filter returns the sections visible to set. Sections are never modified in
// place.
func Filter(sections []Section, set permission.Set) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		items := filterItems(s.Items, set)
		if len(items) == 0 {
			continue
		}
		s.Items = items
		out = append(out, s)
	}
	return out
}

func filterItems(items []Item, set permission.Set) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if !permission.CanAccessMenu(set, item.Permissions) {
			continue
		}
		if len(item.Children) > 0 {
			children := filterItems(item.Children, set)
			if len(children) == 0 && item.Path == "" {
				continue
			}
			item.Children = children
			if len(children) == 0 {
				item.Children = nil
			}
		}
		out = append(out, item)
	}
	return out
}

// Routes flattens the navigable items. An item without permissions of its
// own inherits those of its nearest guarded ancestor. When a path appears
// more than once the first occurrence wins.
func Routes(sections []Section) []Route {
	seen := make(map[string]struct{})
	var out []Route
	var walk func(items []Item, inherited []string)
	walk = func(items []Item, inherited []string) {
		for _, item := range items {
			perms := item.Permissions
			if len(perms) == 0 {
				perms = inherited
			}
			if item.Path != "" {
				if _, dup := seen[item.Path]; !dup {
					seen[item.Path] = struct{}{}
					out = append(out, Route{Key: item.Key, Name: item.Name, Path: item.Path, Permissions: perms})
				}
			}
			walk(item.Children, perms)
		}
	}
	for _, s := range sections {
		walk(s.Items, nil)
	}
	return out
}
