// Package permission evaluates allow-list permission codes of the form
// "resource:action". Every function is pure: the answer depends only on the
// set and the codes passed in.
package permission

import (
	"encoding/json"
	"sort"
	"strings"
)

const separator = ":"

// Set is an unordered collection of unique permission codes.
type Set map[string]struct{}

// NewSet builds a Set from codes, dropping blanks and duplicates.
func NewSet(codes ...string) Set {
	set := make(Set, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

// Code joins a resource and an action into a permission code.
func Code(resource, action string) string {
	return resource + separator + action
}

// ParseCode splits a code into resource and action. ok is false when the code
// is not of the form "resource:action".
func ParseCode(code string) (resource, action string, ok bool) {
	resource, action, found := strings.Cut(code, separator)
	if !found || resource == "" || action == "" {
		return "", "", false
	}
	return resource, action, true
}

// Contains reports whether code is a member of the set.
func (s Set) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// Len returns the number of codes in the set.
func (s Set) Len() int {
	return len(s)
}

// Codes returns the members sorted, for stable output.
func (s Set) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for code := range s {
		out[code] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array of codes.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Codes())
}

// UnmarshalJSON decodes an array of codes.
func (s *Set) UnmarshalJSON(data []byte) error {
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		return err
	}
	*s = NewSet(codes...)
	return nil
}

// Has reports whether the set grants action on resource.
func Has(set Set, resource, action string) bool {
	return set.Contains(Code(resource, action))
}

// HasAny reports whether at least one of codes is granted. An empty list
// declares no restriction and is always satisfied; an empty set satisfies no
// non-empty list.
func HasAny(set Set, codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	if len(set) == 0 {
		return false
	}
	for _, code := range codes {
		if set.Contains(code) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of codes is granted. An empty list is
// always satisfied.
func HasAll(set Set, codes []string) bool {
	for _, code := range codes {
		if !set.Contains(code) {
			return false
		}
	}
	return true
}

// CanAccessMenu decides whether a navigation entry requiring any of required
// is shown.
func CanAccessMenu(set Set, required []string) bool {
	return HasAny(set, required)
}
