// Package catalog holds the product catalog: the immutable list of
// products and their dated change entries that every dashboard surface
// renders.
//
// The package follows the same split as the rest of the module:
// - types.go: the entity types and the ChangeType enum
// - store.go: the read-only Store and its loaders
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// --- Change type enum ---

// ChangeType categorizes a single change entry.
type ChangeType string

const (
	TypeGA         ChangeType = "General Availability"
	TypePreview    ChangeType = "Preview"
	TypeBugFix     ChangeType = "Bug Fix"
	TypeFeature    ChangeType = "New Feature"
	TypeDeprecated ChangeType = "Deprecation"
	TypeSecurity   ChangeType = "Security Bulletin"
)

// AllTypes lists every change type in display order.
var AllTypes = []ChangeType{
	TypeGA,
	TypePreview,
	TypeBugFix,
	TypeFeature,
	TypeDeprecated,
	TypeSecurity,
}

// validTypes is the set of canonical change types.
var validTypes = map[ChangeType]bool{
	TypeGA:         true,
	TypePreview:    true,
	TypeBugFix:     true,
	TypeFeature:    true,
	TypeDeprecated: true,
	TypeSecurity:   true,
}

// typeAliases maps the short labels used by the backend data files
// (and a few feed headings) to canonical types. Keys are lowercase.
var typeAliases = map[string]ChangeType{
	"ga":                   TypeGA,
	"general availability": TypeGA,
	"preview":              TypePreview,
	"bug fix":              TypeBugFix,
	"bugfix":               TypeBugFix,
	"fix":                  TypeBugFix,
	"fixed":                TypeBugFix,
	"feature":              TypeFeature,
	"new feature":          TypeFeature,
	"deprecated":           TypeDeprecated,
	"deprecation":          TypeDeprecated,
	"security":             TypeSecurity,
	"security bulletin":    TypeSecurity,
}

// ValidateType returns an error if the type is not a canonical change type.
func ValidateType(t ChangeType) error {
	if !validTypes[t] {
		return fmt.Errorf("invalid change type %q: must be one of: %s", t, typeList())
	}
	return nil
}

// ParseChangeType resolves a canonical name or a known alias
// (case-insensitive) to a ChangeType.
func ParseChangeType(s string) (ChangeType, error) {
	if t := ChangeType(s); validTypes[t] {
		return t, nil
	}
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown change type %q: must be one of: %s", s, typeList())
}

// UnmarshalJSON accepts canonical names and aliases. Unknown values are
// kept verbatim so that Validate can report them.
func (t *ChangeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("change type: %w", err)
	}
	if parsed, err := ParseChangeType(s); err == nil {
		*t = parsed
		return nil
	}
	*t = ChangeType(s)
	return nil
}

// typeEmoji is the badge shown next to each type in rendered views.
var typeEmoji = map[ChangeType]string{
	TypeGA:         "🎉",
	TypePreview:    "🧪",
	TypeBugFix:     "🐛",
	TypeFeature:    "✨",
	TypeDeprecated: "🗑️",
	TypeSecurity:   "🛡️",
}

// Emoji returns the badge for t, or a bullet for unknown types.
func (t ChangeType) Emoji() string {
	if e, ok := typeEmoji[t]; ok {
		return e
	}
	return "•"
}

func typeList() string {
	names := make([]string, len(AllTypes))
	for i, t := range AllTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// --- Core data structures ---

// Change is one dated event in a product's history.
type Change struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"` // RFC 3339
	Type        ChangeType `json:"type"`
	Description string     `json:"description"`
	URL         string     `json:"url,omitempty"`
}

// Time parses Date. Unparseable dates yield the zero time.
func (c Change) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, c.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Day returns the calendar-date part of Date (YYYY-MM-DD).
func (c Change) Day() string {
	day, _, _ := strings.Cut(c.Date, "T")
	return day
}

// Product is a trackable service with a change log. Changes keep source
// order, which is not necessarily date order.
type Product struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Icon    string   `json:"icon"`
	URL     string   `json:"url"`
	Changes []Change `json:"changes"`
}

// Clone returns a copy of p whose Changes slice is not shared.
func (p Product) Clone() Product {
	out := p
	out.Changes = make([]Change, len(p.Changes))
	copy(out.Changes, p.Changes)
	return out
}

// Validate checks product-level invariants: a non-empty ID and unique,
// well-typed change IDs.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product %q has an empty id", p.Name)
	}
	seen := make(map[string]bool, len(p.Changes))
	for _, c := range p.Changes {
		if c.ID == "" {
			return fmt.Errorf("product %q: change with empty id", p.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("product %q: duplicate change id %q", p.ID, c.ID)
		}
		seen[c.ID] = true
		if err := ValidateType(c.Type); err != nil {
			return fmt.Errorf("product %q change %q: %w", p.ID, c.ID, err)
		}
	}
	return nil
}
