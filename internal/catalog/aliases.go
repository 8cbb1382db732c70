package catalog

import (
	"sort"
	"strings"
)

// DefaultAliases returns the built-in short → canonical category table.
func DefaultAliases() map[string]string {
	return map[string]string{
		"image": "imagegen",
		"video": "videogen",
		"audio": "audiogen",
	}
}

// Aliases translates between the short category used in tool names and the
// canonical category the remote API expects. It is immutable once built.
type Aliases struct {
	toCanonical map[string]string
	toShort     map[string]string
}

// NewAliases builds the table from the defaults plus extra entries (extra wins).
// An entry whose short form is itself a canonical category of another entry is
// dropped so that expansion stays idempotent.
func NewAliases(extra map[string]string) *Aliases {
	merged := DefaultAliases()
	for short, canonical := range extra {
		short = strings.TrimSpace(short)
		canonical = strings.TrimSpace(canonical)
		if short == "" || canonical == "" {
			continue
		}
		merged[short] = canonical
	}

	canonicals := make(map[string]bool, len(merged))
	for _, canonical := range merged {
		canonicals[canonical] = true
	}

	shorts := make([]string, 0, len(merged))
	for short := range merged {
		shorts = append(shorts, short)
	}
	sort.Strings(shorts)

	a := &Aliases{
		toCanonical: make(map[string]string, len(merged)),
		toShort:     make(map[string]string, len(merged)),
	}
	for _, short := range shorts {
		canonical := merged[short]
		if canonicals[short] && short != canonical {
			continue
		}
		a.toCanonical[short] = canonical
		// first short form in sorted order wins the reverse mapping
		if _, ok := a.toShort[canonical]; !ok {
			a.toShort[canonical] = short
		}
	}
	return a
}

// Canonical expands a short category. Unknown and already-canonical values are
// returned unchanged.
func (a *Aliases) Canonical(category string) string {
	if a == nil {
		return category
	}
	if canonical, ok := a.toCanonical[category]; ok {
		return canonical
	}
	return category
}

// Short abbreviates a canonical category for use in a tool name.
func (a *Aliases) Short(category string) string {
	if a == nil {
		return category
	}
	if short, ok := a.toShort[category]; ok {
		return short
	}
	return category
}

// Known reports whether category appears in the table, in either form.
func (a *Aliases) Known(category string) bool {
	if a == nil {
		return false
	}
	if _, ok := a.toCanonical[category]; ok {
		return true
	}
	_, ok := a.toShort[category]
	return ok
}
