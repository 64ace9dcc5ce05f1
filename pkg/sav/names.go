package sav

import (
	"fmt"
	"strings"
)

// shortNames derives the unique 8-byte dictionary names from the long
// variable names, in variable order. Long names live in the extension
// record; every reader still keys the dictionary on these short names.
func shortNames(vars []Variable) ([]string, error) {
	out := make([]string, len(vars))
	used := make(map[string]bool, len(vars))

	for i := range vars {
		base := sanitizeShortName(vars[i].Name)
		name := base
		if len(name) > 8 {
			name = name[:8]
		}
		if used[name] {
			name = ""
			for n := 1; n <= 9999; n++ {
				suffix := fmt.Sprintf("%d", n)
				stem := base
				if len(stem) > 8-len(suffix) {
					stem = stem[:8-len(suffix)]
				}
				candidate := stem + suffix
				if !used[candidate] {
					name = candidate
					break
				}
			}
			if name == "" {
				return nil, fmt.Errorf("cannot derive a unique short name for %q", vars[i].Name)
			}
		}
		used[name] = true
		out[i] = name
	}
	return out, nil
}

// sanitizeShortName uppercases the name and strips characters the dictionary
// name syntax forbids. Names must start with a letter or @; anything else
// gets a V prefix.
func sanitizeShortName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '$', r == '#', r == '@', r == '.':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "V"
	}
	first := s[0]
	if (first >= 'A' && first <= 'Z') || first == '@' {
		return s
	}
	return "V" + s
}
