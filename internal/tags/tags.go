// Package tags normalizes dietary tags into one canonical representation:
// an ordered set of lower-case, hyphenated tokens.
package tags

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// ErrUnparsable is returned when raw tag data is neither a JSON list nor a
// delimited string.
var ErrUnparsable = errors.New("unparsable dietary tags")

// Set is a sorted, duplicate-free list of canonical tags. The zero value is
// an empty set. Sets are treated as immutable once built.
type Set []string

// Canonical folds case and joins words with hyphens, so "Gluten Free",
// "gluten_free" and "GLUTEN-FREE" all become "gluten-free".
func Canonical(tag string) string {
	folded := cases.Fold().String(tag)
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '_' || r == '-'
	})
	return strings.Join(words, "-")
}

// New builds a Set from arbitrary tag spellings. Empty tags are dropped.
func New(raw ...string) Set {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make(Set, 0, len(raw))
	for _, r := range raw {
		c := Canonical(r)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// ParseList parses the comma-joined form used in query strings.
func ParseList(s string) Set {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return New(strings.Split(s, ",")...)
}

// Parse normalizes a product's raw tag payload. Accepted encodings are a
// JSON array of strings, a JSON string holding such an array, and a JSON
// string holding a comma, semicolon or pipe delimited list. null and empty
// payloads yield an empty set.
func Parse(raw json.RawMessage) (Set, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		return New(list...), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		return parseString(s)
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrUnparsable, raw[0])
	}
}

func parseString(s string) (Set, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		return New(list...), nil
	}
	return New(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})...), nil
}

// Has reports whether tag (in any spelling) is in the set.
func (s Set) Has(tag string) bool {
	c := Canonical(tag)
	i := sort.SearchStrings(s, c)
	return i < len(s) && s[i] == c
}

// ContainsAll reports whether every tag in required is present in s.
// An empty required set is always satisfied.
func (s Set) ContainsAll(required Set) bool {
	for _, t := range required {
		i := sort.SearchStrings(s, t)
		if i >= len(s) || s[i] != t {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold the same tags.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String returns the comma-joined form used in query strings.
func (s Set) String() string {
	return strings.Join(s, ",")
}
