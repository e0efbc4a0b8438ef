package models

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// StringSet is an ordered set of strings stored as a JSON array column.
type StringSet []string

// NewStringSet trims, drops empties and removes duplicates, keeping first
// occurrence order.
func NewStringSet(values ...string) StringSet {
	set := make(StringSet, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		set = append(set, v)
	}
	return set
}

func (s StringSet) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// ContainsAll reports whether s is a superset of values.
func (s StringSet) ContainsAll(values ...string) bool {
	for _, v := range values {
		if !s.Contains(v) {
			return false
		}
	}
	return true
}

// Scan implements sql.Scanner.
func (s *StringSet) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = StringSet{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSet", src)
	}

	if len(data) == 0 {
		*s = StringSet{}
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode string set: %w", err)
	}
	*s = NewStringSet(values...)
	return nil
}

// Value implements driver.Valuer.
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// MarshalJSON keeps nil sets as [] in responses.
func (s StringSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
