package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AttrKind tags which shape an AttrValue holds.
type AttrKind uint8

const (
	AttrNone AttrKind = iota
	AttrList
	AttrGrouped
	AttrText
)

func (k AttrKind) String() string {
	switch k {
	case AttrList:
		return "list"
	case AttrGrouped:
		return "grouped"
	case AttrText:
		return "text"
	default:
		return "none"
	}
}

// AttrValue is an amenity or specification entry. Catalogue data stores these
// as a list of strings, a map of label to description, or a single string.
type AttrValue struct {
	kind    AttrKind
	list    []string
	grouped map[string]string
	text    string
}

// ListValue builds a list-shaped value.
func ListValue(items ...string) AttrValue {
	return AttrValue{kind: AttrList, list: append([]string(nil), items...)}
}

// GroupedValue builds a map-shaped value.
func GroupedValue(m map[string]string) AttrValue {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return AttrValue{kind: AttrGrouped, grouped: cp}
}

// TextValue builds a plain string value.
func TextValue(s string) AttrValue {
	return AttrValue{kind: AttrText, text: s}
}

func (v AttrValue) Kind() AttrKind { return v.kind }

func (v AttrValue) IsZero() bool { return v.kind == AttrNone }

// List returns the items of a list value, nil otherwise.
func (v AttrValue) List() []string {
	if v.kind != AttrList {
		return nil
	}
	return append([]string(nil), v.list...)
}

// Grouped returns the entries of a map value, nil otherwise.
func (v AttrValue) Grouped() map[string]string {
	if v.kind != AttrGrouped {
		return nil
	}
	cp := make(map[string]string, len(v.grouped))
	for k, val := range v.grouped {
		cp[k] = val
	}
	return cp
}

// Text returns the string of a text value, "" otherwise.
func (v AttrValue) Text() string {
	if v.kind != AttrText {
		return ""
	}
	return v.text
}

// Items flattens the value for display. Grouped entries render as
// "label: description" ordered by label.
func (v AttrValue) Items() []string {
	switch v.kind {
	case AttrList:
		return append([]string(nil), v.list...)
	case AttrGrouped:
		keys := make([]string, 0, len(v.grouped))
		for k := range v.grouped {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, k+": "+v.grouped[k])
		}
		return out
	case AttrText:
		if v.text == "" {
			return nil
		}
		return []string{v.text}
	default:
		return nil
	}
}

func (v AttrValue) String() string {
	return strings.Join(v.Items(), ", ")
}

// Contains reports whether any rendered item contains needle, case-insensitively.
func (v AttrValue) Contains(needle string) bool {
	needle = strings.ToLower(needle)
	for _, item := range v.Items() {
		if strings.Contains(strings.ToLower(item), needle) {
			return true
		}
	}
	return false
}

// MarshalJSON writes the underlying shape back out.
func (v AttrValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case AttrList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case AttrGrouped:
		return json.Marshal(v.grouped)
	case AttrText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decides the variant from the JSON shape.
func (v *AttrValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = AttrValue{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var raw []any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("attribute list: %w", err)
		}
		*v = ListValue(stringifyAll(raw)...)
	case '{':
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("attribute map: %w", err)
		}
		*v = GroupedValue(stringifyMap(raw))
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("attribute text: %w", err)
		}
		*v = TextValue(s)
	default:
		// numbers and booleans are kept as text
		*v = TextValue(string(trimmed))
	}
	return nil
}

// MarshalYAML writes the underlying shape back out.
func (v AttrValue) MarshalYAML() (any, error) {
	switch v.kind {
	case AttrList:
		return v.list, nil
	case AttrGrouped:
		return v.grouped, nil
	case AttrText:
		return v.text, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML decides the variant from the node kind.
func (v *AttrValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var raw []any
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("attribute list: %w", err)
		}
		*v = ListValue(stringifyAll(raw)...)
	case yaml.MappingNode:
		var raw map[string]any
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("attribute map: %w", err)
		}
		*v = GroupedValue(stringifyMap(raw))
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = AttrValue{}
			return nil
		}
		*v = TextValue(node.Value)
	default:
		return fmt.Errorf("unsupported attribute node kind %d at line %d", node.Kind, node.Line)
	}
	return nil
}

func stringifyAll(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, stringify(item))
	}
	return out
}

func stringifyMap(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, item := range raw {
		out[k] = stringify(item)
	}
	return out
}

func stringify(item any) string {
	switch t := item.(type) {
	case string:
		return t
	case []any:
		return strings.Join(stringifyAll(t), ", ")
	case map[string]any:
		return GroupedValue(stringifyMap(t)).String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Attributes groups AttrValues by category (e.g. "community", "flooring").
type Attributes map[string]AttrValue

// Keys returns the categories in lexical order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value for a category, or the zero value.
func (a Attributes) Get(key string) AttrValue {
	if a == nil {
		return AttrValue{}
	}
	return a[key]
}

// All flattens every category in key order.
func (a Attributes) All() []string {
	var out []string
	for _, k := range a.Keys() {
		out = append(out, a[k].Items()...)
	}
	return out
}

// Value implements driver.Valuer interface
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (a *Attributes) Scan(value any) error {
	return scanJSON(value, a)
}
