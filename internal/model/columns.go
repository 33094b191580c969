package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONArray represents a JSON array column (features, tags)
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value any) error {
	return scanJSON(value, j)
}

// Narratives maps a topic (see the Topic constants) to hand-written copy.
type Narratives map[string]string

// Value implements driver.Valuer interface
func (n Narratives) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (n *Narratives) Scan(value any) error {
	return scanJSON(value, n)
}

// Value implements driver.Valuer interface
func (p *PriceRange) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (p *PriceRange) Scan(value any) error {
	return scanJSON(value, p)
}

// Value implements driver.Valuer interface
func (t *TransportConnections) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (t *TransportConnections) Scan(value any) error {
	return scanJSON(value, t)
}

// Value implements driver.Valuer interface
func (d *AmenityDigest) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (d *AmenityDigest) Scan(value any) error {
	return scanJSON(value, d)
}

// scanJSON decodes a JSON/JSONB column. Postgres hands back []byte,
// SQLite TEXT columns come back as string.
func scanJSON(value any, target any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, target)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), target)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
