package schema

// The JSON wire format keeps the original object-of-objects shape
// (tables and columns keyed by name) while the in-memory model is
// ordered slices. Conversion happens here and nowhere else; internal
// logic never touches raw JSON.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type schemaJSON struct {
	Database      Database             `json:"database"`
	Tables        json.RawMessage      `json:"tables"`
	Relationships []Relationship       `json:"relationships,omitempty"`
	SeedData      map[string][]SeedRow `json:"seed_data,omitempty"`
}

type tableJSON struct {
	Description string          `json:"description,omitempty"`
	Columns     json.RawMessage `json:"columns"`
	Indexes     []Index         `json:"indexes,omitempty"`
}

type columnJSON struct {
	Type          string          `json:"type"`
	PrimaryKey    bool            `json:"primary_key,omitempty"`
	AutoIncrement bool            `json:"auto_increment,omitempty"`
	Nullable      *bool           `json:"nullable,omitempty"`
	Unique        bool            `json:"unique,omitempty"`
	Default       json.RawMessage `json:"default,omitempty"`
	Values        []string        `json:"values,omitempty"`
	Check         string          `json:"check,omitempty"`
}

// UnmarshalJSON decodes the wire form, preserving column declaration
// order inside each table. Table iteration order in the JSON object is
// preserved as well.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Database = raw.Database
	s.Relationships = raw.Relationships
	s.SeedData = raw.SeedData
	s.Tables = nil

	if len(raw.Tables) == 0 {
		return nil
	}
	return decodeOrderedObject(raw.Tables, func(name string, body json.RawMessage) error {
		t := Table{Name: name}
		if err := t.unmarshalBody(body); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		s.Tables = append(s.Tables, t)
		return nil
	})
}

// MarshalJSON emits the wire form with tables in model order and seed
// data keyed alphabetically, so repeated serialization is byte-stable.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"database":`)
	if err := appendJSON(&buf, s.Database); err != nil {
		return nil, err
	}

	buf.WriteString(`,"tables":{`)
	for i := range s.Tables {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendJSON(&buf, s.Tables[i].Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		body, err := s.Tables[i].marshalBody()
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')

	if len(s.Relationships) > 0 {
		buf.WriteString(`,"relationships":`)
		if err := appendJSON(&buf, s.Relationships); err != nil {
			return nil, err
		}
	}

	if len(s.SeedData) > 0 {
		tables := make([]string, 0, len(s.SeedData))
		for name := range s.SeedData {
			tables = append(tables, name)
		}
		sort.Strings(tables)
		buf.WriteString(`,"seed_data":{`)
		for i, name := range tables {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(&buf, name); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := appendJSON(&buf, s.SeedData[name]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *Table) unmarshalBody(data []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Description = raw.Description
	t.Indexes = raw.Indexes
	t.Columns = nil

	if len(raw.Columns) == 0 {
		return nil
	}
	return decodeOrderedObject(raw.Columns, func(name string, body json.RawMessage) error {
		var cj columnJSON
		if err := json.Unmarshal(body, &cj); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		col := Column{
			Name:          name,
			Type:          cj.Type,
			PrimaryKey:    cj.PrimaryKey,
			AutoIncrement: cj.AutoIncrement,
			Unique:        cj.Unique,
			Values:        cj.Values,
			Check:         cj.Check,
		}
		// Nullable defaults to true unless the column is a primary key.
		if cj.Nullable != nil {
			col.Nullable = *cj.Nullable
		} else {
			col.Nullable = !cj.PrimaryKey
		}
		if cj.Default != nil {
			col.HasDefault = true
			if err := json.Unmarshal(cj.Default, &col.Default); err != nil {
				return fmt.Errorf("column %q: bad default: %w", name, err)
			}
		}
		t.Columns = append(t.Columns, col)
		return nil
	})
}

func (t *Table) marshalBody() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	if t.Description != "" {
		buf.WriteString(`"description":`)
		if err := appendJSON(&buf, t.Description); err != nil {
			return nil, err
		}
		first = false
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteString(`"columns":{`)
	for i := range t.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		c := &t.Columns[i]
		if err := appendJSON(&buf, c.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		body, err := c.marshalBody()
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	if len(t.Indexes) > 0 {
		buf.WriteString(`,"indexes":`)
		if err := appendJSON(&buf, t.Indexes); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Column) marshalBody() ([]byte, error) {
	cj := columnJSON{
		Type:          c.Type,
		PrimaryKey:    c.PrimaryKey,
		AutoIncrement: c.AutoIncrement,
		Unique:        c.Unique,
		Values:        c.Values,
		Check:         c.Check,
	}
	// Only emit nullable when it differs from the default rule.
	if c.Nullable == c.PrimaryKey {
		nullable := c.Nullable
		cj.Nullable = &nullable
	}
	if c.HasDefault {
		raw, err := json.Marshal(c.Default)
		if err != nil {
			return nil, err
		}
		cj.Default = raw
	}
	return json.Marshal(cj)
}

// decodeOrderedObject walks a JSON object token by token so callers see
// members in their declared order, which encoding/json's map decoding
// would destroy.
func decodeOrderedObject(data []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing brace
	return err
}

func appendJSON(buf *bytes.Buffer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}
