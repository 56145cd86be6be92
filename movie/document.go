package movie

import (
	"bytes"
	"encoding/json"
	"math"
)

// FieldNames lists the projected fields of a movie in response order.
var FieldNames = []string{"title", "plot", "genres", "runtime", "rated", "year"}

// Document is a movie as read back from a store. Fields holds the stored
// value of each projected field with its stored type; a field the record
// lacks is absent and a null field maps to nil.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// NewDocument projects a typed record. All six fields are present, empty
// strings and nil numbers become null.
func NewDocument(m Movie) Document {
	fields := map[string]interface{}{
		"title":   nullIfEmpty(m.Title),
		"plot":    nullIfEmpty(m.Plot),
		"genres":  nil,
		"runtime": nil,
		"rated":   nullIfEmpty(m.Rated),
		"year":    nil,
	}
	if m.Genres != nil {
		fields["genres"] = m.Genres
	}
	if m.Runtime != nil {
		fields["runtime"] = *m.Runtime
	}
	if m.Year != nil {
		fields["year"] = *m.Year
	}
	return Document{ID: m.ID, Fields: fields}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// String returns the named field when it is stored as a string.
func (d Document) String(name string) (string, bool) {
	s, ok := d.Fields[name].(string)
	return s, ok
}

// Int returns the named field when it is stored as a whole number.
func (d Document) Int(name string) (int, bool) {
	switch v := d.Fields[name].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), true
		}
	}
	return 0, false
}

// MarshalJSON writes _id first followed by the present fields in
// FieldNames order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"_id":`)
	id, err := json.Marshal(d.ID)
	if err != nil {
		return nil, err
	}
	buf.Write(id)

	for _, name := range FieldNames {
		v, ok := d.Fields[name]
		if !ok {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"` + name + `":`)
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
