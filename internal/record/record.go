// Package record defines the error record and the record store document.
//
// A Record decodes only the handful of fields the chunked-dataset commands
// interpret (code, category, severity). Every other field is opaque payload:
// the record keeps its own compacted JSON and re-emits it unchanged, so
// descriptions, fix steps, and cross-references survive split and combine
// byte-for-byte, including key order.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Field names the subsystem knows about.
const (
	FieldCode        = "code"
	FieldName        = "name"
	FieldCategory    = "category"
	FieldSeverity    = "severity"
	FieldDescription = "description"
)

// Placeholders reported for records without a category or severity.
const (
	UnknownCategory = "Unknown"
	UnknownSeverity = "unknown"
)

// DefaultRequiredFields is the field set every record must carry.
var DefaultRequiredFields = []string{FieldCode, FieldName, FieldCategory, FieldSeverity, FieldDescription}

var ErrNotObject = errors.New("record is not a JSON object")

// Record is one error code entry.
type Record struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

// New builds a record from a field map.
func New(fields map[string]any) (Record, error) {
	data, err := marshalNoEscape(fields)
	if err != nil {
		return Record{}, fmt.Errorf("encode record: %w", err)
	}
	var r Record
	if err := r.UnmarshalJSON(data); err != nil {
		return Record{}, err
	}
	return r, nil
}

// UnmarshalJSON keeps a compacted copy of data and indexes its top-level keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrNotObject
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		return err
	}
	r.raw = buf.Bytes()
	r.fields = fields
	return nil
}

// MarshalJSON returns the record exactly as it was decoded.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("{}"), nil
	}
	return r.raw, nil
}

// Raw returns the compacted JSON of the record.
func (r Record) Raw() json.RawMessage {
	return r.raw
}

// Size is the length of the compacted record in bytes.
func (r Record) Size() int {
	return len(r.raw)
}

// Has reports whether the record carries field, regardless of its value.
func (r Record) Has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// String returns a field's value as text. JSON strings are unquoted; any
// other value, null included, is returned as its compact JSON. ok is false
// when the field is absent.
func (r Record) String(field string) (string, bool) {
	v, ok := r.fields[field]
	if !ok {
		return "", false
	}
	if !isJSONString(v) {
		return string(bytes.TrimSpace(v)), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return string(v), true
	}
	return s, true
}

// IsString reports whether field is present and holds a JSON string.
func (r Record) IsString(field string) bool {
	v, ok := r.fields[field]
	return ok && isJSONString(v)
}

func isJSONString(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '"'
}

// Code returns the record's code, or "" if it has none.
func (r Record) Code() string {
	s, _ := r.String(FieldCode)
	return s
}

// Category returns the grouping category, UnknownCategory when absent.
func (r Record) Category() string {
	if s, ok := r.String(FieldCategory); ok {
		return s
	}
	return UnknownCategory
}

// Severity returns the severity, UnknownSeverity when absent.
func (r Record) Severity() string {
	if s, ok := r.String(FieldSeverity); ok {
		return s
	}
	return UnknownSeverity
}

// Missing returns the required fields the record does not carry, in the
// order they were given.
func (r Record) Missing(required []string) []string {
	var missing []string
	for _, f := range required {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Fields decodes the record into a generic map.
func (r Record) Fields() (map[string]any, error) {
	out := make(map[string]any, len(r.fields))
	if r.raw == nil {
		return out, nil
	}
	if err := json.Unmarshal(r.raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Equal reports whether two records have identical content.
func (r Record) Equal(other Record) bool {
	return bytes.Equal(r.raw, other.raw)
}

// Document is the record store: the canonical, unsplit collection.
type Document struct {
	Errors []Record `json:"errors"`
}

// MarshalJSON always emits an "errors" array, never null.
func (d Document) MarshalJSON() ([]byte, error) {
	errs := d.Errors
	if errs == nil {
		errs = []Record{}
	}
	return marshalNoEscape(struct {
		Errors []Record `json:"errors"`
	}{errs})
}

// marshalNoEscape is json.Marshal without HTML escaping.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Duplicates returns every code that appears more than once, in order of
// first appearance.
func Duplicates(records []Record) []string {
	counts := make(map[string]int, len(records))
	var order []string
	for _, r := range records {
		code := r.Code()
		if counts[code] == 0 {
			order = append(order, code)
		}
		counts[code]++
	}
	var dups []string
	for _, code := range order {
		if counts[code] > 1 {
			dups = append(dups, code)
		}
	}
	return dups
}
