package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Field is one key/value tuple of a document.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Document is the keyed record shape the store reads and writes. Fields carry
// every projected attribute; ID mirrors the "id" field when present.
type Document struct {
	ID     string  `json:"id"`
	Fields []Field `json:"fields"`
}

// Get returns the value of the named field, or "" when absent.
func (d Document) Get(key string) string {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Map flattens the field tuples into a lookup map. Later duplicates win.
func (d Document) Map() map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		out[f.Key] = f.Value
	}
	return out
}

// FromMap builds a document with deterministic field ordering.
func FromMap(fields map[string]string) Document {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := Document{ID: fields["id"]}
	for _, k := range keys {
		doc.Fields = append(doc.Fields, Field{Key: k, Value: fields[k]})
	}
	return doc
}

// Store is the persistence boundary: a generic keyed-record read/write/delete
// service addressed by entity acronym and field-projection schema.
type Store interface {
	Query(ctx context.Context, acronym string, fields []string, schema, where string) ([]Document, error)
	UpdateDocument(ctx context.Context, acronym, schema string, doc Document) error
	DeleteDocument(ctx context.Context, acronym, documentID string) error
}

// Where renders a single-field equality filter.
func Where(field, value string) string {
	return fmt.Sprintf("%s=%s", field, value)
}

// ParseWhere splits an equality filter back into field and value. An empty
// expression matches everything.
func ParseWhere(expr string) (field, value string, ok bool) {
	if strings.TrimSpace(expr) == "" {
		return "", "", false
	}
	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
