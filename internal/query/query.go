// Package query selects parts of a record store with RFC 9535 JSONPath
// expressions, e.g. $.errors[?@.category=="Account"].code.
package query

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/theory/jsonpath"

	"mxguide/internal/record"
)

var ErrInvalidPath = errors.New("invalid JSONPath expression")

// Query is a compiled JSONPath expression.
type Query struct {
	expr string
	path *jsonpath.Path
}

// Compile parses expr.
func Compile(expr string) (*Query, error) {
	p, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return &Query{expr: expr, path: p}, nil
}

// String returns the expression the query was compiled from.
func (q *Query) String() string {
	return q.expr
}

// Select evaluates the query against doc and returns the selected nodes in
// document order.
func (q *Query) Select(doc *record.Document) ([]any, error) {
	generic, err := toGeneric(doc)
	if err != nil {
		return nil, err
	}
	return q.path.Select(generic), nil
}

// SelectJSON evaluates the query and returns each node as compact JSON.
func (q *Query) SelectJSON(doc *record.Document) ([]json.RawMessage, error) {
	nodes, err := q.Select(doc)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(nodes))
	for _, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("encode node: %w", err)
		}
		out = append(out, data)
	}
	return out, nil
}

// toGeneric converts the document into the map/slice form JSONPath evaluates.
func toGeneric(doc *record.Document) (any, error) {
	errs := make([]any, 0, len(doc.Errors))
	for i, r := range doc.Errors {
		fields, err := r.Fields()
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		errs = append(errs, fields)
	}
	return map[string]any{"errors": errs}, nil
}
