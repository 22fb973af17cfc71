// Package extract evaluates configured JSONPath expressions against
// decoded status frames.
package extract

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"k1bridge/internal/config"
	"k1bridge/internal/transform"
)

type field struct {
	uid  string
	expr jp.Expr
	mode transform.Mode
}

// Extractor holds the path expressions for all mappings, compiled once
// at startup. It is safe for use from a single goroutine; the bridge
// never evaluates frames concurrently.
type Extractor struct {
	fields []field
}

// New compiles every mapping's path expression. An expression that does
// not parse is a configuration error and fatal at startup.
func New(mappings []config.Mapping) (*Extractor, error) {
	fields := make([]field, 0, len(mappings))
	for _, m := range mappings {
		expr, err := jp.ParseString(m.Path)
		if err != nil {
			return nil, fmt.Errorf("mapping %q: invalid jsonpath %q: %w", m.UniqueID, m.Path, err)
		}
		fields = append(fields, field{uid: m.UniqueID, expr: expr, mode: m.Transform})
	}
	return &Extractor{fields: fields}, nil
}

// Values evaluates every mapping against the frame. The result always
// carries one entry per mapping; a path with no match yields nil so the
// state topic still gets cleared downstream. When an expression matches
// more than once the first match in the evaluator's traversal order
// wins.
func (e *Extractor) Values(frame any) map[string]any {
	out := make(map[string]any, len(e.fields))
	for _, f := range e.fields {
		matches := f.expr.Get(frame)
		var v any
		if len(matches) > 0 {
			v = matches[0]
		}
		out[f.uid] = transform.Apply(v, f.mode)
	}
	return out
}
