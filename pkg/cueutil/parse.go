// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	cuejson "cuelang.org/go/encoding/json"
)

// ParseResult contains the result of a successful parse.
type ParseResult[T any] struct {
	// Value is the decoded Go value.
	Value *T

	// Unified is the unified CUE value, e.g. for reading field order.
	Unified cue.Value
}

// ParseAndDecode compiles schema, unifies data with the definition at
// schemaPath, validates the result and decodes it into a T.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	filename := options.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue, err := compileData(ctx, data, filename, options.json)
	if err != nil {
		return nil, err
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)

	if options.concrete {
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return nil, FormatError(err, filename)
		}
	} else if err := unified.Validate(); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{
		Value:   &result,
		Unified: unified,
	}, nil
}

func compileData(ctx *cue.Context, data []byte, filename string, asJSON bool) (cue.Value, error) {
	if !asJSON {
		v := ctx.CompileBytes(data, cue.Filename(filename))
		if v.Err() != nil {
			return cue.Value{}, FormatError(v.Err(), filename)
		}
		return v, nil
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	v := ctx.BuildExpr(expr, cue.Filename(filename))
	if v.Err() != nil {
		return cue.Value{}, FormatError(v.Err(), filename)
	}
	return v, nil
}

// FieldOrder returns the labels of the struct at path inside v, in source
// order. A missing path yields nil.
func FieldOrder(v cue.Value, path ...string) ([]string, error) {
	selectors := make([]cue.Selector, 0, len(path))
	for _, p := range path {
		selectors = append(selectors, cue.Str(p))
	}
	target := v.LookupPath(cue.MakePath(selectors...))
	if !target.Exists() {
		return nil, nil
	}

	iter, err := target.Fields()
	if err != nil {
		return nil, err
	}
	var labels []string
	for iter.Next() {
		labels = append(labels, iter.Selector().Unquoted())
	}
	return labels, nil
}

// Encode renders x as formatted CUE source.
func Encode(x any) ([]byte, error) {
	v := cuecontext.New().Encode(x)
	if v.Err() != nil {
		return nil, fmt.Errorf("encode: %w", v.Err())
	}
	out, err := format.Node(v.Syntax(cue.Concrete(true)))
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return append(out, '\n'), nil
}
