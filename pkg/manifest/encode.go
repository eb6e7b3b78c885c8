// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

type (
	// object is a JSON object that keeps its member order.
	object []member

	member struct {
		key   string
		value any
	}
)

// MarshalJSON implements json.Marshaler.
func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders the manifest in the manifest.json format. Options and
// loaders keep their declaration order; parsing the output yields an
// equivalent manifest.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	doc := object{
		{"name", m.Name},
		{"version", m.Version.String()},
	}
	if m.Main != "" && m.Main != DefaultMain {
		doc = append(doc, member{"main", m.Main})
	}
	if m.ProjectDir != "" && m.ProjectDir != "." {
		doc = append(doc, member{"project_dir", m.ProjectDir})
	}
	if m.Author != "" {
		doc = append(doc, member{"author", m.Author})
	}
	if m.URL != "" {
		doc = append(doc, member{"url", m.URL})
	}

	deps := object{}
	for _, name := range m.DependencyNames() {
		deps = append(deps, member{name, m.Dependencies[name].String()})
	}
	doc = append(doc, member{"dependencies", deps})

	opts := object{}
	for _, d := range m.Options {
		params := d.Params()
		if len(params) == 0 {
			opts = append(opts, member{d.Name(), d.Type()})
			continue
		}
		decl := object{{"type", d.Type()}}
		opts = append(opts, member{d.Name(), append(decl, sortedMembers(params)...)})
	}
	doc = append(doc, member{"options", opts})

	loaders := make([]object, 0, len(m.Loaders))
	for _, l := range m.Loaders {
		decl := object{{"name", l.Name()}, {"type", l.Type()}}
		loaders = append(loaders, append(decl, sortedMembers(l.Params())...))
	}
	doc = append(doc, member{"loaders", loaders})

	return marshal(doc)
}

// Encode renders m as indented manifest.json content.
func Encode(m *Manifest) ([]byte, error) {
	return encodeIndented(m)
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// encodeIndented renders v as two-space indented JSON with a trailing newline.
func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedMembers(params map[string]any) []member {
	out := make([]member, 0, len(params))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		out = append(out, member{k, params[k]})
	}
	return out
}
