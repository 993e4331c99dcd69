// Package catalog lists registered intrinsics and exports them as text,
// YAML, protobuf or a SQLite table for tooling.
package catalog

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/duby/internal/types"
)

// Entry describes one intrinsic by type names.
type Entry struct {
	Owner   string   `yaml:"owner"`
	Name    string   `yaml:"name"`
	Params  []string `yaml:"params,omitempty"`
	Returns string   `yaml:"returns"`
}

func (e Entry) String() string {
	return e.Owner + "#" + e.Name + "(" + strings.Join(e.Params, ", ") + "):" + e.Returns
}

// Collect flattens the registries of ts, in order. Building a registry is
// a side effect of collecting it.
func Collect(ts ...types.Type) []Entry {
	var out []Entry
	for _, t := range ts {
		for _, in := range t.Intrinsics().ListAll() {
			out = append(out, entryOf(in))
		}
	}
	return out
}

func entryOf(in *types.Intrinsic) Entry {
	e := Entry{
		Owner:   in.Owner.Name(),
		Name:    in.Name,
		Returns: in.Return.Name(),
	}
	for _, p := range in.Params {
		e.Params = append(e.Params, p.Name())
	}
	return e
}

// WriteText writes one entry per line.
func WriteText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e); err != nil {
			return err
		}
	}
	return nil
}

type document struct {
	Intrinsics []Entry `yaml:"intrinsics"`
}

// WriteYAML writes the entries as a YAML document with an intrinsics list.
func WriteYAML(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Intrinsics: entries}); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return enc.Close()
}

// ReadYAML parses a document written by WriteYAML.
func ReadYAML(r io.Reader) ([]Entry, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return doc.Intrinsics, nil
}
