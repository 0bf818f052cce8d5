// Package params loads bootstrap parameter documents.
//
// A document is CUE or YAML. Either way it is unified with the embedded
// #Bootstrap schema, required to be concrete, decoded, and then checked for
// the cross references CUE cannot express (unique names, server units).
package params

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSrc string

// DefaultTokenPurpose applies to people without token_purpose.
const DefaultTokenPurpose = "standard"

// Bootstrap is a validated parameter document.
type Bootstrap struct {
	Organization Organization `json:"organization"`
	NotBefore    time.Time    `json:"not_before"`
	Units        []Unit       `json:"units"`
	Servers      []Server     `json:"servers,omitempty"`
}

type Organization struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

type Unit struct {
	Name   string   `json:"name"`
	People []Person `json:"people"`
}

type Person struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	TokenPurpose string `json:"token_purpose,omitempty"`
}

// Server gets a TLS leaf issued by its unit's intermediate.
type Server struct {
	Name string   `json:"name"`
	Unit string   `json:"unit"`
	DNS  []string `json:"dns"`
}

// People returns every person with their unit, in document order.
func (b *Bootstrap) People() []UnitPerson {
	var out []UnitPerson
	for _, u := range b.Units {
		for _, p := range u.People {
			out = append(out, UnitPerson{Unit: u.Name, Person: p})
		}
	}
	return out
}

// UnitPerson pairs a person with the unit listing them.
type UnitPerson struct {
	Unit string
	Person
}

// LoadError is a document that failed to load or validate.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a .cue, .yaml or .yml file.
func Load(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data; the extension of filename selects the format.
func Parse(filename string, data []byte) (*Bootstrap, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var doc cue.Value
	switch ext := filepath.Ext(filename); ext {
	case ".cue":
		doc = ctx.CompileBytes(data, cue.Filename(filename))
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Field: "yaml", Message: err.Error()}
		}
		doc = ctx.Encode(raw)
	default:
		return nil, &LoadError{Field: "file", Message: fmt.Sprintf("unsupported extension %q", ext)}
	}
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Bootstrap")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	// Round-trip through JSON so time and defaults decode with the Go types.
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var b Bootstrap
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &LoadError{Field: "decode", Message: err.Error()}
	}
	for i := range b.Units {
		for j := range b.Units[i].People {
			if b.Units[i].People[j].TokenPurpose == "" {
				b.Units[i].People[j].TokenPurpose = DefaultTokenPurpose
			}
		}
	}
	b.NotBefore = b.NotBefore.UTC()

	if errs := Validate(&b); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &b, nil
}

// Validate checks cross references. It reports every problem found.
func Validate(b *Bootstrap) []error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &LoadError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	units := make(map[string]bool, len(b.Units))
	people := make(map[string]string)
	for _, u := range b.Units {
		if units[u.Name] {
			add("units", "duplicate unit %q", u.Name)
		}
		units[u.Name] = true
		for _, p := range u.People {
			if prev, ok := people[p.ID]; ok {
				add("people", "person %q listed in %q and %q", p.ID, prev, u.Name)
				continue
			}
			people[p.ID] = u.Name
		}
	}

	servers := make(map[string]bool, len(b.Servers))
	for _, s := range b.Servers {
		if servers[s.Name] {
			add("servers", "duplicate server %q", s.Name)
		}
		servers[s.Name] = true
		if !units[s.Unit] {
			add("servers", "server %q names unknown unit %q", s.Name, s.Unit)
		}
	}
	return errs
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	le := &LoadError{Field: pathOf(first), Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

func pathOf(err cueerrors.Error) string {
	if p := err.Path(); len(p) > 0 {
		return strings.Join(p, ".")
	}
	return "cue"
}
