// Package boxes implements boundary documents and their enforcement.
//
// A box is a directory boundary declared by a box.yml document. Its imports
// list says which external namespaces code inside the box may reference; its
// exports list says which of the box's own namespaces outsiders may
// reference. Everything else crossing the edge is a violation.
package boxes

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"constbox/internal/errors"
)

// DocumentName is the default filename of a box document.
const DocumentName = "box.yml"

type Box struct {
	Imports []*regexp.Regexp
	Exports []*regexp.Regexp
}

// document is the on-disk form: two named lists of pattern strings.
type document struct {
	Imports []string `yaml:"imports"`
	Exports []string `yaml:"exports"`
}

func Empty() Box {
	return Box{}
}

// Parse reads a box document leniently: malformed YAML yields an empty box
// rather than an error. A pattern that fails to compile is fatal, though;
// silently dropping a user-written allow-list entry would loosen the
// boundary.
func Parse(data []byte) (Box, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Empty(), nil
	}
	imports, err := compileAll(doc.Imports)
	if err != nil {
		return Empty(), err
	}
	exports, err := compileAll(doc.Exports)
	if err != nil {
		return Empty(), err
	}
	return Box{Imports: imports, Exports: exports}, nil
}

// Load reads and parses the document at path. An absent document is an
// empty box; any other read failure is fatal.
func Load(path string) (Box, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return Empty(), errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "reading box document"),
			errors.CtxBox, path)
	}
	return Parse(data)
}

// Serialize re-emits the literal pattern strings. Parsing the output yields
// a box with identical matching behavior.
func (b Box) Serialize() ([]byte, error) {
	doc := document{
		Imports: patternStrings(b.Imports),
		Exports: patternStrings(b.Exports),
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "serializing box document")
	}
	return out, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidation, "invalid box pattern"),
				errors.CtxPattern, p)
		}
		out = append(out, re)
	}
	return out, nil
}

func patternStrings(res []*regexp.Regexp) []string {
	out := make([]string, 0, len(res))
	for _, re := range res {
		out = append(out, re.String())
	}
	return out
}
