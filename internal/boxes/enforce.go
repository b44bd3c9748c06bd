package boxes

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"constbox/internal/extract"
)

type Direction int

const (
	NonImportedReference Direction = iota
	NonExportedReference
)

// Violation is a Reference breaching a box's import or export allow-list.
type Violation struct {
	Direction Direction
	Reference extract.Reference
}

func (v Violation) String() string {
	switch v.Direction {
	case NonExportedReference:
		return fmt.Sprintf("non exported reference %s found in %s on line %d",
			v.Reference.Namespace, v.Reference.File, v.Reference.Line)
	default:
		return fmt.Sprintf("non imported reference %s found in %s on line %d",
			v.Reference.Namespace, v.Reference.File, v.Reference.Line)
	}
}

// Enforce classifies every reference in the corpus against one box. The box
// boundary is the parent directory of boxPath. Violations come back
// unordered and undeduplicated; a reference can appear under both
// directions.
//
// The ignore globs apply only to the export direction. References made from
// inside the box must be declared as imports even when their file is
// ignored; ignoring a file only stops it from pulling the box's private
// namespaces inward.
func Enforce(boxPath string, box Box, corpus *extract.Corpus, ignores []glob.Glob) []Violation {
	var violations []Violation

	boxDir := path.Dir(boxPath)
	if boxPath == "" || boxDir == boxPath {
		// A document with no parent has no boundary to enforce.
		return violations
	}

	var defsInBox []*extract.Definition
	for i := range corpus.Definitions {
		if inDir(boxDir, corpus.Definitions[i].File) {
			defsInBox = append(defsInBox, &corpus.Definitions[i])
		}
	}

	// Export check: a box's internals are private unless exported.
	for _, ref := range corpus.References {
		if matchesAny(ignores, ref.File) {
			continue
		}
		if !definesNamespace(defsInBox, ref.Namespace) {
			continue
		}
		if matchesPattern(box.Exports, ref.Namespace) {
			continue
		}
		violations = append(violations, Violation{
			Direction: NonExportedReference,
			Reference: ref,
		})
	}

	// Import check: code inside the box must declare its outside
	// dependencies, except references resolving to something local.
	for _, ref := range corpus.References {
		if !inDir(boxDir, ref.File) {
			continue
		}
		if matchesPattern(box.Imports, ref.Namespace) || matchesSelf(ref, defsInBox) {
			continue
		}
		violations = append(violations, Violation{
			Direction: NonImportedReference,
			Reference: ref,
		})
	}

	return violations
}

// matchesSelf reports whether a reference resolves to a sibling, nested or
// ancestor scope visible without an explicit import. Given caller segments C
// and referenced token R, the candidates are R itself, C with R appended,
// and C with its last 1, 2 or 3 segments replaced by R. The heuristic caps
// at 3 enclosing-scope levels.
func matchesSelf(ref extract.Reference, defs []*extract.Definition) bool {
	candidates := []string{
		ref.Namespace,
		dropAndAppend(ref.CallerNamespace, 0, ref.Namespace),
		dropAndAppend(ref.CallerNamespace, 1, ref.Namespace),
		dropAndAppend(ref.CallerNamespace, 2, ref.Namespace),
		dropAndAppend(ref.CallerNamespace, 3, ref.Namespace),
	}
	for _, d := range defs {
		for _, c := range candidates {
			if d.Namespace == c {
				return true
			}
		}
	}
	return false
}

// dropAndAppend rebuilds the caller chain with its last drop segments
// replaced by ref. Dropping more segments than exist degenerates to ref
// alone, the same way repeated pops on an empty chain would.
func dropAndAppend(caller string, drop int, ref string) string {
	parts := strings.Split(caller, extract.Separator)
	keep := len(parts) - drop
	if keep < 0 {
		keep = 0
	}
	segs := make([]string, 0, keep+1)
	segs = append(segs, parts[:keep]...)
	segs = append(segs, ref)
	return strings.Join(segs, extract.Separator)
}

func definesNamespace(defs []*extract.Definition, namespace string) bool {
	for _, d := range defs {
		if d.Namespace == namespace {
			return true
		}
	}
	return false
}

func matchesPattern(patterns []*regexp.Regexp, namespace string) bool {
	for _, re := range patterns {
		if re.MatchString(namespace) {
			return true
		}
	}
	return false
}

func matchesAny(globs []glob.Glob, file string) bool {
	for _, g := range globs {
		if g.Match(file) {
			return true
		}
	}
	return false
}

// inDir is a component-wise path-prefix test over slash-separated relative
// paths.
func inDir(dir, file string) bool {
	if dir == "." {
		return true
	}
	return file == dir || strings.HasPrefix(file, dir+"/")
}
