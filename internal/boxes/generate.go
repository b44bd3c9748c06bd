package boxes

import (
	"regexp"
	"sort"

	"github.com/gobwas/glob"

	"constbox/internal/errors"
	"constbox/internal/extract"
)

// Generate derives the minimal box that would eliminate every violation the
// corpus currently produces at boxPath: it enforces an empty box, collects
// the offending namespaces per direction, and compiles each as a pattern.
// The result is a point-in-time snapshot, not a live constraint.
func Generate(boxPath string, corpus *extract.Corpus, ignores []glob.Glob) (Box, error) {
	return Derive(Enforce(boxPath, Empty(), corpus, ignores))
}

// Derive builds the minimal box covering a set of violations: offending
// namespaces are deduplicated per direction, sorted, and compiled as
// patterns.
func Derive(violations []Violation) (Box, error) {
	imports := make(map[string]struct{})
	exports := make(map[string]struct{})
	for _, v := range violations {
		switch v.Direction {
		case NonImportedReference:
			imports[v.Reference.Namespace] = struct{}{}
		case NonExportedReference:
			exports[v.Reference.Namespace] = struct{}{}
		}
	}

	importPatterns, err := compileSorted(imports)
	if err != nil {
		return Empty(), err
	}
	exportPatterns, err := compileSorted(exports)
	if err != nil {
		return Empty(), err
	}
	return Box{Imports: importPatterns, Exports: exportPatterns}, nil
}

func compileSorted(namespaces map[string]struct{}) ([]*regexp.Regexp, error) {
	names := make([]string, 0, len(namespaces))
	for ns := range namespaces {
		names = append(names, ns)
	}
	sort.Strings(names)

	out := make([]*regexp.Regexp, 0, len(names))
	for _, ns := range names {
		// Namespace tokens are constant segments joined by "::"; they
		// contain no regexp metacharacters, so the literal compiles to
		// a pattern matching itself.
		re, err := regexp.Compile(ns)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "compiling derived pattern"),
				errors.CtxNamespace, ns)
		}
		out = append(out, re)
	}
	return out, nil
}
