package extract

import (
	"io/fs"
	"path/filepath"

	"github.com/gobwas/glob"

	"constbox/internal/errors"
)

// Discovery enumerates source files and box documents under a working tree.
// Exclude patterns are matched against path basenames, exactly like the
// per-directory skip in a watch pass.
type Discovery struct {
	sourceGlob   glob.Glob
	boxGlob      glob.Glob
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func NewDiscovery(sourcePattern, boxPattern string, excludeDirs, excludeFiles []string) (*Discovery, error) {
	d := &Discovery{}
	var err error
	if d.sourceGlob, err = compilePattern(sourcePattern); err != nil {
		return nil, err
	}
	if d.boxGlob, err = compilePattern(boxPattern); err != nil {
		return nil, err
	}
	for _, p := range excludeDirs {
		g, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		d.excludeDirs = append(d.excludeDirs, g)
	}
	for _, p := range excludeFiles {
		g, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		d.excludeFiles = append(d.excludeFiles, g)
	}
	return d, nil
}

func compilePattern(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeValidation, "invalid glob pattern"),
			errors.CtxPattern, pattern)
	}
	return g, nil
}

// SourceFiles walks root and returns every source file path, sorted by the
// walk order (lexical per directory). Returned paths are slash-separated
// and relative to the process working directory when root is.
func (d *Discovery) SourceFiles(root string) ([]string, error) {
	return d.walkMatching(root, d.sourceGlob)
}

// BoxDocuments walks root and returns every box document path.
func (d *Discovery) BoxDocuments(root string) ([]string, error) {
	return d.walkMatching(root, d.boxGlob)
}

func (d *Discovery) walkMatching(root string, match glob.Glob) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if de.IsDir() {
			for _, g := range d.excludeDirs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		for _, g := range d.excludeFiles {
			if g.Match(base) {
				return nil
			}
		}
		if match.Match(base) {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "walking working tree"),
			errors.CtxPath, root)
	}
	return files, nil
}
