package extract

import (
	_ "embed"
	"os"
	"strings"

	"constbox/internal/errors"
)

// The deny set is configuration data rather than logic so that another
// source ecosystem can supply its own standard-library exclusion list.
//
//go:embed builtins_ruby.txt
var defaultBuiltins string

// DenySet holds namespace tokens that never produce References, typically
// the host language's built-in constants.
type DenySet map[string]struct{}

// DefaultDenySet returns the embedded Ruby core/stdlib constant list.
func DefaultDenySet() DenySet {
	return parseDenySet(defaultBuiltins)
}

// LoadDenySet reads a newline-separated deny list from path. Blank lines and
// lines starting with '#' are skipped.
func LoadDenySet(path string) (DenySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "reading builtins file"),
			errors.CtxPath, path)
	}
	return parseDenySet(string(data)), nil
}

func parseDenySet(data string) DenySet {
	set := make(DenySet)
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = struct{}{}
	}
	return set
}

func (d DenySet) Contains(token string) bool {
	_, ok := d[token]
	return ok
}
