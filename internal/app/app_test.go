package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constbox/internal/config"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func boxedTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, map[string]string{
		"lib/alpha/alpha.rb": `module Alpha
  class Engine
    def run
      Beta::Client.new
    end
  end
end
`,
		"lib/beta/beta.rb": `module Beta
  class Client
  end
end
`,
		"lib/alpha/box.yml": "",
		"lib/beta/box.yml":  "",
	})
}

func newTestApp(t *testing.T, root string) *App {
	t.Helper()
	a, err := New(config.Default(), root)
	require.NoError(t, err)
	return a
}

func TestVerifyReportsCrossBoxViolations(t *testing.T) {
	root := boxedTree(t)
	a := newTestApp(t, root)

	var out bytes.Buffer
	hasViolations, err := a.Verify(&out, nil)
	require.NoError(t, err)
	assert.True(t, hasViolations)

	// Alpha references Beta::Client without importing it; Beta never
	// exported it.
	assert.Contains(t, out.String(), "non imported reference Beta::Client")
	assert.Contains(t, out.String(), "non exported reference Beta::Client")
	assert.Contains(t, out.String(), "verifying box")
}

func TestInitThenVerifyIsClean(t *testing.T) {
	root := boxedTree(t)
	a := newTestApp(t, root)

	require.NoError(t, a.Init(filepath.Join(root, "lib/alpha"), nil))
	require.NoError(t, a.Init(filepath.Join(root, "lib/beta"), nil))

	alphaDoc, err := os.ReadFile(filepath.Join(root, "lib/alpha/box.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(alphaDoc), "Beta::Client")

	var out bytes.Buffer
	hasViolations, err := a.Verify(&out, nil)
	require.NoError(t, err)
	assert.False(t, hasViolations, "output:\n%s", out.String())
}

func TestInspectPrintsViolationsAndDerivedBox(t *testing.T) {
	root := boxedTree(t)
	a := newTestApp(t, root)

	var out bytes.Buffer
	require.NoError(t, a.Inspect(&out, filepath.Join(root, "lib/alpha"), nil))
	assert.Contains(t, out.String(), "non imported reference Beta::Client")
	assert.Contains(t, out.String(), "imports:")

	// Read-only: the box document is untouched.
	doc, err := os.ReadFile(filepath.Join(root, "lib/alpha/box.yml"))
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestVerifyIgnoreGlobSuppressesExportDirection(t *testing.T) {
	root := boxedTree(t)
	a := newTestApp(t, root)

	var out bytes.Buffer
	hasViolations, err := a.Verify(&out, []string{"*alpha*"})
	require.NoError(t, err)

	// The export violation against beta's box goes away; alpha still has
	// to declare its import.
	assert.True(t, hasViolations)
	assert.NotContains(t, out.String(), "non exported reference")
	assert.Contains(t, out.String(), "non imported reference Beta::Client")
}

func TestVerifyBadIgnorePatternIsFatal(t *testing.T) {
	root := boxedTree(t)
	a := newTestApp(t, root)

	var out bytes.Buffer
	_, err := a.Verify(&out, []string{"["})
	require.Error(t, err)
	assert.Empty(t, out.String(), "no enforcement ran")
}

func TestNormalizeBoxPath(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	assert.Equal(t, "lib/mod/box.yml", a.normalizeBoxPath("lib/mod"))
	assert.Equal(t, "lib/mod/box.yml", a.normalizeBoxPath("lib/mod/box.yml"))
	assert.Equal(t, "box.yml", a.normalizeBoxPath("."))
}
