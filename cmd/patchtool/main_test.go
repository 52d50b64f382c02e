package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/patch"
)

func writePatch(t *testing.T, dir, mapName, body string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(patch.Path(mapName)))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writePatch(t, dir, "good", `"patch" { "info_target" { "targetname" "a" } }`)
	writePatch(t, dir, "bad", `"patch" { "no_such_class" { } }`)

	parser, err := kong.New(&CLI, options()...)
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"--dir", dir, "check", "good", "missing"})
	require.NoError(t, err)
	assert.Equal(t, "check <map>", ctx.Command())
	assert.Equal(t, []string{"good", "missing"}, CLI.Check.Maps)
	assert.NoError(t, check(CLI.Check.Maps))

	_, err = parser.Parse([]string{"--dir", dir, "check", "bad"})
	require.NoError(t, err)
	assert.Error(t, check(CLI.Check.Maps))
}

func TestFingerprintCommand(t *testing.T) {
	dir := t.TempDir()
	writePatch(t, dir, "good", `"patch" { }`)

	parser, err := kong.New(&CLI, options()...)
	require.NoError(t, err)
	ctx, err := parser.Parse([]string{"--dir", dir, "fingerprint", "good"})
	require.NoError(t, err)
	assert.Equal(t, "fingerprint <map>", ctx.Command())

	assert.NoError(t, fingerprint(CLI.Fingerprint.Map))
	assert.Error(t, fingerprint("missing"))
}
