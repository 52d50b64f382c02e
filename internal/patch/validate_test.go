package patch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/entities"
	"github.com/udisondev/portalgo/internal/world"
)

func TestValidate(t *testing.T) {
	f := world.NewFactory()
	entities.Register(f)

	fsys := fstest.MapFS{
		Path("good"): &fstest.MapFile{Data: []byte(`
"patch"
{
	"logic_relay"
	{
		"connections"
		{
			"OnTrigger" "x,Kill,,0,-1"
		}
	}
}`)},
		Path("bare"): &fstest.MapFile{Data: []byte(`
"patch"
{
	"info_target" "ignored"
}`)},
		Path("bad"): &fstest.MapFile{Data: []byte(`
"patch"
{
	"no_such_class"
	{
	}
	"info_target"
	{
		"message" "` + strings.Repeat("y", MaxValueLength) + `"
		"Connections"
		{
		}
	}
}`)},
	}

	v, err := Validate(fsys, "good", f)
	require.NoError(t, err)
	assert.True(t, v.OK(), "%v", v.Problems)
	assert.Equal(t, 1, v.Entities)
	assert.Len(t, v.Fingerprint, 64)

	v, err = Validate(fsys, "bad", f)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Entities)
	require.Len(t, v.Problems, 3)
	assert.Equal(t, "no_such_class", v.Problems[0].Type)
	assert.Contains(t, v.Problems[1].Message, "limit 1023")
	assert.Contains(t, v.Problems[2].Message, "lowercase")

	v, err = Validate(fsys, "bare", f)
	require.NoError(t, err)
	assert.True(t, v.OK(), "%v", v.Problems)
	require.Len(t, v.Notes, 1)
	assert.Equal(t, "info_target", v.Notes[0].Type)

	_, err = Validate(fsys, "missing", f)
	assert.ErrorIs(t, err, ErrNoPatch)
}

func TestMapFromPath(t *testing.T) {
	name, ok := MapFromPath("/game/maps/testchmb_a_00_patch.txt")
	assert.True(t, ok)
	assert.Equal(t, "testchmb_a_00", name)

	_, ok = MapFromPath("maps/testchmb_a_00.bsp")
	assert.False(t, ok)
	_, ok = MapFromPath("maps/_patch.txt")
	assert.False(t, ok)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	var changed atomic.Value
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func(mapName string) { changed.Store(mapName) })
	}()

	path := filepath.Join(dir, "escape_00_patch.txt")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`"patch" {}`), 0o644)
		v, _ := changed.Load().(string)
		return v == "escape_00"
	}, 5*time.Second, 150*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
