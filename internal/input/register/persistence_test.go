package register

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modalkit/internal/input/key"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "registers.yaml")

	src := NewShared()
	src.Set('a', Text("hello"))
	src.Set('b', Lines("one\ntwo"))
	src.Set('q', FromKeys(key.MustDecode("3l<C-a><Esc>")))
	src.Set('1', Payload{Text: "ab\ncd", Wise: Blockwise})
	require.NoError(t, Save(src, path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	dst := NewShared()
	dst.Set('z', Text("stale"))
	require.NoError(t, Load(dst, path))

	assert.Equal(t, src.Snapshot(), dst.Snapshot())
	_, ok := dst.Get('z')
	assert.False(t, ok, "Load replaces existing registers")
}

func TestLoadMissingFile(t *testing.T) {
	shared := NewShared()
	shared.Set('a', Text("kept"))

	require.NoError(t, Load(shared, filepath.Join(t.TempDir(), "missing.yaml")))
	p, ok := shared.Get('a')
	require.True(t, ok)
	assert.Equal(t, "kept", p.Text)
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 99\nregisters: {}\n"), 0o600))

	assert.Error(t, Load(NewShared(), path))
}

func TestLoadSkipsPrivateRegisters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registers.yaml")
	content := `version: 1
registers:
  a:
    text: ok
    wise: char
  '"':
    text: unnamed
    wise: char
  A:
    text: upper
    wise: char
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	shared := NewShared()
	require.NoError(t, Load(shared, path))
	assert.Len(t, shared.Snapshot(), 1)
}
