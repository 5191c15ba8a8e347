package fileutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/testutil"
)

func TestWriteFileAtomic_CreatesAndReplaces(t *testing.T) {
	env := testutil.NewTestEnv(t)
	target := env.Path("nested", "books.json")

	require.NoError(t, WriteFileAtomic(target, []byte("first"), 0644))
	assert.Equal(t, "first", env.ReadFileString("nested/books.json"))

	require.NoError(t, WriteFileAtomic(target, []byte("second"), 0644))
	assert.Equal(t, "second", env.ReadFileString("nested/books.json"))

	// no temp files are left behind
	assert.Equal(t, []string{"books.json"}, env.ListFiles("nested"))
}

func TestWriteFileAtomic_FailureKeepsOriginal(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.json", "original")
	// a directory where the file should go makes the rename fail
	env.MkdirAll("blocked.json/child")

	err := WriteFileAtomic(env.Path("blocked.json"), []byte("new"), 0644)
	require.Error(t, err)

	assert.Equal(t, "original", env.ReadFileString("books.json"))
	for _, name := range env.ListFiles(".") {
		assert.NotContains(t, name, ".tmp-")
	}
}

func TestCopyFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.json", `{"books":[]}`)

	copied, err := CopyFile(env.Path("books.json"), env.Path("books.json.bak"))
	require.NoError(t, err)
	assert.True(t, copied)
	assert.Equal(t, `{"books":[]}`, env.ReadFileString("books.json.bak"))

	copied, err = CopyFile(env.Path("missing.json"), env.Path("missing.bak"))
	require.NoError(t, err)
	assert.False(t, copied)
	assert.False(t, env.FileExists("missing.bak"))
}

func TestCopyFile_UnwritableDestination(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.json", "data")
	env.WriteFileString("not-a-dir", "file")

	_, err := CopyFile(env.Path("books.json"), filepath.Join(env.Path("not-a-dir"), "books.bak"))
	require.Error(t, err)
}

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(map[string]int{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"count\": 2\n}\n", string(data))

	_, err = MarshalJSON(make(chan int))
	require.Error(t, err)
}
