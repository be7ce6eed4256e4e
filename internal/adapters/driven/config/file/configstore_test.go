package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("MAILQA_HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), store.Path())

	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "anthropic"))
	require.NoError(t, store.Set("retrieval.top_k", 5))
	require.NoError(t, store.Set("retrieval.min_score", 0.25))
	require.NoError(t, store.Set("index.persist", true))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("llm.provider"), "anthropic"},
		{"int", store.GetInt("retrieval.top_k"), 5},
		{"float", store.GetFloat("retrieval.min_score"), 0.25},
		{"int as float", store.GetFloat("retrieval.top_k"), 5.0},
		{"bool", store.GetBool("index.persist"), true},
		{"missing string", store.GetString("nope"), ""},
		{"missing int", store.GetInt("nope"), 0},
		{"missing float", store.GetFloat("nope"), 0.0},
		{"missing bool", store.GetBool("nope"), false},
		{"wrong type int", store.GetInt("llm.provider"), 0},
		{"wrong type bool", store.GetBool("retrieval.top_k"), false},
		{"wrong type string", store.GetString("index.persist"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_Persistence_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("retrieval.top_k", 4))
	require.NoError(t, store.Set("retrieval.min_score", 0.1))
	require.NoError(t, store.Set("source.kind", "graph"))
	require.NoError(t, store.Set("source.graph.tenant_id", "tenant-1"))
	require.NoError(t, store.Set("generation.timeout", "90s"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[retrieval]")
	assert.Contains(t, string(data), "[source.graph]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 4, reloaded.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.1, reloaded.GetFloat("retrieval.min_score"), 1e-9)
	assert.Equal(t, "graph", reloaded.GetString("source.kind"))
	assert.Equal(t, "tenant-1", reloaded.GetString("source.graph.tenant_id"))
	assert.Equal(t, "90s", reloaded.GetString("generation.timeout"))
	assert.Equal(t, []string{
		"generation.timeout",
		"retrieval.min_score",
		"retrieval.top_k",
		"source.graph.tenant_id",
		"source.kind",
	}, reloaded.Keys())
}

func TestConfigStore_LoadsHandWrittenTOML(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[embedding]
provider = "ollama"

[retrieval]
top_k = 2
min_score = 1

[source.graph]
client_id = "abc"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, 2, store.GetInt("retrieval.top_k"))
	assert.Equal(t, 1.0, store.GetFloat("retrieval.min_score"))
	assert.Equal(t, "abc", store.GetString("source.graph.client_id"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyAndCommentOnlyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("# just a comment\n\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
	require.NoError(t, store.Set("a.b", "c"))
	assert.Equal(t, "c", store.GetString("a.b"))
}

func TestConfigStore_Errors(t *testing.T) {
	t.Run("directory cannot be created", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

		store, err := NewConfigStore(filepath.Join(blocker, "config"))

		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("corrupted file", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("not valid {{{[["), 0600))

		store, err := NewConfigStore(tmpDir)

		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("write fails", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, os.Mkdir(store.Path(), 0700))

		assert.Error(t, store.Set("key", "value"))
	})

	t.Run("unencodable value", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		require.NoError(t, err)

		assert.Error(t, store.Set("channel", make(chan int)))
	})

	t.Run("reload of invalid file", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.Set("valid", "data"))
		require.NoError(t, os.WriteFile(store.Path(), []byte("invalid ][}{"), 0600))

		assert.Error(t, store.Load())
	})
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Set("index.batch_size", i))
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("index.batch_size")
			_ = store.Keys()
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"index.batch_size"}, store.Keys())
}

func TestFlattenAndNestMap(t *testing.T) {
	flat := map[string]any{
		"top":         "x",
		"a.b":         int64(1),
		"a.c.d":       true,
		"source.kind": "maildir",
	}

	nested := nestMap(flat)

	assert.Equal(t, "x", nested["top"])
	a, ok := nested["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), a["b"])
	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestNestMap_ValueShadowsTable(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":   "scalar",
		"a.b": "child",
	})

	assert.Equal(t, "scalar", nested["a"])
	assert.Equal(t, "child", nested["a.b"])
}
