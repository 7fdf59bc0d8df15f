package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

func TestConfigStore_ImplementsInterface(t *testing.T) {
	var _ driven.ConfigStore = (*ConfigStore)(nil)
}

func TestNewConfigStore_Path(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_LoadsNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `
vector_dim = 768
log_level = "debug"

[llm]
provider = "ollama"
model = "llama3.2"

[timeouts]
request = "10s"
llm = 30

[server]
rate_limit_refill = 1.5
rate_limit_capacity = 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 768, store.GetInt("vector_dim"))
	assert.Equal(t, "debug", store.GetString("log_level"))
	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	assert.Equal(t, "llama3.2", store.GetString("llm.model"))
	assert.Equal(t, 10*time.Second, store.GetDuration("timeouts.request"))
	assert.Equal(t, 30*time.Second, store.GetDuration("timeouts.llm"))
	assert.InDelta(t, 1.5, store.GetFloat("server.rate_limit_refill"), 1e-9)
	assert.InDelta(t, 10.0, store.GetFloat("server.rate_limit_capacity"), 1e-9)
}

func TestConfigStore_TypedGetters_WrongTypes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("b", true))

	assert.Equal(t, 0, store.GetInt("s"))
	assert.Equal(t, "", store.GetString("b"))
	assert.False(t, store.GetBool("s"))
	assert.Zero(t, store.GetFloat("s"))
	assert.Zero(t, store.GetDuration("s"))
	assert.Nil(t, store.GetStringSlice("s"))
	assert.Equal(t, "", store.GetString("missing"))
}

func TestConfigStore_SaveReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("retrieval_topk", 12))
	require.NoError(t, store.Set("tags", []string{"PIRT", "HALAL"}))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.GetString("embedding.provider"))
	assert.Equal(t, 12, reloaded.GetInt("retrieval_topk"))
	assert.Equal(t, []string{"PIRT", "HALAL"}, reloaded.GetStringSlice("tags"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)

	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
			_ = store.GetInt("counter")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
