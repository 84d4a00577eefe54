package popup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagechat/pkg/config"
	"github.com/entrhq/pagechat/pkg/types"
)

func newFileManager(t *testing.T, path string) *config.Manager {
	t.Helper()
	store, err := config.NewFileStore(path)
	require.NoError(t, err)
	manager, err := config.NewDefaultManager(store)
	require.NoError(t, err)
	return manager
}

func readSections(t *testing.T, path string) map[string]map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var file struct {
		Sections map[string]map[string]any `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(raw, &file))
	return file.Sections
}

func TestConfigPersistence_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	persist, err := NewConfigPersistence(newFileManager(t, path))
	require.NoError(t, err)

	var sent []types.AskRequest
	c := NewController(persist, replyWith(types.TextResult("A"), nil, &sent), nil)
	require.NoError(t, c.Mount())
	require.NoError(t, c.SetAPIKey("K"))
	require.NoError(t, c.SetModel(types.ModelGeminiPro))
	c.SetQuestion("Q")
	require.NoError(t, c.Ask(context.Background()))

	// A fresh popup sees what the previous one stored.
	reopened, err := NewConfigPersistence(newFileManager(t, path))
	require.NoError(t, err)
	c2 := NewController(reopened, nil, nil)
	require.NoError(t, c2.Mount())

	state := c2.Snapshot()
	assert.Equal(t, "K", state.APIKey)
	assert.Equal(t, types.ModelGeminiPro, state.Model)
	assert.Equal(t, "Q", state.Question)
	assert.Equal(t, "A", state.Response)
}

func TestConfigPersistence_ClearRemovesKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	persist, err := NewConfigPersistence(newFileManager(t, path))
	require.NoError(t, err)
	require.NoError(t, persist.SaveSettings(types.Settings{APIKey: "K", Model: types.ModelGeminiFlash}))
	require.NoError(t, persist.SaveLastQuestion("Q"))
	require.NoError(t, persist.SaveLastResponse("R"))

	session := readSections(t, path)[config.SectionIDSession]
	assert.Equal(t, "Q", session["last_question"])
	assert.Equal(t, "R", session["last_response"])

	require.NoError(t, persist.ClearSession())

	sections := readSections(t, path)
	assert.NotContains(t, sections[config.SectionIDSession], "last_question")
	assert.NotContains(t, sections[config.SectionIDSession], "last_response")
	assert.Equal(t, "K", sections[config.SectionIDSettings]["api_key"])
}

func TestConfigPersistence_RejectsInvalidModel(t *testing.T) {
	persist, err := NewConfigPersistence(newFileManager(t, filepath.Join(t.TempDir(), "config.json")))
	require.NoError(t, err)

	err = persist.SaveSettings(types.Settings{Model: types.Model("bogus")})
	assert.Error(t, err)
}

func TestNewConfigPersistence_MissingSections(t *testing.T) {
	store, err := config.NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	_, err = NewConfigPersistence(config.NewManager(store))
	assert.Error(t, err)
}
