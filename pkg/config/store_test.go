package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileStore(t *testing.T) {
	t.Run("creates store with custom path", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		if store.Path() != configPath {
			t.Errorf("Expected path %s, got %s", configPath, store.Path())
		}
		if store.IsModified() {
			t.Error("New store should not be modified")
		}
	})

	t.Run("creates store with default path when empty", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		store, err := NewFileStore("")
		if err != nil {
			t.Fatalf("NewFileStore with empty path failed: %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		expectedPath := filepath.Join(homeDir, ".pagechat", "config.json")
		if store.Path() != expectedPath {
			t.Errorf("Expected default path %s, got %s", expectedPath, store.Path())
		}
	})

	t.Run("loads existing config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		config := map[string]any{
			"version": "1.0",
			"sections": map[string]map[string]any{
				"settings": {
					"model": "gemini-2.5-pro",
				},
			},
		}
		data, _ := json.MarshalIndent(config, "", "  ")
		if err := os.WriteFile(configPath, data, 0600); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		section, err := store.GetSection("settings")
		if err != nil {
			t.Fatalf("GetSection failed: %v", err)
		}
		if section["model"] != "gemini-2.5-pro" {
			t.Errorf("Expected model gemini-2.5-pro, got %v", section["model"])
		}
	})

	t.Run("rejects corrupt config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(configPath, []byte("{not json"), 0600); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}

		if _, err := NewFileStore(configPath); err == nil {
			t.Error("Expected error for corrupt config file")
		}
	})
}

func TestFileStore_GetSection(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	t.Run("missing section is empty", func(t *testing.T) {
		section, err := store.GetSection("nonexistent")
		if err != nil {
			t.Fatalf("GetSection failed: %v", err)
		}
		if len(section) != 0 {
			t.Errorf("Expected empty section, got %v", section)
		}
	})

	t.Run("returned map is a copy", func(t *testing.T) {
		if err := store.SetSection("session", map[string]any{"last_question": "What?"}); err != nil {
			t.Fatalf("SetSection failed: %v", err)
		}

		section, _ := store.GetSection("session")
		section["last_question"] = "changed"

		again, _ := store.GetSection("session")
		if again["last_question"] != "What?" {
			t.Errorf("Store data was mutated through returned map: %v", again["last_question"])
		}
	})
}

func TestFileStore_SetSection(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := store.SetSection("session", map[string]any{
		"last_question": "What?",
		"last_response": "That.",
	}); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}
	if !store.IsModified() {
		t.Error("Store should be modified after SetSection")
	}

	// Keys missing from the new data are dropped.
	if err := store.SetSection("session", map[string]any{"last_question": "Why?"}); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}

	section, _ := store.GetSection("session")
	if _, exists := section["last_response"]; exists {
		t.Error("Expected last_response to be removed")
	}
	if section["last_question"] != "Why?" {
		t.Errorf("Expected last_question Why?, got %v", section["last_question"])
	}
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nested", "config.json")

	store, err := NewFileStore(configPath)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.SetSection("settings", map[string]any{
		"api_key":     "AIza-test",
		"include_all": true,
	}); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}

	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if store.IsModified() {
		t.Error("Store should not be modified after Save")
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected file mode 0600, got %o", perm)
	}

	entries, _ := os.ReadDir(filepath.Dir(configPath))
	if len(entries) != 1 {
		t.Errorf("Expected only the config file after save, found %d entries", len(entries))
	}

	raw, _ := os.ReadFile(configPath)
	var file fileFormat
	if err := json.Unmarshal(raw, &file); err != nil {
		t.Fatalf("Saved config is not valid JSON: %v", err)
	}
	if file.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %q", file.Version)
	}

	reloaded, err := NewFileStore(configPath)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	section, _ := reloaded.GetSection("settings")
	if section["api_key"] != "AIza-test" {
		t.Errorf("Expected api_key AIza-test, got %v", section["api_key"])
	}
	if section["include_all"] != true {
		t.Errorf("Expected include_all true, got %v", section["include_all"])
	}
}

func TestFileStore_LoadMissingFileResets(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	store, err := NewFileStore(configPath)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	_ = store.SetSection("session", map[string]any{"last_question": "What?"})

	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	section, _ := store.GetSection("session")
	if len(section) != 0 {
		t.Errorf("Expected unsaved data to be discarded, got %v", section)
	}
	if store.IsModified() {
		t.Error("Store should not be modified after Load")
	}
}
