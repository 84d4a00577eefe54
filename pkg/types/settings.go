package types

// Settings are the user preferences persisted across popup sessions.
type Settings struct {
	APIKey          string
	Model           Model
	IncludeAll      bool
	MarkdownEnabled bool
}

// DefaultSettings returns the settings used before anything is persisted.
func DefaultSettings() Settings {
	return Settings{
		Model: DefaultModel,
	}
}

// SessionMemory is the last question/answer pair, restored on the next popup open.
type SessionMemory struct {
	LastQuestion string
	LastResponse string
}
