package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int                      `toml:"version"`
	Profiles map[string]profileSchema `toml:"profiles,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Profiles == nil {
		s.Profiles = map[string]profileSchema{}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported chat state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// profileSchema mirrors the chat_state record: the active task next to the opaque state map.
type profileSchema struct {
	UpdatedAt  string         `toml:"updated_at"`
	ActiveTask map[string]any `toml:"active_task,omitempty"`
	State      map[string]any `toml:"state"`
}
