package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/finchat/internal/domain"
	"github.com/bnema/finchat/internal/ports"
)

const (
	StatePathKey    = "state.path"
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	stateConfigDir  = ".finchat"
	stateConfigFile = "chat_state.toml"
	tempFilePattern = ".chat_state-*.toml.tmp"
)

// Repository stores one chat state per profile in a single TOML file.
type Repository struct {
	statePath string
	mu        *sync.RWMutex
	now       func() time.Time
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ChatStateRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(StatePathKey, filepath.Join(homeDir, stateConfigDir, stateConfigFile))

	statePath := cfg.GetString(StatePathKey)
	if statePath == "" {
		return nil, errors.New("chat state path is empty")
	}
	statePath, err = normalizeStatePath(statePath)
	if err != nil {
		return nil, err
	}

	return &Repository{statePath: statePath, mu: lockForPath(statePath), now: time.Now}, nil
}

func (r *Repository) Path() string {
	return r.statePath
}

func (r *Repository) Get(ctx context.Context, profileID string) (domain.ChatState, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatState{}, err
	}
	key, err := profileKey(profileID)
	if err != nil {
		return domain.ChatState{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.ChatState{}, err
	}

	entry, ok := file.Profiles[key]
	if !ok {
		return domain.ChatState{}, domain.ErrChatStateNotFound
	}
	return fromSchema(entry), nil
}

func (r *Repository) Save(ctx context.Context, profileID string, state domain.ChatState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := profileKey(profileID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.Profiles[key] = toSchema(state, r.now())

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Delete(ctx context.Context, profileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := profileKey(profileID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	if _, ok := file.Profiles[key]; !ok {
		return domain.ErrChatStateNotFound
	}
	delete(file.Profiles, key)

	return r.writeSchema(file)
}

func profileKey(profileID string) (string, error) {
	key := strings.TrimSpace(profileID)
	if key == "" {
		return "", errors.New("profile id is empty")
	}
	return key, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read chat state file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode chat state file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeStatePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve chat state path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.statePath), stateDirMode); err != nil {
		return fmt.Errorf("create chat state directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode chat state file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.statePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp chat state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp chat state file: %w", err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp chat state file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp chat state file: %w", err)
	}

	if err := os.Rename(tempName, r.statePath); err != nil {
		return fmt.Errorf("replace chat state file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.statePath, stateFileMode); err != nil {
		return fmt.Errorf("chmod chat state file: %w", err)
	}

	return nil
}

func toSchema(state domain.ChatState, now time.Time) profileSchema {
	record := state.ToMap()
	entry := profileSchema{UpdatedAt: now.UTC().Format(time.RFC3339)}
	if task, ok := record["active_task"].(map[string]any); ok {
		entry.ActiveTask = withoutNil(task)
	}
	if inner, ok := record["state"].(map[string]any); ok {
		entry.State = withoutNil(inner)
	}
	return entry
}

func fromSchema(entry profileSchema) domain.ChatState {
	record := map[string]any{"state": entry.State}
	if entry.ActiveTask != nil {
		record["active_task"] = entry.ActiveTask
	}
	return domain.ChatStateFromMap(record)
}

// withoutNil drops nil values, which TOML cannot represent.
func withoutNil(raw map[string]any) map[string]any {
	cleaned := make(map[string]any, len(raw))
	for key, value := range raw {
		switch typed := value.(type) {
		case nil:
			continue
		case map[string]any:
			cleaned[key] = withoutNil(typed)
		case domain.Payload:
			cleaned[key] = withoutNil(typed)
		case []any:
			items := make([]any, 0, len(typed))
			for _, item := range typed {
				switch nested := item.(type) {
				case nil:
				case map[string]any:
					items = append(items, withoutNil(nested))
				default:
					items = append(items, item)
				}
			}
			cleaned[key] = items
		default:
			cleaned[key] = value
		}
	}
	return cleaned
}
