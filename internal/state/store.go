// Package state owns the conversation log and session settings, and
// persists them as a single JSON blob in a local SQLite database.
// Mutations are written through a short debounce so rapid edits (for
// example draft keystrokes) do not amplify into a write per key.
package state

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrInvalidImport is returned when an imported blob does not parse as a
// non-null JSON object. The session is left unchanged.
var ErrInvalidImport = errors.New("import is not a JSON object")

const (
	stateKey = "state"

	// saveDebounce is how long mutations coalesce before hitting disk.
	saveDebounce = 250 * time.Millisecond
)

// Store holds the in-memory SessionState and its SQLite backing. All
// methods are safe for concurrent use.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	state    SessionState
	raw      []byte // verbatim imported blob, kept until the next mutation
	timer    *time.Timer
	debounce time.Duration
}

// Open opens (or creates) the session database in dataDir, runs pending
// migrations, and loads the persisted session. Pass ":memory:" as
// dataDir for an in-memory database (used by tests). A missing or
// unreadable blob falls back to DefaultState.
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "solace.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db, debounce: saveDebounce}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.state = s.load()
	return s, nil
}

// Close flushes any pending write and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.db.Close()
}

// load reads the persisted blob. Absence and malformed content both
// fall back to defaults; load never fails.
func (s *Store) load() SessionState {
	var value string
	err := s.db.QueryRow("SELECT value FROM session_blob WHERE key = ?", stateKey).Scan(&value)
	if err != nil {
		return DefaultState()
	}
	return decodeState([]byte(value))
}

// Flush writes the current session to disk immediately, canceling any
// pending debounced write.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	payload := s.raw
	if payload == nil {
		b, err := json.Marshal(s.state)
		if err != nil {
			return fmt.Errorf("marshaling session state: %w", err)
		}
		payload = b
	}

	_, err := s.db.Exec(`
		INSERT INTO session_blob (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		stateKey, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	return nil
}

// scheduleSaveLocked (re)arms the debounce timer. Callers hold s.mu.
func (s *Store) scheduleSaveLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(); err != nil {
			slog.Warn("debounced session save failed", "error", err)
		}
	})
}

// mutate runs fn on the state under the lock, drops any verbatim import
// blob, and schedules a save.
func (s *Store) mutate(fn func(*SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.raw = nil
	s.scheduleSaveLocked()
}

// State returns a copy of the current session.
func (s *Store) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Messages returns a copy of the conversation log.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.state.Messages))
	copy(out, s.state.Messages)
	return out
}

// Append adds a message to the end of the conversation log.
func (s *Store) Append(m Message) {
	s.mutate(func(st *SessionState) {
		st.Messages = append(st.Messages, m)
	})
}

// Clear empties the conversation log. Callers are responsible for
// confirming with the user before invoking it; Clear itself does not ask.
func (s *Store) Clear() {
	s.mutate(func(st *SessionState) {
		st.Messages = nil
	})
}

// Replace swaps the entire session for the imported blob. The blob is
// accepted if it parses as a non-null JSON object and is persisted
// verbatim; no schema validation is applied beyond that, so an object
// with mistyped fields is taken as-is and its unreadable fields decode
// to defaults.
func (s *Store) Replace(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return ErrInvalidImport
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = decodeState(raw)
	s.raw = append([]byte(nil), raw...)
	s.scheduleSaveLocked()
	return nil
}

// Export returns the serialized session snapshot and a timestamp-based
// filename for it.
func (s *Store) Export() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshaling session state: %w", err)
	}
	name := fmt.Sprintf("solace-export-%s.json", time.Now().Format("20060102-150405"))
	return b, name, nil
}

// SetDraft stores the unsent input text.
func (s *Store) SetDraft(text string) {
	s.mutate(func(st *SessionState) { st.Draft = text })
}

// SetAPIKey stores the API key in the session.
func (s *Store) SetAPIKey(key string) {
	s.mutate(func(st *SessionState) { st.APIKey = key })
}

// SetModel stores the model identifier.
func (s *Store) SetModel(model string) {
	s.mutate(func(st *SessionState) { st.Model = model })
}

// SetGeneration stores the generation parameters. Values are kept as
// given; clamping happens at send time.
func (s *Store) SetGeneration(g GenerationConfig) {
	s.mutate(func(st *SessionState) { st.Generation = g })
}

// SetEmpathicMode toggles the 4-step response structure instruction.
func (s *Store) SetEmpathicMode(on bool) {
	s.mutate(func(st *SessionState) { st.EmpathicMode = on })
}

// SetQuickReplies toggles suggested replies.
func (s *Store) SetQuickReplies(on bool) {
	s.mutate(func(st *SessionState) { st.QuickReplies = on })
}

// SetSpeakReplies toggles spoken replies.
func (s *Store) SetSpeakReplies(on bool) {
	s.mutate(func(st *SessionState) { st.SpeakReplies = on })
}

// AddPreset appends a preset. Duplicate labels are allowed.
func (s *Store) AddPreset(p Preset) {
	s.mutate(func(st *SessionState) {
		st.Presets = append(st.Presets, p)
	})
}

// RemovePreset deletes the preset at index i (display order).
func (s *Store) RemovePreset(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.state.Presets) {
		return fmt.Errorf("no preset at index %d", i)
	}
	s.state.Presets = append(s.state.Presets[:i], s.state.Presets[i+1:]...)
	s.raw = nil
	s.scheduleSaveLocked()
	return nil
}

func copyState(st SessionState) SessionState {
	out := st
	if st.Presets != nil {
		out.Presets = make([]Preset, len(st.Presets))
		copy(out.Presets, st.Presets)
	}
	if st.Messages != nil {
		out.Messages = make([]Message, len(st.Messages))
		copy(out.Messages, st.Messages)
	}
	return out
}

// migrate reads embedded SQL migration files and applies any that
// haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending
// order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
