package ideas

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"voicetovision/internal/config"
	"voicetovision/internal/logging"
)

// Store manages idea persistence: the SQLite index plus the folder
// hierarchy under the configured base folder.
type Store struct {
	db      *sql.DB
	path    string
	baseDir string
	maxName int
	logger  *slog.Logger
	audit   *logging.Audit

	// names serializes create/rename/delete against the same sanitized
	// base name; unrelated names take independent locks.
	names nameLocks
}

// Open initializes or connects to the idea index database.
func Open(cfg *config.Config, logger *slog.Logger, audit *logging.Audit) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.System.BaseFolder, "ideas.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:      db,
		path:    dbPath,
		baseDir: cfg.System.BaseFolder,
		maxName: cfg.System.MaxFilenameLength,
		logger:  logging.NewComponentLogger(logger, "ideas"),
		audit:   audit,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BaseDir returns the root folder all idea directories live under.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Dir returns the absolute directory of an idea.
func (s *Store) Dir(idea *Idea) string {
	return filepath.Join(s.baseDir, idea.FolderName)
}

type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (n *nameLocks) lockFor(base string) *sync.Mutex {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.locks == nil {
		n.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := n.locks[base]
	if !ok {
		lock = &sync.Mutex{}
		n.locks[base] = lock
	}
	return lock
}

const ideaColumns = "uuid, nombre_idea, nombre_carpeta, version, creado_por, fecha_creacion, tipo, nivel_madurez, viabilidad, resumen, explicacion, tags_json, siguientes_pasos_json, riesgos_json, archivos_json"

// timeFormat keeps a fixed fractional width so lexicographic ordering in
// SQLite matches chronological ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func scanIdea(scanner interface{ Scan(dest ...any) error }) (*Idea, error) {
	var (
		uuidStr    string
		name       string
		folder     string
		version    int
		creator    string
		createdRaw string
		tipo       string
		madurez    string
		viabilidad int
		resumen    string
		explica    string
		tagsJSON   string
		pasosJSON  string
		riesgoJSON string
		filesJSON  string
	)

	if err := scanner.Scan(
		&uuidStr,
		&name,
		&folder,
		&version,
		&creator,
		&createdRaw,
		&tipo,
		&madurez,
		&viabilidad,
		&resumen,
		&explica,
		&tagsJSON,
		&pasosJSON,
		&riesgoJSON,
		&filesJSON,
	); err != nil {
		return nil, err
	}

	idea := &Idea{
		UUID:       uuidStr,
		FolderName: folder,
		Version:    version,
		CreatedBy:  creator,
		Analysis: Analysis{
			Name:          name,
			Summary:       resumen,
			Explanation:   explica,
			Type:          tipo,
			MaturityLevel: madurez,
			Viability:     viabilidad,
			Tags:          decodeStringList(tagsJSON),
			NextSteps:     decodeStringList(pasosJSON),
			Risks:         decodeStringList(riesgoJSON),
		},
		Files: decodeStringList(filesJSON),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		idea.CreatedAt = created
	}
	return idea, nil
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func encodeStringList(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
