package ideas

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"voicetovision/internal/sanitize"
	"voicetovision/internal/services"
)

// Create materializes a new idea folder under the base directory and
// records it in the index. When the sanitized name is already taken the
// folder gets a _v{n} suffix starting at 2. On any failure after the
// folder exists, the folder is removed and the index left untouched.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Idea, error) {
	ctx = ensureContext(ctx)

	req.Analysis = normalizeAnalysis(req.Analysis)
	if req.Name != "" {
		req.Analysis.Name = req.Name
	}
	if err := ValidateAnalysis(&req.Analysis); err != nil {
		return nil, err
	}

	base := sanitize.Name(req.Analysis.Name, s.maxName)

	lock := s.names.lockFor(base)
	lock.Lock()
	defer lock.Unlock()

	folderName, version, err := s.nextVersionedName(ctx, base)
	if err != nil {
		return nil, err
	}

	idea := &Idea{
		UUID:       uuid.New().String(),
		FolderName: folderName,
		Version:    version,
		CreatedAt:  time.Now(),
		CreatedBy:  req.Creator,
		Analysis:   req.Analysis,
	}

	dir, err := services.SafePath(s.audit, "ideas", filepath.Join(s.baseDir, folderName), s.baseDir)
	if err != nil {
		return nil, err
	}

	// Mkdir, not MkdirAll: losing a name race must fail here instead of
	// adopting (and later rolling back) a folder another writer owns.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "create", folderName, err)
	}

	files, err := s.materializeFolder(dir, idea, req)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, services.Wrap(services.ErrPersistence, "ideas", "create", folderName, err)
	}
	idea.Files = files

	if err := s.insertIdea(ctx, idea); err != nil {
		_ = os.RemoveAll(dir)
		return nil, services.Wrap(services.ErrPersistence, "ideas", "create", folderName, err)
	}

	s.logger.Info("idea created",
		"uuid", idea.UUID,
		"folder", idea.FolderName,
		"creator", idea.CreatedBy,
		"files", len(idea.Files))

	return idea, nil
}

// nextVersionedName picks the first free folder name for base, consulting
// both the index and the filesystem. Version 1 is the bare name, later
// versions carry a _v{n} suffix.
func (s *Store) nextVersionedName(ctx context.Context, base string) (string, int, error) {
	for version := 1; ; version++ {
		candidate := base
		if version > 1 {
			candidate = fmt.Sprintf("%s_v%d", base, version)
		}

		taken, err := s.folderNameTaken(ctx, candidate)
		if err != nil {
			return "", 0, err
		}
		if taken {
			continue
		}
		if _, statErr := os.Stat(filepath.Join(s.baseDir, candidate)); statErr == nil {
			continue
		}
		return candidate, version, nil
	}
}

func (s *Store) folderNameTaken(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM ideas WHERE nombre_carpeta = ?", name,
	).Scan(&count)
	if err != nil {
		return false, services.Wrap(services.ErrPersistence, "ideas", "check folder name", name, err)
	}
	return count > 0, nil
}

func (s *Store) insertIdea(ctx context.Context, idea *Idea) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ideas (
			uuid, nombre_idea, nombre_carpeta, version, creado_por, fecha_creacion,
			tipo, nivel_madurez, viabilidad, resumen, explicacion,
			tags_json, siguientes_pasos_json, riesgos_json, archivos_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.UUID,
		idea.Analysis.Name,
		idea.FolderName,
		idea.Version,
		idea.CreatedBy,
		idea.CreatedAt.Format(timeFormat),
		idea.Analysis.Type,
		idea.Analysis.MaturityLevel,
		idea.Analysis.Viability,
		idea.Analysis.Summary,
		idea.Analysis.Explanation,
		encodeStringList(idea.Analysis.Tags),
		encodeStringList(idea.Analysis.NextSteps),
		encodeStringList(idea.Analysis.Risks),
		encodeStringList(idea.Files),
	)
	return err
}

// Rename changes an idea's folder name. The new name is sanitized before
// use; a collision with an existing folder fails the rename rather than
// versioning it. The directory is moved first and moved back if the index
// update fails.
func (s *Store) Rename(ctx context.Context, ideaUUID, newName string) (*Idea, error) {
	ctx = ensureContext(ctx)

	idea, err := s.GetByUUID(ctx, ideaUUID)
	if err != nil {
		return nil, err
	}

	sanitized := sanitize.Name(newName, s.maxName)
	if sanitized == idea.FolderName {
		return s.renameDisplayOnly(ctx, idea, newName)
	}

	lock := s.names.lockFor(sanitized)
	lock.Lock()
	defer lock.Unlock()

	taken, err := s.folderNameTaken(ctx, sanitized)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, services.Wrap(services.ErrValidation, "ideas", "rename",
			fmt.Sprintf("folder %q already exists", sanitized), nil)
	}

	oldDir, err := services.SafePath(s.audit, "ideas", filepath.Join(s.baseDir, idea.FolderName), s.baseDir)
	if err != nil {
		return nil, err
	}
	newDir, err := services.SafePath(s.audit, "ideas", filepath.Join(s.baseDir, sanitized), s.baseDir)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(newDir); statErr == nil {
		return nil, services.Wrap(services.ErrValidation, "ideas", "rename",
			fmt.Sprintf("folder %q already exists on disk", sanitized), nil)
	}

	if err := os.Rename(oldDir, newDir); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "rename", idea.FolderName, err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE ideas SET nombre_idea = ?, nombre_carpeta = ? WHERE uuid = ?",
		newName, sanitized, idea.UUID)
	if err != nil {
		// Put the directory back so disk and index stay consistent.
		if undoErr := os.Rename(newDir, oldDir); undoErr != nil {
			s.logger.Error("rename rollback failed",
				"uuid", idea.UUID,
				"from", newDir,
				"to", oldDir,
				"error", undoErr)
		}
		return nil, services.Wrap(services.ErrPersistence, "ideas", "rename", sanitized, err)
	}

	idea.FolderName = sanitized
	idea.Analysis.Name = newName
	if metaErr := s.rewriteMetadata(newDir, idea); metaErr != nil {
		s.logger.Warn("metadata rewrite after rename failed",
			"uuid", idea.UUID,
			"folder", sanitized,
			"error", metaErr)
	}

	s.logger.Info("idea renamed", "uuid", idea.UUID, "folder", sanitized)
	return idea, nil
}

// renameDisplayOnly handles renames whose sanitized form matches the
// current folder (capitalization or accent fixes): the directory stays put
// but the display name and metadata still change.
func (s *Store) renameDisplayOnly(ctx context.Context, idea *Idea, newName string) (*Idea, error) {
	if newName == idea.Analysis.Name {
		return idea, nil
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE ideas SET nombre_idea = ? WHERE uuid = ?", newName, idea.UUID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "rename", idea.FolderName, err)
	}

	idea.Analysis.Name = newName
	dir := filepath.Join(s.baseDir, idea.FolderName)
	if metaErr := s.rewriteMetadata(dir, idea); metaErr != nil {
		s.logger.Warn("metadata rewrite after rename failed",
			"uuid", idea.UUID,
			"folder", idea.FolderName,
			"error", metaErr)
	}

	s.logger.Info("idea renamed", "uuid", idea.UUID, "folder", idea.FolderName)
	return idea, nil
}

// Delete removes the idea's index row and its folder. The row is deleted
// inside a transaction that only commits once the folder removal succeeds.
func (s *Store) Delete(ctx context.Context, ideaUUID string) error {
	ctx = ensureContext(ctx)

	idea, err := s.GetByUUID(ctx, ideaUUID)
	if err != nil {
		return err
	}

	lock := s.names.lockFor(idea.FolderName)
	lock.Lock()
	defer lock.Unlock()

	dir, err := services.SafePath(s.audit, "ideas", filepath.Join(s.baseDir, idea.FolderName), s.baseDir)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "ideas", "delete", idea.FolderName, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ideas WHERE uuid = ?", idea.UUID); err != nil {
		return services.Wrap(services.ErrPersistence, "ideas", "delete", idea.FolderName, err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return services.Wrap(services.ErrPersistence, "ideas", "delete folder", dir, err)
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, "ideas", "delete", idea.FolderName, err)
	}

	s.logger.Info("idea deleted", "uuid", idea.UUID, "folder", idea.FolderName)
	return nil
}
