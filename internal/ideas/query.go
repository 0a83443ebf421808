package ideas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"voicetovision/internal/services"
)

// GetByUUID returns one idea by its stable identifier.
func (s *Store) GetByUUID(ctx context.Context, ideaUUID string) (*Idea, error) {
	ctx = ensureContext(ctx)

	row := s.db.QueryRowContext(ctx,
		"SELECT "+ideaColumns+" FROM ideas WHERE uuid = ?", ideaUUID)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "ideas", "get", ideaUUID, nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "get", ideaUUID, err)
	}
	return idea, nil
}

// GetByFolderName returns one idea by its folder name.
func (s *Store) GetByFolderName(ctx context.Context, folderName string) (*Idea, error) {
	ctx = ensureContext(ctx)

	row := s.db.QueryRowContext(ctx,
		"SELECT "+ideaColumns+" FROM ideas WHERE nombre_carpeta = ?", folderName)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "ideas", "get", folderName, nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "get", folderName, err)
	}
	return idea, nil
}

// List returns ideas matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Idea, error) {
	ctx = ensureContext(ctx)

	where, args := buildFilter(filter)
	query := "SELECT " + ideaColumns + " FROM ideas" + where + " ORDER BY fecha_creacion DESC, uuid"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "list", "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Idea
	for rows.Next() {
		idea, scanErr := scanIdea(rows)
		if scanErr != nil {
			return nil, services.Wrap(services.ErrPersistence, "ideas", "list", "scan row", scanErr)
		}
		out = append(out, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "list", "iterate rows", err)
	}
	return out, nil
}

// Count returns how many ideas match the filter.
func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	ctx = ensureContext(ctx)

	where, args := buildFilter(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM ideas"+where, args...).Scan(&count)
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, "ideas", "count", "", err)
	}
	return count, nil
}

// Stats summarizes the index for status displays.
type Stats struct {
	Total      int
	ByType     map[string]int
	ByMaturity map[string]int
	Newest     time.Time
}

// CollectStats aggregates per-type and per-maturity counts.
func (s *Store) CollectStats(ctx context.Context) (*Stats, error) {
	ctx = ensureContext(ctx)

	stats := &Stats{
		ByType:     make(map[string]int),
		ByMaturity: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT tipo, nivel_madurez, fecha_creacion FROM ideas")
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "stats", "", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var tipo, madurez, createdRaw string
		if err := rows.Scan(&tipo, &madurez, &createdRaw); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "ideas", "stats", "scan row", err)
		}
		stats.Total++
		stats.ByType[tipo]++
		stats.ByMaturity[madurez]++
		if created, parseErr := parseTimeString(createdRaw); parseErr == nil && created.After(stats.Newest) {
			stats.Newest = created
		}
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "ideas", "stats", "iterate rows", err)
	}
	return stats, nil
}

func buildFilter(filter Filter) (string, []any) {
	clauses := make([]string, 0, 6)
	args := make([]any, 0, 6)

	if filter.Type != "" {
		clauses = append(clauses, "tipo = ?")
		args = append(args, filter.Type)
	}
	if filter.MaturityLevel != "" {
		clauses = append(clauses, "nivel_madurez = ?")
		args = append(args, filter.MaturityLevel)
	}
	if filter.Creator != "" {
		clauses = append(clauses, "creado_por = ?")
		args = append(args, filter.Creator)
	}
	if filter.MinViability >= 0 {
		clauses = append(clauses, "viabilidad >= ?")
		args = append(args, filter.MinViability)
	}
	if filter.MaxViability >= 0 {
		clauses = append(clauses, "viabilidad <= ?")
		args = append(args, filter.MaxViability)
	}
	if !filter.CreatedAfter.IsZero() {
		clauses = append(clauses, "fecha_creacion >= ?")
		args = append(args, filter.CreatedAfter.Format(timeFormat))
	}
	if !filter.CreatedBefore.IsZero() {
		clauses = append(clauses, "fecha_creacion <= ?")
		args = append(args, filter.CreatedBefore.Format(timeFormat))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
