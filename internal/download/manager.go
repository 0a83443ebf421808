package download

import (
	"archive/zip"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voicetovision/internal/config"
	"voicetovision/internal/logging"
	"voicetovision/internal/services"
)

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

// Token is an issued download grant. The manifest holds absolute paths
// already validated against the base folder.
type Token struct {
	Value     string
	Manifest  []string
	Bytes     int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Stats summarizes the live token table.
type Stats struct {
	ActiveCount int   `json:"active_count"`
	ActiveBytes int64 `json:"active_bytes"`
}

// Manager issues and redeems expiring download tokens. Tokens live in
// memory only; a restart invalidates all outstanding links.
type Manager struct {
	baseDir      string
	downloadsDir string
	ttl          time.Duration
	logger       *slog.Logger
	audit        *logging.Audit

	mu     sync.Mutex
	tokens map[string]*Token

	now func() time.Time
}

func NewManager(cfg *config.Config, logger *slog.Logger, audit *logging.Audit) *Manager {
	return &Manager{
		baseDir:      cfg.System.BaseFolder,
		downloadsDir: cfg.DownloadsDir(),
		ttl:          time.Duration(cfg.System.LinkExpiryMinutes) * time.Minute,
		logger:       logging.NewComponentLogger(logger, "download"),
		audit:        audit,
		tokens:       make(map[string]*Token),
		now:          time.Now,
	}
}

// Issue validates every manifest path against the base folder and returns a
// fresh token valid for the configured expiry window. ttl overrides the
// configured window when positive.
func (m *Manager) Issue(manifest []string, ttl time.Duration) (*Token, error) {
	if len(manifest) == 0 {
		return nil, services.Wrap(services.ErrValidation, "download", "issue", "empty manifest", nil)
	}

	resolved := make([]string, 0, len(manifest))
	var total int64
	for _, path := range manifest {
		safe, err := services.SafePath(m.audit, "download", path, m.baseDir)
		if err != nil {
			return nil, err
		}
		info, statErr := os.Stat(safe)
		if statErr != nil {
			return nil, services.Wrap(services.ErrNotFound, "download", "issue", path, statErr)
		}
		if info.IsDir() {
			return nil, services.Wrap(services.ErrValidation, "download", "issue",
				fmt.Sprintf("%s is a directory", path), nil)
		}
		resolved = append(resolved, safe)
		total += info.Size()
	}

	value, err := newTokenValue()
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "download", "issue", "generate token", err)
	}

	if ttl <= 0 {
		ttl = m.ttl
	}
	issued := m.now()
	token := &Token{
		Value:     value,
		Manifest:  resolved,
		Bytes:     total,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(ttl),
	}

	m.mu.Lock()
	m.tokens[value] = token
	m.mu.Unlock()

	m.logger.Info("token issued",
		"files", len(resolved),
		"bytes", total,
		"expires_at", token.ExpiresAt)

	return token, nil
}

// Redeem streams a zip archive of the token's manifest to w. The archive is
// built on demand from the live files; it is never cached. Tokens stay
// redeemable until they expire.
func (m *Manager) Redeem(ctx context.Context, value string, w io.Writer) error {
	token, err := m.lookup(value)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, path := range token.Manifest {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		if err := addToArchive(zw, m.baseDir, path); err != nil {
			_ = zw.Close()
			return services.Wrap(services.ErrPersistence, "download", "redeem", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return services.Wrap(services.ErrPersistence, "download", "redeem", "finalize archive", err)
	}

	m.logger.Info("token redeemed", "files", len(token.Manifest))
	return nil
}

// RedeemToFile builds the archive into the downloads directory and returns
// its path. The file is temporary; Sweep removes stale ones.
func (m *Manager) RedeemToFile(ctx context.Context, value string) (string, error) {
	if err := os.MkdirAll(m.downloadsDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrPersistence, "download", "redeem", "create downloads dir", err)
	}

	out, err := os.CreateTemp(m.downloadsDir, "bundle-*.zip")
	if err != nil {
		return "", services.Wrap(services.ErrPersistence, "download", "redeem", "create archive file", err)
	}
	path := out.Name()

	if err := m.Redeem(ctx, value, out); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", services.Wrap(services.ErrPersistence, "download", "redeem", "close archive", err)
	}
	return path, nil
}

func (m *Manager) lookup(value string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[value]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "download", "redeem", "unknown token", nil)
	}
	if m.now().After(token.ExpiresAt) {
		delete(m.tokens, value)
		return nil, services.Wrap(services.ErrExpiredToken, "download", "redeem", "", nil)
	}
	return token, nil
}

// Sweep drops expired tokens and removes stale archive files from the
// downloads directory. It is idempotent and safe alongside Redeem; a redeem
// losing the race simply sees the token as gone.
func (m *Manager) Sweep() {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for value, token := range m.tokens {
		if now.After(token.ExpiresAt) {
			delete(m.tokens, value)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Info("expired tokens swept", "count", removed)
	}

	m.sweepArchives(now)
}

func (m *Manager) sweepArchives(now time.Time) {
	entries, err := os.ReadDir(m.downloadsDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < m.ttl {
			continue
		}
		path := filepath.Join(m.downloadsDir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.logger.Warn("remove stale archive", "path", path, "error", err)
		}
	}
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// CollectStats reports the live (unexpired) token population.
func (m *Manager) CollectStats() Stats {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var stats Stats
	for _, token := range m.tokens {
		if now.After(token.ExpiresAt) {
			continue
		}
		stats.ActiveCount++
		stats.ActiveBytes += token.Bytes
	}
	return stats
}

func newTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// addToArchive stores one file under its path relative to the base folder so
// the archive mirrors the idea layout.
func addToArchive(zw *zip.Writer, baseDir, path string) error {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	_, err = io.Copy(dst, src)
	return err
}
