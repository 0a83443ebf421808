package ideas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voicetovision/internal/fileutil"
)

const (
	transcriptFile = "transcripcion.txt"
	analysisFile   = "analisis.json"
	summaryFile    = "resumen.txt"
	metadataFile   = "metadata.json"
	audioBaseName  = "audio_original"
)

// systemMetadata is the "sistema" block of metadata.json.
type systemMetadata struct {
	UUID         string `json:"uuid"`
	CreatedAt    string `json:"fecha_creacion"`
	CreatedBy    string `json:"creado_por"`
	Version      int    `json:"version"`
	OriginalName string `json:"nombre_original"`
	FolderName   string `json:"nombre_carpeta"`
	FullPath     string `json:"ruta_completa"`
}

type folderStats struct {
	TranscriptLength int    `json:"longitud_transcripcion"`
	FileCount        int    `json:"numero_archivos"`
	LastModified     string `json:"fecha_ultima_modificacion"`
}

type folderMetadata struct {
	System   systemMetadata `json:"sistema"`
	Analysis Analysis       `json:"analisis"`
	Stats    folderStats    `json:"estadisticas"`
}

// materializeFolder writes the idea's files into dir, which the caller has
// already created, and returns the relative paths written in order.
func (s *Store) materializeFolder(dir string, idea *Idea, req CreateRequest) ([]string, error) {
	files := make([]string, 0, 5)

	if err := writeTextBlock(filepath.Join(dir, transcriptFile), "TRANSCRIPCIÓN DEL AUDIO", req.Transcript); err != nil {
		return files, err
	}
	files = append(files, transcriptFile)

	if err := writeJSONFile(filepath.Join(dir, analysisFile), idea.Analysis); err != nil {
		return files, err
	}
	files = append(files, analysisFile)

	if err := writeTextBlock(filepath.Join(dir, summaryFile), "RESUMEN DE LA IDEA", idea.Analysis.Summary); err != nil {
		return files, err
	}
	files = append(files, summaryFile)

	audioName := ""
	if req.AudioPath != "" {
		ext := strings.ToLower(filepath.Ext(req.AudioPath))
		audioName = audioBaseName + ext
		if err := fileutil.CopyFileVerified(req.AudioPath, filepath.Join(dir, audioName)); err != nil {
			return files, fmt.Errorf("archive audio: %w", err)
		}
		files = append(files, audioName)
	}

	meta := folderMetadata{
		System: systemMetadata{
			UUID:         idea.UUID,
			CreatedAt:    idea.CreatedAt.Format(time.RFC3339Nano),
			CreatedBy:    idea.CreatedBy,
			Version:      idea.Version,
			OriginalName: idea.Analysis.Name,
			FolderName:   idea.FolderName,
			FullPath:     dir,
		},
		Analysis: idea.Analysis,
		Stats: folderStats{
			TranscriptLength: len(req.Transcript),
			FileCount:        len(files) + 1,
			LastModified:     time.Now().Format(time.RFC3339Nano),
		},
	}
	if err := writeJSONFile(filepath.Join(dir, metadataFile), meta); err != nil {
		return files, err
	}
	files = append(files, metadataFile)

	return files, nil
}

// rewriteMetadata updates metadata.json after a rename or move. Missing
// metadata is rebuilt from the record rather than failing the operation.
func (s *Store) rewriteMetadata(dir string, idea *Idea) error {
	path := filepath.Join(dir, metadataFile)

	var meta folderMetadata
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &meta)
	}
	meta.System.UUID = idea.UUID
	meta.System.CreatedAt = idea.CreatedAt.Format(time.RFC3339Nano)
	meta.System.CreatedBy = idea.CreatedBy
	meta.System.Version = idea.Version
	meta.System.OriginalName = idea.Analysis.Name
	meta.System.FolderName = idea.FolderName
	meta.System.FullPath = dir
	meta.Analysis = idea.Analysis
	meta.Stats.FileCount = len(idea.Files)
	meta.Stats.LastModified = time.Now().Format(time.RFC3339Nano)

	return writeJSONFile(path, meta)
}

func writeTextBlock(path, header, body string) error {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("\nGenerado: %s\n", time.Now().Format(time.RFC3339Nano)))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
