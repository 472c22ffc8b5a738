package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/yougpt/internal/config"
	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/export"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ID   string // required
	Kind string // txt or pdf; default: from Path extension, else txt
	Path string // optional, default: <exports dir>/summary_<format>-<id>.<ext>
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	ID         string      `json:"id"`
	Path       string      `json:"path"`
	Kind       export.Kind `json:"kind"`
	Bytes      int         `json:"bytes"`
	ExportedAt int64       `json:"exported_at"`
}

// Export writes a stored summary to disk as a text or PDF file.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	kind, err := exportKind(input.Kind, input.Path)
	if err != nil {
		return nil, err
	}

	rendered, err := Render(ctx, database, RenderInput{ID: input.ID, Kind: string(kind)})
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(input.ID)

	exportPath := input.Path
	if exportPath == "" {
		exportPath, err = defaultExportPath(rendered.Filename, id)
		if err != nil {
			return nil, err
		}
	}

	// Default paths are validated too: the ID is caller-supplied
	if err := ValidatePath(exportPath, kind, cfg); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("export")
	}

	if err := writeFileAtomic(exportPath, rendered.Data); err != nil {
		return nil, err
	}

	return &ExportOutput{
		ID:         id,
		Path:       exportPath,
		Kind:       kind,
		Bytes:      len(rendered.Data),
		ExportedAt: time.Now().Unix(),
	}, nil
}

// exportKind resolves the output kind from an explicit value or the path extension.
func exportKind(kind, path string) (export.Kind, error) {
	if strings.TrimSpace(kind) != "" {
		return export.ParseKind(kind)
	}
	if ext := filepath.Ext(path); ext != "" {
		return export.ParseKind(ext)
	}
	return export.KindText, nil
}

// defaultExportPath generates the default export path.
// Format: <exports dir>/summary_<format>-<id>.<ext>
func defaultExportPath(filename, id string) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(filename)
	name := SanitizeForFilename(strings.TrimSuffix(filename, ext) + "-" + id)
	return filepath.Join(dir, name+ext), nil
}

// writeFileAtomic writes data to a temp file beside path and renames it into
// place, so an existing file survives a failed write.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before rename (required on Windows)
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	// Windows refuses to rename over an existing file; keep the original
	// rather than delete-then-rename.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
