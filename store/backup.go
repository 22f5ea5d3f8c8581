package store

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive entry names accepted on restore. Anything else in an uploaded
// archive or a single-document upload is rejected by name.
const (
	ArcUsers  = "paid_users.json"
	ArcAssets = "kit_assets.json"
)

type backupMeta struct {
	CreatedAt string   `json:"created_at"`
	Files     []string `json:"files"`
	App       string   `json:"app"`
	Version   string   `json:"version"`
}

func (s *Store) backupFiles() map[string]string {
	return map[string]string{
		ArcUsers:  s.usersPath,
		ArcAssets: s.assetsPath,
	}
}

// CreateBackupZip packs both documents plus a small manifest into a zip on
// disk and returns its path. A missing source file becomes a placeholder
// entry instead of failing the whole backup.
func (s *Store) CreateBackupZip() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().Format("20060102_150405")
	dir := filepath.Join(s.dataDir, "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	zipPath := filepath.Join(dir, "kit_bot_backup_"+ts+".zip")

	f, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	meta := backupMeta{CreatedAt: ts, App: "AI Business Kit", Version: "2.0"}
	for arcname, realpath := range s.backupFiles() {
		data, err := os.ReadFile(realpath)
		if err != nil {
			w, werr := zw.Create(arcname + ".missing")
			if werr == nil {
				_, _ = w.Write([]byte("FILE_NOT_FOUND"))
			}
			continue
		}
		w, err := zw.Create(arcname)
		if err != nil {
			return "", err
		}
		if _, err := w.Write(data); err != nil {
			return "", err
		}
		meta.Files = append(meta.Files, arcname)
	}
	metaJSON, _ := json.MarshalIndent(meta, "", "  ")
	if w, err := zw.Create("_meta.json"); err == nil {
		_, _ = w.Write(metaJSON)
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return zipPath, nil
}

// RestoreResult reports per-entry outcomes of a restore.
type RestoreResult struct {
	Restored []string
	Errors   []string
}

// Restore applies an uploaded backup: a zip archive or a single JSON
// document identified strictly by file name. Each archive entry is parsed
// and written independently, so one bad entry never blocks the others, and
// a fully corrupt upload leaves both documents untouched. The overwritten
// file content is kept as a rolling .bak.
func (s *Store) Restore(fileName string, data []byte) (RestoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res RestoreResult
	name := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(name, ".zip"):
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return res, fmt.Errorf("невалидный ZIP-архив: %w", err)
		}
		known := s.backupFiles()
		entries := map[string]*zip.File{}
		for _, zf := range zr.File {
			entries[zf.Name] = zf
			if _, ok := known[zf.Name]; ok {
				continue
			}
			// The manifest and missing-source placeholders come from our
			// own CreateBackupZip.
			if zf.Name == "_meta.json" || strings.HasSuffix(zf.Name, ".missing") {
				continue
			}
			res.Errors = append(res.Errors, zf.Name+": неизвестный файл в архиве, пропущен")
		}
		for arcname, realpath := range known {
			zf, ok := entries[arcname]
			if !ok {
				continue
			}
			if err := s.restoreEntry(arcname, realpath, zf); err != nil {
				res.Errors = append(res.Errors, arcname+": "+err.Error())
				continue
			}
			res.Restored = append(res.Restored, arcname)
		}
	case strings.HasSuffix(name, ".json"):
		realpath, ok := s.backupFiles()[name]
		if !ok {
			return res, fmt.Errorf("имя файла не распознано, ожидаю %s или %s", ArcUsers, ArcAssets)
		}
		if err := applyDocument(realpath, data); err != nil {
			return res, err
		}
		res.Restored = append(res.Restored, name)
	default:
		return res, fmt.Errorf("пришлите .zip или .json")
	}
	return res, nil
}

func (s *Store) restoreEntry(arcname, realpath string, zf *zip.File) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return err
	}
	return applyDocument(realpath, buf.Bytes())
}

// applyDocument validates that the payload is a JSON object before the
// atomic write, keeping the previous content as .bak.
func applyDocument(realpath string, data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("невалидный JSON: %w", err)
	}
	return writeJSONAtomic(realpath, doc, true)
}
