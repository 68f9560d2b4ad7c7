package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager lays out export files as <base>/<run id>/<file>.
type OutputManager struct {
	BaseOutputDir string
}

func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{BaseOutputDir: baseOutputDir}
}

// CreateRunOutputDir creates the directory holding one export run's files.
func (om *OutputManager) CreateRunOutputDir(runID string) (string, error) {
	runDir := filepath.Join(om.BaseOutputDir, filepath.Base(runID))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory for run %s: %w", runID, err)
	}
	return runDir, nil
}

// GetOutputFilePath returns where fileName should be written for runID,
// creating the run directory on first use.
func (om *OutputManager) GetOutputFilePath(runID, fileName string) (string, error) {
	runDir, err := om.CreateRunOutputDir(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(runDir, filepath.Base(fileName)), nil
}

// ResolveFile returns the path of an existing output file, refusing names
// that would escape the run directory.
func (om *OutputManager) ResolveFile(runID, fileName string) (string, error) {
	for _, part := range []string{runID, fileName} {
		if part == "" || part == "." || part == ".." || part != filepath.Base(part) {
			return "", fmt.Errorf("invalid output path %s/%s", runID, fileName)
		}
	}
	path := filepath.Join(om.BaseOutputDir, runID, fileName)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func (om *OutputManager) GetDownloadURL(runID, fileName string) string {
	return fmt.Sprintf("/api/v1/download/%s/%s", runID, filepath.Base(fileName))
}

// ContentType maps an export file to the MIME type it is served with.
func (om *OutputManager) ContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".db", ".sqlite":
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}

// EnsureOutputDirExists creates the base output directory.
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}
