// Package discovery finds model files in a directory and derives the output
// base path of each one.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"github.com/google/uuid"
)

// Discover lists the non-hidden regular files directly inside modelDir whose
// name ends with format, and pairs each with outputDir/<name minus suffix>.
// The suffix is matched literally, so ".xml" does not match "a.xml.gz".
// Results are sorted by input path; zero matches is not an error.
func Discover(modelDir, outputDir string, format domain.Format) ([]domain.Task, error) {
	suffix := string(format)
	if suffix == "" {
		return nil, fmt.Errorf("empty file format")
	}
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return nil, fmt.Errorf("read model dir: %w", err)
	}

	var tasks []domain.Task
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) || len(name) == len(suffix) {
			continue
		}
		if !isRegular(modelDir, e) {
			continue
		}
		tasks = append(tasks, domain.Task{
			ID:         uuid.NewString(),
			Input:      filepath.Join(modelDir, name),
			OutputBase: OutputBase(outputDir, name, format),
			Format:     format,
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Input < tasks[j].Input })
	return tasks, nil
}

// OutputBase strips format from the file name and joins it to outputDir.
func OutputBase(outputDir, fileName string, format domain.Format) string {
	base := filepath.Base(fileName)
	return filepath.Join(outputDir, strings.TrimSuffix(base, string(format)))
}

// isRegular follows symlinks, so a linked model file is still picked up.
func isRegular(dir string, e os.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && fi.Mode().IsRegular()
}
