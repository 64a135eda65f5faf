package orchestration

import (
	"context"
	"io/fs"
	"path/filepath"

	"evalgo.org/stackpilot/internal/config"
	"evalgo.org/stackpilot/models"
)

// Status builds a read-only snapshot of the stack. Every field is
// derived from backend predicates and the filesystem at call time,
// never from cached flags.
func (o *Orchestrator) Status(ctx context.Context) models.StatusSnapshot {
	snapshot := models.StatusSnapshot{
		Models: make(map[string]models.ModelCategoryStats),
	}

	for _, b := range o.backends {
		spec := b.Spec()
		status := models.ComponentStatus{
			Component: spec.ID,
			Kind:      spec.Kind,
			Installed: b.IsInstalled(ctx),
		}
		if status.Installed && (spec.Kind == models.KindContainer || spec.Daemon) {
			status.Running = b.IsRunning(ctx)
		}
		snapshot.Components = append(snapshot.Components, status)
	}

	for _, category := range config.ModelCategories {
		snapshot.Models[category] = countArtifacts(o.paths.ModelDir(category))
	}

	return snapshot
}

// countArtifacts counts regular files under a model category directory.
// A missing directory counts as empty.
func countArtifacts(dir string) models.ModelCategoryStats {
	var stats models.ModelCategoryStats

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		stats.Count++
		if info, err := d.Info(); err == nil {
			stats.SizeBytes += info.Size()
		}
		return nil
	})

	return stats
}
