package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "refmove.dev/pkg/refmove/internal/model"
)

// writeReport stores a run report as YAML.
func writeReport(path m.Path, report m.RunReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}
