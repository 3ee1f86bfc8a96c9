package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type scheduleFile struct {
	Schedules []Entry `yaml:"schedules"`
}

// LoadEntries reads schedule entries from a YAML file of the form:
//
//	schedules:
//	  - id: nightly-drift
//	    cron: "0 6 * * *"
//	    workflow_id: drift-check
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file %s: %w", path, err)
	}

	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file %s: %w", path, err)
	}

	return file.Schedules, nil
}
