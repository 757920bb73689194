package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Task is one entry of a task collection.
type Task struct {
	Key         string   `yaml:"-" json:"key"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Labels      []string `yaml:"labels" json:"labels,omitempty"`
	Assignees   []int    `yaml:"assignees" json:"assignees,omitempty"`

	// DueDays sets the due date of a new issue relative to its creation.
	// Zero leaves the issue without a due date.
	DueDays int `yaml:"due" json:"due,omitempty"`
}

type taskFile struct {
	Task *Task `yaml:"task"`
}

// LoadCollection reads every *.yml and *.yaml file in dir, in name order.
// Files without a task section are skipped.
func LoadCollection(dir string) ([]Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read task collection: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yml", ".yaml":
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	var tasks []Task
	seen := make(map[string]string)
	for _, name := range names {
		task, ok, err := loadTask(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if other, dup := seen[task.Key]; dup {
			return nil, fmt.Errorf("task %q is defined by both %s and %s", task.Key, other, name)
		}
		seen[task.Key] = name
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func loadTask(path string) (Task, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Task{}, false, fmt.Errorf("failed to read task file: %w", err)
	}

	var file taskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Task{}, false, fmt.Errorf("failed to parse task file %s: %w", path, err)
	}
	if file.Task == nil {
		return Task{}, false, nil
	}

	task := *file.Task
	task.Key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.TrimSpace(task.Title) == "" {
		return Task{}, false, fmt.Errorf("task file %s: title is required", path)
	}
	if task.DueDays < 0 {
		return Task{}, false, fmt.Errorf("task file %s: due must not be negative", path)
	}
	return task, true, nil
}
