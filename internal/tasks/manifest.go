package tasks

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestLoadErrorTemplateConstant       = "failed to load task manifest: %w"
	manifestParseErrorTemplateConstant      = "failed to parse task manifest: %w"
	manifestPathRequiredMessageConstant     = "task manifest path must be provided"
	manifestEmptyTasksMessageConstant       = "task manifest must define at least one task"
	manifestTaskNameMissingMessageConstant  = "task manifest entry missing task name"
	manifestTaskToolMissingTemplateConstant = "task manifest entry %q missing tool"
	manifestTasksSequenceMessageConstant    = "tasks block must be defined as a sequence of entries"
)

type manifestFile struct {
	Tasks []manifestTaskWrapper `yaml:"tasks"`
}

type manifestTaskWrapper struct {
	Task manifestTaskEntry `yaml:"task"`
}

type manifestTaskEntry struct {
	Name        string   `yaml:"name"`
	Aliases     []string `yaml:"aliases"`
	Description string   `yaml:"description"`
	Tool        string   `yaml:"tool"`
	Arguments   []string `yaml:"arguments"`
}

// LoadManifest reads task definitions from a YAML manifest and validates them.
func LoadManifest(filePath string) ([]Task, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return nil, errors.New(manifestPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(manifestLoadErrorTemplateConstant, readError)
	}

	var parsedManifest manifestFile
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedManifest); unmarshalError != nil {
		return nil, fmt.Errorf(manifestParseErrorTemplateConstant, unmarshalError)
	}

	if sequenceError := ensureTasksSequence(contentBytes); sequenceError != nil {
		return nil, fmt.Errorf(manifestParseErrorTemplateConstant, sequenceError)
	}

	if len(parsedManifest.Tasks) == 0 {
		return nil, errors.New(manifestEmptyTasksMessageConstant)
	}

	loadedTasks := make([]Task, 0, len(parsedManifest.Tasks))
	for entryIndex := range parsedManifest.Tasks {
		entry := parsedManifest.Tasks[entryIndex].Task

		normalizedName := normalizeTaskName(entry.Name)
		if len(normalizedName) == 0 {
			return nil, errors.New(manifestTaskNameMissingMessageConstant)
		}
		if len(strings.TrimSpace(entry.Tool)) == 0 {
			return nil, fmt.Errorf(manifestTaskToolMissingTemplateConstant, normalizedName)
		}

		loadedTasks = append(loadedTasks, Task{
			Name:        normalizedName,
			Aliases:     entry.Aliases,
			Description: strings.TrimSpace(entry.Description),
			Tool:        strings.TrimSpace(entry.Tool),
			Arguments:   entry.Arguments,
			Streaming:   true,
		})
	}

	return loadedTasks, nil
}

func ensureTasksSequence(contentBytes []byte) error {
	var manifestWrapper struct {
		Tasks yaml.Node `yaml:"tasks"`
	}

	if unmarshalError := yaml.Unmarshal(contentBytes, &manifestWrapper); unmarshalError != nil {
		return unmarshalError
	}

	if manifestWrapper.Tasks.Kind == 0 {
		return nil
	}

	switch manifestWrapper.Tasks.Kind {
	case yaml.SequenceNode:
		return nil
	default:
		return errors.New(manifestTasksSequenceMessageConstant)
	}
}
