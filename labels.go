package vistrack

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line, blank lines are skipped.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels []string

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// datasetYAML is the part of an Ultralytics dataset file holding the class
// names, either as a list or as a map of class index to name
type datasetYAML struct {
	Names yaml.Node `yaml:"names"`
}

// LoadLabelsYAML reads the labels from the names key of a dataset YAML file
func LoadLabelsYAML(file string) ([]string, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	var ds datasetYAML

	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("error parsing yaml: %w", err)
	}

	switch ds.Names.Kind {

	case yaml.SequenceNode:
		var labels []string

		if err := ds.Names.Decode(&labels); err != nil {
			return nil, fmt.Errorf("error decoding names list: %w", err)
		}

		return labels, nil

	case yaml.MappingNode:
		var byIndex map[int]string

		if err := ds.Names.Decode(&byIndex); err != nil {
			return nil, fmt.Errorf("error decoding names map: %w", err)
		}

		ids := make([]int, 0, len(byIndex))
		for id := range byIndex {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		labels := make([]string, len(ids))

		for i, id := range ids {
			if id != i {
				return nil, fmt.Errorf("names map is missing class index %d", i)
			}
			labels[i] = byIndex[id]
		}

		return labels, nil

	case 0:
		return nil, fmt.Errorf("no names key in %s", file)

	default:
		return nil, fmt.Errorf("names must be a list or map in %s", file)
	}
}

// LoadLabelsFile loads labels from a .yaml or .yml dataset file, or a text
// file with one label per line for any other extension
func LoadLabelsFile(file string) ([]string, error) {

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return LoadLabelsYAML(file)
	default:
		return LoadLabels(file)
	}
}
