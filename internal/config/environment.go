package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvironmentSpec is a conda-style dependency specification plus an
// optional container base image override.
type EnvironmentSpec struct {
	Name      string
	Channels  []string
	Conda     []string
	Pip       []string
	BaseImage string
	Variables map[string]string
}

type condaFile struct {
	Name         string      `yaml:"name"`
	Channels     []string    `yaml:"channels"`
	Dependencies []yaml.Node `yaml:"dependencies"`
}

// LoadEnvironmentSpec reads a conda environment file. name overrides the
// file's own name when non-empty.
func LoadEnvironmentSpec(name, path string) (*EnvironmentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read environment file: %w", err)
	}
	spec, err := ParseEnvironmentSpec(data)
	if err != nil {
		return nil, err
	}
	if name != "" {
		spec.Name = name
	}
	return spec, nil
}

// ParseEnvironmentSpec decodes a conda environment document. Dependencies
// are either plain strings or a {pip: [...]} mapping.
func ParseEnvironmentSpec(data []byte) (*EnvironmentSpec, error) {
	var f condaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse environment file: %w", err)
	}

	spec := &EnvironmentSpec{
		Name:     f.Name,
		Channels: f.Channels,
	}
	for _, dep := range f.Dependencies {
		switch dep.Kind {
		case yaml.ScalarNode:
			spec.Conda = append(spec.Conda, dep.Value)
		case yaml.MappingNode:
			var m map[string][]string
			if err := dep.Decode(&m); err != nil {
				return nil, fmt.Errorf("parse environment dependency at line %d: %w", dep.Line, err)
			}
			spec.Pip = append(spec.Pip, m["pip"]...)
		default:
			return nil, fmt.Errorf("unexpected environment dependency at line %d", dep.Line)
		}
	}
	return spec, nil
}
