// Package config holds well-known names and the duby.yaml class
// declaration file.
//
// duby.yaml lets a project describe the JVM classes its code calls into,
// so that the compiler can resolve ordinary method calls on them:
//
//	classes:
//	  - name: java.util.ArrayList
//	    methods:
//	      - name: size
//	        returns: int
//	      - name: add
//	        params: [java.lang.Object]
//	        returns: boolean
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level duby.yaml configuration.
type Config struct {
	// Classes are declared in order; a superclass must be known before the
	// classes that extend it.
	Classes []ClassDecl `yaml:"classes"`
}

// ClassDecl declares one JVM class.
type ClassDecl struct {
	// Name is the fully qualified class name (e.g. "java.util.ArrayList").
	Name string `yaml:"name"`

	// Super is the superclass name. Defaults to java.lang.Object.
	Super string `yaml:"super,omitempty"`

	// Methods lists the ordinary methods callable on the class.
	Methods []MethodDecl `yaml:"methods,omitempty"`
}

// MethodDecl declares one method of a class.
type MethodDecl struct {
	Name string `yaml:"name"`

	// Params are type names: primitives, class names or arrays ("int[]").
	Params []string `yaml:"params,omitempty"`

	// Returns is the return type name. Defaults to void.
	Returns string `yaml:"returns,omitempty"`

	Static bool `yaml:"static,omitempty"`
}

// LoadConfig reads and parses a duby.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses duby.yaml content. The filename is used in error messages.
func ParseConfig(data []byte, filename string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &cfg, nil
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, cls := range c.Classes {
		if cls.Name == "" {
			return fmt.Errorf("classes[%d]: name is required", i)
		}
		if strings.HasSuffix(cls.Name, ArraySuffix) {
			return fmt.Errorf("classes[%d]: %s: array types cannot be declared", i, cls.Name)
		}
		if seen[cls.Name] {
			return fmt.Errorf("classes[%d]: duplicate class %s", i, cls.Name)
		}
		seen[cls.Name] = true
		for j, m := range cls.Methods {
			if m.Name == "" {
				return fmt.Errorf("classes[%d].methods[%d]: name is required", i, j)
			}
			for k, p := range m.Params {
				if p == "" {
					return fmt.Errorf("classes[%d].methods[%d].params[%d]: empty type name", i, j, k)
				}
			}
		}
	}
	return nil
}
