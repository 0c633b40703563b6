// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package smoke checks a running arxiv-lab server over HTTP: it waits for
// the server to answer, then runs a YAML plan of endpoint checks and prints
// a PASS or FAIL line per check.
package smoke

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"

	"go.yaml.in/yaml/v3"
)

//go:embed default_plan.yaml
var defaultPlan []byte

// Plan is an ordered list of checks.
type Plan struct {
	Checks []Check `yaml:"checks"`
}

// Check is one HTTP GET and the assertions made on its response.
type Check struct {
	Name string `yaml:"name"`

	// Path is appended to the base URL. "{{var}}" is replaced with a value
	// captured by an earlier check.
	Path string `yaml:"path"`

	// Status is the expected status code (default 200).
	Status int `yaml:"status"`

	// JSON requires the body to parse as JSON. Implied by Exists, Equals
	// and Capture.
	JSON bool `yaml:"json"`

	// Exists lists JSONPath expressions that must select a non-empty value.
	Exists []string `yaml:"exists"`

	// Equals maps JSONPath expressions to their expected string form.
	Equals map[string]string `yaml:"equals"`

	// Capture stores JSONPath results as variables for later paths.
	Capture map[string]string `yaml:"capture"`
}

func (c Check) wantStatus() int {
	if c.Status == 0 {
		return http.StatusOK
	}
	return c.Status
}

func (c Check) needsJSON() bool {
	return c.JSON || len(c.Exists) > 0 || len(c.Equals) > 0 || len(c.Capture) > 0
}

// DefaultPlan returns the built-in plan: the paper list, one paper's
// detail, a search, the statistics, and the two 404 cases.
func DefaultPlan() Plan {
	p, err := ParsePlan(defaultPlan)
	if err != nil {
		panic(fmt.Sprintf("smoke: invalid built-in plan: %v", err))
	}
	return p
}

// ParsePlan decodes a YAML plan.
func ParsePlan(data []byte) (Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("parsing smoke plan: %w", err)
	}
	if len(p.Checks) == 0 {
		return Plan{}, fmt.Errorf("parsing smoke plan: no checks")
	}
	for i, c := range p.Checks {
		if c.Path == "" {
			return Plan{}, fmt.Errorf("parsing smoke plan: check %d (%s) has no path", i+1, c.Name)
		}
		if c.Name == "" {
			p.Checks[i].Name = c.Path
		}
	}
	return p, nil
}

// LoadPlan reads a plan file, or returns DefaultPlan when path is empty.
func LoadPlan(path string) (Plan, error) {
	if path == "" {
		return DefaultPlan(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("reading smoke plan: %w", err)
	}
	return ParsePlan(data)
}
