package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines an end-to-end API test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Flow contains the requests to execute, in order.
	Flow []FlowStep `yaml:"flow"`
}

// FlowStep is one HTTP request with optional captures and
// expectations.
type FlowStep struct {
	// Request describes the HTTP request to send.
	Request Request `yaml:"request"`

	// Capture stores top-level response fields into scenario
	// variables: the key is the variable name, the value the
	// response field to read.
	Capture map[string]string `yaml:"capture,omitempty"`

	// Expect validates the response. If nil, only transport errors
	// fail the step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Request describes one HTTP request. {{var}} placeholders in path,
// auth and string body values substitute captured variables.
type Request struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`

	// Body is sent as JSON when present.
	Body map[string]any `yaml:"body,omitempty"`

	// Auth is a bearer token for the Authorization header.
	Auth string `yaml:"auth,omitempty"`
}

// ExpectClause specifies the expected response.
type ExpectClause struct {
	// Status is the expected HTTP status code.
	Status int `yaml:"status"`

	// Body is a subset match on the response body: listed fields
	// must be present and equal, extra response fields are ignored.
	Body map[string]any `yaml:"body,omitempty"`

	// Length checks the number of elements in array-valued fields.
	Length map[string]int `yaml:"length,omitempty"`
}

var validMethods = map[string]bool{"GET": true, "POST": true, "OPTIONS": true}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently skipping
// checks.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if !validMethods[step.Request.Method] {
			return fmt.Errorf("flow[%d]: method %q must be one of GET, POST, OPTIONS", i, step.Request.Method)
		}
		if !strings.HasPrefix(step.Request.Path, "/") {
			return fmt.Errorf("flow[%d]: path %q must start with /", i, step.Request.Path)
		}
		for name, field := range step.Capture {
			if name == "" || field == "" {
				return fmt.Errorf("flow[%d]: capture entries need a variable name and a field", i)
			}
		}
		if step.Expect != nil && step.Expect.Status == 0 {
			return fmt.Errorf("flow[%d].expect: status is required", i)
		}
	}
	return nil
}
