package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one convergence test: a stream of account operations
// and the state both replicas must agree on afterward.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Accounts are the creations, replayed first on both replicas.
	Accounts []AccountStep `yaml:"accounts"`

	// Updates are field changes, replayed in order on one replica and
	// reversed on the other.
	Updates []UpdateStep `yaml:"updates,omitempty"`

	// Removals are replayed last on both replicas.
	Removals []RemovalStep `yaml:"removals,omitempty"`

	// Assertions validate the converged directory.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// AccountStep creates an account with a fixed creation timestamp.
type AccountStep struct {
	Name string `yaml:"name"`
	TS   int64  `yaml:"ts"`
}

// UpdateStep sets one field of an account. Value is the field payload;
// leave it empty for timestamp-only kinds such as lastlogin.
type UpdateStep struct {
	Account string `yaml:"account"`
	Field   string `yaml:"field"`
	TS      int64  `yaml:"ts"`
	Value   string `yaml:"value,omitempty"`
}

// RemovalStep removes an account. TS must match the creation timestamp
// or the removal is dropped, exactly as on a live link.
type RemovalStep struct {
	Account string `yaml:"account"`
	TS      int64  `yaml:"ts"`
}

// Assertion checks one field of the converged directory.
type Assertion struct {
	Account string `yaml:"account"`

	// Field names a built-in ("credentials", "connectclass"), an
	// extension attribute, or the "created" pseudo-field. Empty when
	// Absent is set.
	Field string `yaml:"field,omitempty"`

	// Want is the expected storage-format serialization.
	Want string `yaml:"want,omitempty"`

	// Absent asserts the account does not exist.
	Absent bool `yaml:"absent,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently skipping steps.
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
	if len(s.Accounts) == 0 {
		return fmt.Errorf("accounts list is required and must be non-empty")
	}

	for i, a := range s.Accounts {
		if a.Name == "" {
			return fmt.Errorf("accounts[%d]: name is required", i)
		}
		if a.TS <= 0 {
			return fmt.Errorf("accounts[%d]: ts must be positive", i)
		}
	}

	for i, u := range s.Updates {
		if u.Account == "" {
			return fmt.Errorf("updates[%d]: account is required", i)
		}
		if u.Field == "" {
			return fmt.Errorf("updates[%d]: field is required", i)
		}
		if u.TS <= 0 {
			return fmt.Errorf("updates[%d]: ts must be positive", i)
		}
	}

	for i, r := range s.Removals {
		if r.Account == "" {
			return fmt.Errorf("removals[%d]: account is required", i)
		}
		if r.TS <= 0 {
			return fmt.Errorf("removals[%d]: ts must be positive", i)
		}
	}

	for i, a := range s.Assertions {
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required", i)
		}
		if a.Absent {
			if a.Field != "" || a.Want != "" {
				return fmt.Errorf("assertions[%d]: absent excludes field and want", i)
			}
			continue
		}
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required", i)
		}
	}
	return nil
}
