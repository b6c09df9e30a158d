package models

// CheckOptions declares the per-record validations a suite run applies.
// Rules are evaluated in order: skip criteria first, then required fields,
// then patterns, then uniqueness. The first violated rule decides the
// record's outcome.
type CheckOptions struct {
	Required []string          `json:"required,omitempty" toml:"required" yaml:"required"` // Fields that must be present with a non-blank value
	Patterns map[string]string `json:"patterns,omitempty" toml:"patterns" yaml:"patterns"` // Field value must match the wildcard pattern, case-insensitive
	Unique   []string          `json:"unique,omitempty" toml:"unique" yaml:"unique"`       // Field values must not repeat across the run
	Skip     map[string]string `json:"skip,omitempty" toml:"skip" yaml:"skip"`             // Records matching every criterion are skipped, not judged
}

// IsZero reports whether no checks are declared.
func (c CheckOptions) IsZero() bool {
	return len(c.Required) == 0 && len(c.Patterns) == 0 && len(c.Unique) == 0 && len(c.Skip) == 0
}
