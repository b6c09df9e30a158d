package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/services/pipeline"
	"github.com/ternarybob/probo/internal/services/runner"
)

// fieldRule is one compiled pattern criterion.
type fieldRule struct {
	field   string
	expr    string
	pattern *regexp.Regexp
}

// compiledChecks evaluates a suite's declarative rules against records.
// The uniqueness state is shared across every source in the run.
type compiledChecks struct {
	skip     []fieldRule
	required []string
	patterns []fieldRule
	unique   []string

	mu   sync.Mutex
	seen map[string]map[string]bool // Unique field -> value -> observed
}

// CompileChecks turns a suite's check declarations into a test function.
// With no rules declared every record passes, so a bare suite run is a
// load-and-execute smoke pass over its data. Rules are evaluated per
// record in a fixed order: skip criteria, required fields, patterns, then
// uniqueness; the first violation decides the outcome.
func CompileChecks(opts models.CheckOptions) (pipeline.TestFunc, error) {
	c := &compiledChecks{
		seen: make(map[string]map[string]bool),
	}

	for _, field := range opts.Required {
		if strings.TrimSpace(field) == "" {
			return nil, errors.New("required check has an empty field name")
		}
		c.required = append(c.required, field)
	}

	for _, field := range sortedKeys(opts.Patterns) {
		if strings.TrimSpace(field) == "" {
			return nil, errors.New("pattern check has an empty field name")
		}
		expr := opts.Patterns[field]
		c.patterns = append(c.patterns, fieldRule{field: field, expr: expr, pattern: compileGlob(expr)})
	}

	for _, field := range opts.Unique {
		if strings.TrimSpace(field) == "" {
			return nil, errors.New("unique check has an empty field name")
		}
		if _, ok := c.seen[field]; !ok {
			c.unique = append(c.unique, field)
			c.seen[field] = make(map[string]bool)
		}
	}

	for _, field := range sortedKeys(opts.Skip) {
		if strings.TrimSpace(field) == "" {
			return nil, errors.New("skip criterion has an empty field name")
		}
		expr := opts.Skip[field]
		c.skip = append(c.skip, fieldRule{field: field, expr: expr, pattern: compileGlob(expr)})
	}

	return c.check, nil
}

// check applies the compiled rules to one record.
func (c *compiledChecks) check(ctx context.Context, source string, index int, record models.Record) error {
	if len(c.skip) > 0 && c.matchesSkip(record) {
		fields := make([]string, 0, len(c.skip))
		for _, rule := range c.skip {
			fields = append(fields, rule.field)
		}
		return runner.Skipf("matched skip criteria (%s)", strings.Join(fields, ", "))
	}

	for _, field := range c.required {
		value, ok := record.Get(field)
		if !ok {
			return fmt.Errorf("required field %q is missing", field)
		}
		if strings.TrimSpace(models.FormatValue(value)) == "" {
			return fmt.Errorf("required field %q is blank", field)
		}
	}

	for _, rule := range c.patterns {
		value, ok := record.Get(rule.field)
		if !ok {
			return fmt.Errorf("field %q is missing (expected to match %q)", rule.field, rule.expr)
		}
		formatted := models.FormatValue(value)
		if !rule.pattern.MatchString(formatted) {
			return fmt.Errorf("field %q value %q does not match %q", rule.field, formatted, rule.expr)
		}
	}

	if len(c.unique) > 0 {
		if err := c.checkUnique(record); err != nil {
			return err
		}
	}

	return nil
}

// matchesSkip reports whether every skip criterion matches the record.
func (c *compiledChecks) matchesSkip(record models.Record) bool {
	for _, rule := range c.skip {
		value, ok := record.Get(rule.field)
		if !ok {
			return false
		}
		if !rule.pattern.MatchString(models.FormatValue(value)) {
			return false
		}
	}
	return true
}

// checkUnique records each unique-field value and fails on repeats. The
// first record carrying a value wins; under parallel execution which
// duplicate passes is timing-dependent, but the failure count is not.
func (c *compiledChecks) checkUnique(record models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, field := range c.unique {
		value, ok := record.Get(field)
		if !ok {
			return fmt.Errorf("unique field %q is missing", field)
		}
		formatted := models.FormatValue(value)
		if c.seen[field][formatted] {
			return fmt.Errorf("duplicate value %q for unique field %q", formatted, field)
		}
		c.seen[field][formatted] = true
	}
	return nil
}

// compileGlob converts a wildcard expression into an anchored,
// case-insensitive regular expression, "*" matching any run of characters.
func compileGlob(expr string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString(`(?i)^`)
	for i, part := range strings.Split(expr, "*") {
		if i > 0 {
			sb.WriteString(`.*`)
		}
		sb.WriteString(regexp.QuoteMeta(part))
	}
	sb.WriteString(`$`)
	return regexp.MustCompile(sb.String())
}

// sortedKeys returns map keys in sorted order for deterministic rule
// evaluation.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
