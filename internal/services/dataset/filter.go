package dataset

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/probo/internal/models"
)

// fieldMatcher is one compiled filter criterion.
type fieldMatcher struct {
	field   string
	pattern *regexp.Regexp
}

// compileFilter turns filter criteria into anchored matchers. Patterns
// support "*" as a wildcard for any run of characters; matching is
// case-insensitive against the formatted field value. Criteria are
// combined with AND by matchRecord.
func compileFilter(criteria map[string]string) []fieldMatcher {
	if len(criteria) == 0 {
		return nil
	}

	fields := make([]string, 0, len(criteria))
	for field := range criteria {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	matchers := make([]fieldMatcher, 0, len(fields))
	for _, field := range fields {
		matchers = append(matchers, fieldMatcher{
			field:   field,
			pattern: compilePattern(criteria[field]),
		})
	}
	return matchers
}

// compilePattern converts a wildcard expression into an anchored,
// case-insensitive regular expression.
func compilePattern(expr string) *regexp.Regexp {
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

// matchRecord reports whether the record satisfies every matcher. A record
// missing a filtered field does not match.
func matchRecord(record models.Record, matchers []fieldMatcher) bool {
	for _, m := range matchers {
		value, ok := record.Get(m.field)
		if !ok {
			return false
		}
		if !m.pattern.MatchString(models.FormatValue(value)) {
			return false
		}
	}
	return true
}

// filterRecords returns the records matching all criteria, preserving
// source order. Nil criteria passes everything through unchanged.
func filterRecords(records []models.Record, criteria map[string]string) []models.Record {
	matchers := compileFilter(criteria)
	if matchers == nil {
		return records
	}

	filtered := make([]models.Record, 0, len(records))
	for _, record := range records {
		if matchRecord(record, matchers) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
