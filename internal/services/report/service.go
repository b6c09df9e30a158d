// Package report writes run reports to disk as JSON, Markdown, HTML, and
// PDF artifacts.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// Service renders and persists run reports.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new report service.
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// WriteReport writes the report in each requested format under opts.Dir and
// returns the paths written. Formats default to JSON. A failure in one
// format does not abort the others; the combined error lists every failure.
func (s *Service) WriteReport(report *models.RunReport, opts models.ReportOptions) ([]string, error) {
	if report == nil {
		return nil, errors.New("report is required")
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{"json"}
	}

	var paths []string
	var errs []error
	for _, format := range formats {
		path := filepath.Join(opts.Dir, report.ID+extensionFor(format))

		var err error
		switch format {
		case "json":
			err = s.WriteJSON(report, path, opts.Pretty)
		case "markdown":
			err = s.writeMarkdown(report, path)
		case "html":
			err = s.writeHTML(report, path)
		case "pdf":
			err = s.writePDF(report, path)
		default:
			err = fmt.Errorf("unsupported report format %q", format)
		}

		if err != nil {
			s.logger.Warn().
				Str("format", format).
				Str("path", path).
				Err(err).
				Msg("Failed to write report artifact")
			errs = append(errs, fmt.Errorf("%s: %w", format, err))
			continue
		}

		paths = append(paths, path)
	}

	if len(paths) > 0 {
		s.logger.Info().
			Str("run_id", report.ID).
			Int("artifacts", len(paths)).
			Msg("Report artifacts written")
	}

	return paths, errors.Join(errs...)
}

// WriteJSON writes the canonical JSON report artifact.
func (s *Service) WriteJSON(report *models.RunReport, path string, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// writeMarkdown writes the report as a Markdown document.
func (s *Service) writeMarkdown(report *models.RunReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(buildMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// writeHTML converts the Markdown rendering to a standalone HTML document.
func (s *Service) writeHTML(report *models.RunReport, path string) error {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(buildMarkdown(report)), &buf); err != nil {
		return fmt.Errorf("failed to convert report to HTML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	page := wrapHTML(report, buf.String())
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// buildMarkdown renders the report summary, environment, and failure list.
func buildMarkdown(report *models.RunReport) string {
	var sb strings.Builder

	title := report.ID
	if report.SuiteName != "" {
		title = report.SuiteName
	}
	fmt.Fprintf(&sb, "# Test Run: %s\n\n", title)

	fmt.Fprintf(&sb, "- **Run ID**: %s\n", report.ID)
	if report.Source != "" {
		fmt.Fprintf(&sb, "- **Source**: %s\n", report.Source)
	}
	fmt.Fprintf(&sb, "- **Created**: %s\n\n", report.CreatedAt.Format(time.RFC3339))

	summary := report.Summary
	if summary == nil {
		sb.WriteString("No execution summary recorded.\n")
		return sb.String()
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Total | Passed | Failed | Skipped | Errored | Duration |\n")
	sb.WriteString("|-------|--------|--------|---------|---------|----------|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d | %s |\n\n",
		summary.Total, summary.Passed, summary.Failed, summary.Skipped, summary.Errored,
		summary.Duration.Round(time.Millisecond))

	if summary.Total > 0 {
		rate := float64(summary.Passed) / float64(summary.Total) * 100
		fmt.Fprintf(&sb, "Pass rate: **%.1f%%**", rate)
		if summary.Stopped {
			sb.WriteString(" (run stopped early)")
		}
		sb.WriteString("\n\n")
	}

	if env := report.Environment; env.Version != "" || env.OS != "" {
		sb.WriteString("## Environment\n\n")
		if env.Version != "" {
			fmt.Fprintf(&sb, "- Version: %s\n", env.Version)
		}
		if env.GoVersion != "" {
			fmt.Fprintf(&sb, "- Go: %s\n", env.GoVersion)
		}
		if env.OS != "" {
			fmt.Fprintf(&sb, "- Platform: %s/%s\n", env.OS, env.Arch)
		}
		if env.Hostname != "" {
			fmt.Fprintf(&sb, "- Host: %s\n", env.Hostname)
		}
		if env.Workers > 0 {
			fmt.Fprintf(&sb, "- Workers: %d\n", env.Workers)
		}
		sb.WriteString("\n")
	}

	failures := failedResults(summary)
	if len(failures) > 0 {
		sb.WriteString("## Failures\n\n")
		sb.WriteString("| Record | Status | Attempts | Message |\n")
		sb.WriteString("|--------|--------|----------|---------|\n")
		for _, result := range failures {
			fmt.Fprintf(&sb, "| %d | %s | %d | %s |\n",
				result.Index, result.Status, result.Attempts, escapeTableCell(result.Message))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// failedResults returns failed and errored results in record order.
func failedResults(summary *models.ExecutionSummary) []models.RecordResult {
	var failures []models.RecordResult
	for _, result := range summary.Results {
		if result.Status == models.StatusFailed || result.Status == models.StatusErrored {
			failures = append(failures, result)
		}
	}
	return failures
}

// escapeTableCell keeps pipe characters and newlines from breaking the
// Markdown table layout.
func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// wrapHTML embeds converted report content in a standalone styled page.
func wrapHTML(report *models.RunReport, content string) string {
	title := report.ID
	if report.SuiteName != "" {
		title = report.SuiteName
	}

	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Test Run: ` + title + `</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
      line-height: 1.6;
      color: #333;
      max-width: 900px;
      margin: 0 auto;
      padding: 20px;
      background-color: #f9f9f9;
    }
    .content {
      background-color: #fff;
      padding: 30px;
      border-radius: 8px;
      box-shadow: 0 1px 3px rgba(0,0,0,0.1);
    }
    h1 { color: #1a1a1a; font-size: 24px; margin-top: 0; border-bottom: 2px solid #eee; padding-bottom: 10px; }
    h2 { color: #2a2a2a; font-size: 20px; margin-top: 24px; }
    table { border-collapse: collapse; width: 100%; margin: 12px 0; }
    th, td { border: 1px solid #ddd; padding: 8px 12px; text-align: left; }
    th { background-color: #f0f0f0; }
    code { background-color: #f4f4f4; padding: 2px 4px; border-radius: 3px; }
  </style>
</head>
<body>
  <div class="content">
` + content + `  </div>
</body>
</html>
`
}

// extensionFor maps a report format to its file extension.
func extensionFor(format string) string {
	switch format {
	case "markdown":
		return ".md"
	case "html":
		return ".html"
	case "pdf":
		return ".pdf"
	default:
		return ".json"
	}
}

// Ensure Service implements ReportService interface
var _ interfaces.ReportService = (*Service)(nil)
