package articulation

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cropdoc/internal/store"
	"cropdoc/internal/types"
	"cropdoc/internal/usage"
)

// Palette shared with the rest of the CLI output.
var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#7d8590")
	colorDanger  = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Styles holds the lipgloss styles bound to one output.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Section lipgloss.Style
	badges  map[types.Severity]lipgloss.Style
}

// NewStyles binds styles to w. Color is dropped automatically when w is not a terminal.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	badge := func(c lipgloss.TerminalColor) lipgloss.Style {
		return r.NewStyle().Foreground(c).Bold(true)
	}
	return Styles{
		Title:   r.NewStyle().Foreground(colorAccent).Bold(true),
		Label:   r.NewStyle().Bold(true),
		Body:    r.NewStyle().PaddingLeft(2),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Section: r.NewStyle().Foreground(colorInfo).Bold(true),
		badges: map[types.Severity]lipgloss.Style{
			types.SeverityNone:    badge(colorAccent),
			types.SeverityLow:     badge(colorAccent),
			types.SeverityMedium:  badge(colorWarning),
			types.SeverityHigh:    badge(colorDanger),
			types.SeverityUnknown: badge(colorMuted),
		},
	}
}

// Badge renders a severity label.
func (s Styles) Badge(sev types.Severity) string {
	style, ok := s.badges[sev]
	if !ok {
		style = s.badges[types.SeverityUnknown]
	}
	return style.Render("[" + strings.ToUpper(string(sev)) + "]")
}

// RenderResult writes a diagnostic result, the crops it affects, and the suggested task.
func RenderResult(w io.Writer, result types.DiagnosticResult, affected []string, suggestion string) error {
	s := NewStyles(w)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n", s.Title.Render(result.EntityName), s.Badge(result.Severity),
		s.Muted.Render(fmt.Sprintf("%.0f%% confidence", result.Confidence)))

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(s.Label.Render(label))
		b.WriteString("\n")
		b.WriteString(s.Body.Render(value))
		b.WriteString("\n")
	}
	field("Description", result.Description)
	field("Treatment", result.Treatment)
	field("Prevention", result.Prevention)
	if len(result.Causes) > 0 {
		field("Causes", "- "+strings.Join(result.Causes, "\n- "))
	}
	if len(result.SeasonalActivity) > 0 {
		b.WriteString(s.Label.Render("Seasonal activity"))
		b.WriteString("\n")
		b.WriteString(s.Body.Render(seasonalChart(result.SeasonalActivity)))
		b.WriteString("\n")
	}
	if len(affected) > 0 {
		field("Affects your crops", strings.Join(affected, ", "))
	}
	if suggestion != "" {
		field("Suggested task", suggestion)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// seasonalChart draws one bar per point, scaled to 20 cells at 100%.
func seasonalChart(points []types.SeasonalPoint) string {
	width := 0
	for _, p := range points {
		if len(p.Label) > width {
			width = len(p.Label)
		}
	}
	lines := make([]string, len(points))
	for i, p := range points {
		cells := int(types.ClampPercent(p.Intensity)/5 + 0.5)
		lines[i] = fmt.Sprintf("%-*s %s %.0f%%", width, p.Label, strings.Repeat("█", cells), p.Intensity)
	}
	return strings.Join(lines, "\n")
}

// RenderOwners writes lists or plans with their tasks.
func RenderOwners(w io.Writer, owners []types.Owner) error {
	s := NewStyles(w)
	var b strings.Builder
	if len(owners) == 0 {
		b.WriteString(s.Muted.Render("(none)"))
		b.WriteString("\n")
	}
	for _, o := range owners {
		header := s.Section.Render(o.Title) + " " + s.Muted.Render(o.ID)
		if area := o.Metadata["area"]; area != "" {
			header += " " + s.Muted.Render("("+area+")")
		}
		b.WriteString(header)
		b.WriteString("\n")
		for _, t := range o.Tasks {
			b.WriteString(s.Body.Render("- " + t.Text))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderRecent writes the recent task feed.
func RenderRecent(w io.Writer, feed []store.RecentTask) error {
	s := NewStyles(w)
	var b strings.Builder
	if len(feed) == 0 {
		b.WriteString(s.Muted.Render("(no tasks yet)"))
		b.WriteString("\n")
	}
	for _, r := range feed {
		fmt.Fprintf(&b, "%s %s %s\n",
			s.Muted.Render(r.Task.CreatedAt.Local().Format("2006-01-02 15:04")),
			r.Task.Text,
			s.Muted.Render("→ "+r.OwnerTitle))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderUsage writes classifier token totals broken down by model and kind.
func RenderUsage(w io.Writer, stats usage.AggregatedStats) error {
	s := NewStyles(w)
	var b strings.Builder
	row := func(name string, c usage.TokenCounts) {
		fmt.Fprintf(&b, "  %-24s %6d calls %10d in %10d out\n", name, c.Calls, c.Input, c.Output)
	}

	b.WriteString(s.Title.Render("Classifier usage"))
	b.WriteString("\n")
	row("total", stats.Total)
	for _, section := range []struct {
		title string
		m     map[string]usage.TokenCounts
	}{
		{"By model", stats.ByModel},
		{"By kind", stats.ByKind},
		{"By backend", stats.ByBackend},
	} {
		if len(section.m) == 0 {
			continue
		}
		b.WriteString(s.Section.Render(section.title))
		b.WriteString("\n")
		for _, k := range usage.SortedKeys(section.m) {
			row(k, section.m[k])
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
