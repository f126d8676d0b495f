// Package issues provides the lint findings view component for the TUI.
package issues

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/messages"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/styles"
	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// View lists the findings of a lint run over the corpus.
type View struct {
	styles      *styles.Styles
	lintService driving.LintService

	issues       []domain.Issue
	errors       int
	warnings     int
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	probe        bool
	scrollOffset int
}

// NewView creates a new issues view.
func NewView(s *styles.Styles, lintService driving.LintService) *View {
	return &View{
		styles:      s,
		lintService: lintService,
		issues:      []domain.Issue{},
	}
}

// Init initialises the view and runs the linter.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.runLint()
}

// runLint returns a command that lints the corpus.
func (v *View) runLint() tea.Cmd {
	probe := v.probe
	return func() tea.Msg {
		if v.lintService == nil {
			return messages.LintCompleted{Err: fmt.Errorf("lint service not available")}
		}

		list, err := v.lintService.Lint(context.Background(), driving.LintOptions{ProbeURLs: probe})
		if err != nil {
			return messages.LintCompleted{Err: err}
		}

		return messages.LintCompleted{
			Issues:   list.Issues(),
			Errors:   list.Errors(),
			Warnings: list.Warnings(),
		}
	}
}

// Update handles messages for the issues view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.LintCompleted:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.issues = msg.Issues
			v.errors = msg.Errors
			v.warnings = msg.Warnings
			v.err = nil
			if v.selected >= len(v.issues) {
				v.selected = 0
				v.scrollOffset = 0
			}
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.issues)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		// Jump to the offending guide
		if len(v.issues) > 0 && v.selected < len(v.issues) {
			issue := v.issues[v.selected]
			if issue.GuidePath != "" {
				return v, func() tea.Msg {
					return messages.GuideSelected{Path: issue.GuidePath}
				}
			}
		}
	case "r":
		v.loading = true
		cmd := v.runLint()
		return v, cmd
	case "p":
		v.probe = !v.probe
		v.loading = true
		cmd := v.runLint()
		return v, cmd
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, summary, help, and padding
	reserved := 8
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the issues view.
func (v *View) View() string {
	var b strings.Builder

	title := "Issues"
	if v.probe {
		title = "Issues (probing URLs)"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	// Loading state
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Linting corpus..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Error state
	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Clean corpus
	if len(v.issues) == 0 {
		b.WriteString(v.styles.Success.Render("No issues found."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Summary
	summary := fmt.Sprintf("%d errors, %d warnings", v.errors, v.warnings)
	b.WriteString(v.styles.Muted.Render(summary))
	b.WriteString("\n\n")

	// Issues list
	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.issues) && i < v.scrollOffset+visibleItems; i++ {
		line := v.renderIssue(i, &v.issues[i])
		b.WriteString(line)
		b.WriteString("\n")
	}

	// Scroll indicator
	if len(v.issues) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.issues)),
			len(v.issues))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderIssue renders a single finding line.
func (v *View) renderIssue(index int, issue *domain.Issue) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	severity := fmt.Sprintf("%-7s", issue.Severity)

	text := issue.Error()
	maxTextLen := v.width - 14
	if maxTextLen < 20 {
		maxTextLen = 20
	}
	if len(text) > maxTextLen {
		text = text[:maxTextLen-3] + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s  %s", indicator, severity, text))
	}

	severityStyle := v.styles.Warning
	if issue.Severity == domain.SeverityError {
		severityStyle = v.styles.Error
	}

	return v.styles.Normal.Render(indicator) +
		severityStyle.Render(severity) +
		v.styles.Normal.Render("  "+text)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] guide  [r] relint  [p] toggle url probe  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Issues returns the current findings.
func (v *View) Issues() []domain.Issue {
	return v.issues
}

// SelectedIndex returns the currently selected issue index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Probing reports whether URL probing is enabled.
func (v *View) Probing() bool {
	return v.probe
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
