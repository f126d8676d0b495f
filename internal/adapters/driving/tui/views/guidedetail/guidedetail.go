// Package guidedetail provides the guide details view component for the TUI.
package guidedetail

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

// View is the guide details view: metadata, the extends chain, and
// every corpus location linking here.
type View struct {
	styles        *styles.Styles
	guideService  driving.GuideService
	graphService  driving.GraphService
	actionService driving.GuideActionService

	path         string
	details      *driving.GuideDetails
	chain        []string
	backlinks    []domain.Backlink
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	status       string
}

// NewView creates a new guide details view.
func NewView(
	s *styles.Styles,
	guideService driving.GuideService,
	graphService driving.GraphService,
	actionService driving.GuideActionService,
) *View {
	return &View{
		styles:        s,
		guideService:  guideService,
		graphService:  graphService,
		actionService: actionService,
	}
}

// SetGuide sets the guide to display and loads its details.
func (v *View) SetGuide(path string) tea.Cmd {
	v.path = path
	v.details = nil
	v.chain = nil
	v.backlinks = nil
	v.scrollOffset = 0
	v.err = nil
	v.status = ""
	v.loading = true
	return v.loadDetails()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadDetails returns a command that loads details, the extends
// chain, and backlinks for the current guide.
func (v *View) loadDetails() tea.Cmd {
	path := v.path
	return func() tea.Msg {
		if v.guideService == nil {
			return messages.GuideDetailsLoaded{Path: path, Err: fmt.Errorf("guide service not available")}
		}

		ctx := context.Background()
		details, err := v.guideService.Details(ctx, path)
		if err != nil {
			return messages.GuideDetailsLoaded{Path: path, Err: err}
		}

		chain := v.extendsChain(ctx, details.Extends)

		// Best effort; the view renders without backlinks on error.
		var backlinks []domain.Backlink
		if v.graphService != nil {
			backlinks, _ = v.graphService.Backlinks(ctx, path)
		}

		return messages.GuideDetailsLoaded{
			Path:      path,
			Details:   details,
			Chain:     chain,
			Backlinks: backlinks,
		}
	}
}

// extendsChain walks the extends relation upward from the given
// parent path. The walk is capped; cycles are a lint finding.
func (v *View) extendsChain(ctx context.Context, parent string) []string {
	var chain []string
	next := parent
	for next != "" && len(chain) < 8 {
		chain = append(chain, next)
		guide, err := v.guideService.GetByPath(ctx, next)
		if err != nil {
			break
		}
		next = guide.Extends
	}
	return chain
}

// openGuide returns a command that opens the guide in the default
// application.
func (v *View) openGuide() tea.Cmd {
	path := v.path
	return func() tea.Msg {
		if v.guideService == nil || v.actionService == nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("action service not available")}
		}

		ctx := context.Background()
		guide, err := v.guideService.GetByPath(ctx, path)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		if err := v.actionService.OpenGuide(ctx, guide); err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.StatusMessage{Message: fmt.Sprintf("Opened %s", path)}
	}
}

// Update handles messages for the guide details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.GuideDetailsLoaded:
		if msg.Path != v.path {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.details = msg.Details
			v.chain = msg.Chain
			v.backlinks = msg.Backlinks
			v.err = nil
		}
		return v, nil

	case messages.StatusMessage:
		v.status = msg.Message
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
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		maxOffset := v.maxScrollOffset()
		if v.scrollOffset < maxOffset {
			v.scrollOffset++
		}
	case "enter":
		if v.path != "" {
			path := v.path
			return v, func() tea.Msg {
				return messages.ContentRequested{Path: path}
			}
		}
	case "o":
		if v.path != "" {
			return v, v.openGuide()
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewFrameworks}
		}
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, help, and padding
	reserved := 6
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	lines := v.buildContent()
	maxOffset := len(lines) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	if v.details == nil {
		return nil
	}

	var lines []string

	lines = append(lines,
		v.formatField("Path", v.details.Path),
		v.formatField("Title", v.details.Title))

	framework := v.details.Framework
	if v.details.FrameworkVersion != "" {
		framework += " " + v.details.FrameworkVersion
	}
	if framework != "" {
		lines = append(lines, v.formatField("Framework", framework))
	}

	// Extends chain, one ancestor per line
	if len(v.chain) > 0 {
		lines = append(lines, v.formatField("Extends", v.chain[0]))
		indent := strings.Repeat(" ", 13)
		for _, ancestor := range v.chain[1:] {
			lines = append(lines, indent+"└ "+ancestor)
		}
	}

	lines = append(lines,
		v.formatField("Source", fmt.Sprintf("%s (%s)", v.details.SourceName, v.details.SourceType)),
		v.formatField("Sections", fmt.Sprintf("%d", v.details.SectionCount)),
		v.formatField("Links", fmt.Sprintf("%d", v.details.LinkCount)),
		v.formatField("References", fmt.Sprintf("%d", v.details.ReferenceCount)))

	if !v.details.CreatedAt.IsZero() {
		lines = append(lines, v.formatField("Created", v.details.CreatedAt.Format("2006-01-02 15:04:05")))
	}
	if !v.details.UpdatedAt.IsZero() {
		lines = append(lines, v.formatField("Updated", v.details.UpdatedAt.Format("2006-01-02 15:04:05")))
	}

	// Backlinks section
	if len(v.backlinks) > 0 {
		lines = append(lines, "", fmt.Sprintf("Linked from (%d):", len(v.backlinks)))
		for i := range v.backlinks {
			bl := &v.backlinks[i]
			text := bl.Text
			if len(text) > 40 {
				text = text[:37] + "..."
			}
			lines = append(lines, fmt.Sprintf("  %s:%d  %s", bl.FromPath, bl.Line, text))
		}
	}

	return lines
}

// formatField formats a field for display.
func (v *View) formatField(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// View renders the guide details view.
func (v *View) View() string {
	var b strings.Builder

	// Title
	b.WriteString(v.styles.Title.Render("Guide Details"))
	b.WriteString("\n")

	// Separator
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	// Loading state
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading guide..."))
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

	// No details
	if v.details == nil {
		b.WriteString(v.styles.Muted.Render("No guide selected"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Content
	lines := v.buildContent()
	visibleLines := v.visibleLines()
	for i := v.scrollOffset; i < len(lines) && i < v.scrollOffset+visibleLines; i++ {
		line := lines[i]

		// Style based on content
		//nolint:nestif // View rendering requires nested conditional styling
		if strings.HasPrefix(line, "Linked from") {
			b.WriteString(v.styles.Subtitle.Render(line))
		} else if strings.HasPrefix(line, "  ") {
			// Backlink location line
			parts := strings.SplitN(line, "  ", 3)
			if len(parts) == 3 {
				b.WriteString(v.styles.Path.Render("  " + parts[1]))
				b.WriteString(v.styles.Muted.Render("  " + parts[2]))
			} else {
				b.WriteString(v.styles.Muted.Render(line))
			}
		} else if strings.Contains(line, ":") {
			// Field label-value
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				b.WriteString(v.styles.Subtitle.Render(parts[0] + ":"))
				b.WriteString(v.styles.Normal.Render(parts[1]))
			} else {
				b.WriteString(v.styles.Normal.Render(line))
			}
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	// Scroll indicator
	if len(lines) > visibleLines {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1,
			minInt(v.scrollOffset+visibleLines, len(lines)),
			len(lines))))
	}

	// Action feedback
	if v.status != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.status))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [enter] read  [o] open  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Path returns the current guide path.
func (v *View) Path() string {
	return v.path
}

// Details returns the current guide details.
func (v *View) Details() *driving.GuideDetails {
	return v.details
}

// Backlinks returns the loaded backlinks.
func (v *View) Backlinks() []domain.Backlink {
	return v.backlinks
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
