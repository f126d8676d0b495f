// Package guidecontent provides the guide reading view component for the TUI.
package guidecontent

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/messages"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/styles"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// View is the guide reading view. Markdown is rendered for the
// terminal; when rendering fails the raw source is shown instead.
type View struct {
	styles        *styles.Styles
	guideService  driving.GuideService
	actionService driving.GuideActionService

	path         string
	raw          string
	lines        []string
	plain        bool
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	status       string
}

// NewView creates a new guide content view.
func NewView(s *styles.Styles, guideService driving.GuideService, actionService driving.GuideActionService) *View {
	return &View{
		styles:        s,
		guideService:  guideService,
		actionService: actionService,
	}
}

// SetGuide sets the guide to read and loads its content.
func (v *View) SetGuide(path string) tea.Cmd {
	v.path = path
	v.raw = ""
	v.lines = nil
	v.plain = false
	v.scrollOffset = 0
	v.err = nil
	v.status = ""
	v.loading = true
	return v.loadContent()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadContent returns a command that fetches and renders the guide.
func (v *View) loadContent() tea.Cmd {
	path := v.path
	width := v.contentWidth()
	return func() tea.Msg {
		if v.guideService == nil {
			return messages.GuideContentLoaded{Path: path, Err: fmt.Errorf("guide service not available")}
		}

		content, err := v.guideService.Content(context.Background(), path)
		if err != nil {
			return messages.GuideContentLoaded{Path: path, Err: err}
		}

		// Rendered stays empty when terminal rendering fails; the
		// view then falls back to the raw source.
		rendered, rerr := renderMarkdown(content, width)
		if rerr != nil {
			rendered = ""
		}

		return messages.GuideContentLoaded{Path: path, Raw: content, Rendered: rendered}
	}
}

// renderMarkdown renders Markdown for the terminal at the given width.
func renderMarkdown(content string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}

// copyContent returns a command that copies the raw source to the
// clipboard.
func (v *View) copyContent() tea.Cmd {
	raw := v.raw
	return func() tea.Msg {
		if v.actionService == nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("action service not available")}
		}

		if err := v.actionService.CopyToClipboard(context.Background(), raw); err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.StatusMessage{Message: "Copied guide source to clipboard"}
	}
}

// Update handles messages for the guide content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		v.rerender()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.GuideContentLoaded:
		if msg.Path != v.path {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.raw = msg.Raw
		v.err = nil
		if msg.Rendered != "" {
			v.plain = false
			v.lines = splitRendered(msg.Rendered)
		} else {
			v.plain = true
			v.lines = wrapPlain(v.raw, v.contentWidth())
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
	case "pgup", "ctrl+u":
		v.scrollOffset -= v.visibleLines()
		if v.scrollOffset < 0 {
			v.scrollOffset = 0
		}
	case "pgdown", "ctrl+d":
		maxOffset := v.maxScrollOffset()
		v.scrollOffset += v.visibleLines()
		if v.scrollOffset > maxOffset {
			v.scrollOffset = maxOffset
		}
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "c":
		if v.raw != "" {
			return v, v.copyContent()
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewGuideDetail}
		}
	}

	return v, nil
}

// rerender recomputes the display lines from the raw source, e.g.
// after a resize.
func (v *View) rerender() {
	if v.raw == "" {
		v.lines = nil
		return
	}

	rendered, err := renderMarkdown(v.raw, v.contentWidth())
	if err != nil {
		v.plain = true
		v.lines = wrapPlain(v.raw, v.contentWidth())
		return
	}
	v.plain = false
	v.lines = splitRendered(rendered)
}

// contentWidth returns the usable width for content.
func (v *View) contentWidth() int {
	// Account for padding
	width := v.width - 4
	if width < 20 {
		width = 20
	}
	return width
}

// splitRendered splits rendered output into lines. Rendered lines are
// already wrapped and may carry escape sequences, so they are never
// re-wrapped.
func splitRendered(rendered string) []string {
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n")
}

// wrapPlain splits plain text into lines wrapped at the given width.
func wrapPlain(content string, width int) []string {
	rawLines := strings.Split(content, "\n")
	lines := make([]string, 0, len(rawLines))

	for _, line := range rawLines {
		if len(line) <= width {
			lines = append(lines, line)
			continue
		}
		for len(line) > width {
			lines = append(lines, line[:width])
			line = line[width:]
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
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
	maxOffset := len(v.lines) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// View renders the guide content view.
func (v *View) View() string {
	var b strings.Builder

	// Title
	title := "Guide"
	if v.path != "" {
		title = v.path
	}
	b.WriteString(v.styles.Title.Render(title))
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

	// Empty content
	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No content)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Fallback notice
	if v.plain {
		b.WriteString(v.styles.Muted.Render("Markdown rendering unavailable; showing source."))
		b.WriteString("\n\n")
	}

	// Content
	visibleLines := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visibleLines; i++ {
		if v.plain {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
		} else {
			// Rendered lines carry their own styling
			b.WriteString(v.lines[i])
		}
		b.WriteString("\n")
	}

	// Scroll position indicator
	if len(v.lines) > visibleLines {
		b.WriteString("\n")
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			minInt(v.scrollOffset+visibleLines, len(v.lines)),
			len(v.lines))))
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
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [c] copy source  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.rerender()
}

// Path returns the current guide path.
func (v *View) Path() string {
	return v.path
}

// Content returns the raw guide source.
func (v *View) Content() string {
	return v.raw
}

// Plain reports whether the view fell back to the raw source.
func (v *View) Plain() bool {
	return v.plain
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
