// Package sources provides the sources management view for the TUI.
package sources

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

// View is the sources management view.
type View struct {
	styles           *styles.Styles
	sourceService    driving.SourceService
	scanOrchestrator driving.ScanOrchestrator

	sources  []domain.Source
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
	scanning bool
	status   string
}

// NewView creates a new sources view.
func NewView(
	s *styles.Styles,
	sourceService driving.SourceService,
	scanOrchestrator driving.ScanOrchestrator,
) *View {
	return &View{
		styles:           s,
		sourceService:    sourceService,
		scanOrchestrator: scanOrchestrator,
		sources:          []domain.Source{},
	}
}

// Init initialises the view and loads sources.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadSources()
}

// loadSources returns a command that loads sources from the service.
func (v *View) loadSources() tea.Cmd {
	return func() tea.Msg {
		if v.sourceService == nil {
			return messages.SourcesLoaded{Err: fmt.Errorf("source service not available")}
		}

		sources, err := v.sourceService.List(context.Background())
		return messages.SourcesLoaded{Sources: sources, Err: err}
	}
}

// scanSource returns a command that scans a source.
func (v *View) scanSource(id string) tea.Cmd {
	return func() tea.Msg {
		if v.scanOrchestrator == nil {
			return messages.ScanCompleted{SourceID: id, Err: fmt.Errorf("scan orchestrator not available")}
		}

		err := v.scanOrchestrator.Scan(context.Background(), id)
		return messages.ScanCompleted{SourceID: id, Err: err}
	}
}

// removeSource returns a command that removes a source.
func (v *View) removeSource(id string) tea.Cmd {
	return func() tea.Msg {
		if v.sourceService == nil {
			return messages.SourceRemoved{ID: id, Err: fmt.Errorf("source service not available")}
		}

		err := v.sourceService.Remove(context.Background(), id)
		return messages.SourceRemoved{ID: id, Err: err}
	}
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SourcesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.sources = msg.Sources
			v.err = nil
			if v.selected >= len(v.sources) {
				v.selected = 0
			}
		}
		return v, nil

	case messages.ScanCompleted:
		v.scanning = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.err = nil
			v.status = fmt.Sprintf("Scanned %s", v.sourceName(msg.SourceID))
		}
		return v, nil

	case messages.SourceRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		// Reload sources after removal
		cmd := v.loadSources()
		return v, cmd

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
		}
	case "down", "j":
		if v.selected < len(v.sources)-1 {
			v.selected++
		}
	case "enter", "s":
		// Scan selected source
		if len(v.sources) > 0 && v.selected < len(v.sources) && !v.scanning {
			v.scanning = true
			v.status = ""
			cmd := v.scanSource(v.sources[v.selected].ID)
			return v, cmd
		}
	case "d", "delete", "backspace":
		// Delete selected source
		if len(v.sources) > 0 && v.selected < len(v.sources) {
			cmd := v.removeSource(v.sources[v.selected].ID)
			return v, cmd
		}
	case "r":
		// Reload sources
		v.loading = true
		v.status = ""
		cmd := v.loadSources()
		return v, cmd
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// sourceName returns the display name for a source ID.
func (v *View) sourceName(id string) string {
	for i := range v.sources {
		if v.sources[i].ID == id {
			if v.sources[i].Name != "" {
				return v.sources[i].Name
			}
			return v.sources[i].ID
		}
	}
	return id
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	// Title
	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n\n")

	// Loading state
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.scanning {
		b.WriteString(v.styles.Muted.Render("Scanning..."))
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

	// Empty state
	if len(v.sources) == 0 {
		b.WriteString(v.styles.Muted.Render("No sources configured. Run 'doctrine source add' first."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Sources list
	for i := range v.sources {
		line := v.renderSource(i, &v.sources[i])
		b.WriteString(line)
		b.WriteString("\n")
	}

	// Scan feedback
	if v.status != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.status))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderSource renders a single source line.
func (v *View) renderSource(index int, source *domain.Source) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	// Format: > [type] name  location
	typeStr := fmt.Sprintf("[%s]", source.ConnectorType)
	name := source.Name
	if name == "" {
		name = source.ID
	}

	location := sourceLocation(source)

	// Truncate name if needed
	maxNameLen := v.width/2 - 14
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-12s %-*s  %s", indicator, typeStr, maxNameLen, name, location))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-12s ", typeStr)) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxNameLen, name)) +
		v.styles.Muted.Render(location)
}

// sourceLocation summarises where a source points.
func sourceLocation(source *domain.Source) string {
	switch source.ConnectorType {
	case domain.ConnectorFilesystem:
		return source.ConfigValue(domain.ConfigKeyPath)
	case domain.ConnectorGitHub:
		owner := source.ConfigValue(domain.ConfigKeyOwner)
		repo := source.ConfigValue(domain.ConfigKeyRepo)
		if owner == "" && repo == "" {
			return ""
		}
		return owner + "/" + repo
	}
	return ""
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter/s] scan  [d] delete  [r] reload  [esc] back  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Sources returns the current list of sources.
func (v *View) Sources() []domain.Source {
	return v.sources
}

// SelectedIndex returns the currently selected source index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Scanning reports whether a scan is running.
func (v *View) Scanning() bool {
	return v.scanning
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
