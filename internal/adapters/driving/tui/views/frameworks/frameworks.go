// Package frameworks provides the frameworks catalog view for the TUI.
package frameworks

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

// View is the frameworks catalog view. One line per catalogued guide,
// grouped the way the catalog sorts them.
type View struct {
	styles         *styles.Styles
	catalogService driving.CatalogService

	entries      []domain.CatalogEntry
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	scrollOffset int
}

// NewView creates a new frameworks view.
func NewView(s *styles.Styles, catalogService driving.CatalogService) *View {
	return &View{
		styles:         s,
		catalogService: catalogService,
		entries:        []domain.CatalogEntry{},
	}
}

// Init initialises the view and loads the catalog.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadCatalog()
}

// loadCatalog returns a command that builds the catalog.
func (v *View) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		if v.catalogService == nil {
			return messages.CatalogLoaded{Err: fmt.Errorf("catalog service not available")}
		}

		catalog, err := v.catalogService.Catalog(context.Background())
		return messages.CatalogLoaded{Catalog: catalog, Err: err}
	}
}

// Update handles messages for the frameworks view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.CatalogLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.entries = nil
			if msg.Catalog != nil {
				v.entries = msg.Catalog.Entries
			}
			v.err = nil
			if v.selected >= len(v.entries) {
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
		if v.selected < len(v.entries)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.entries) > 0 && v.selected < len(v.entries) {
			entry := v.entries[v.selected]
			return v, func() tea.Msg {
				return messages.GuideSelected{Path: entry.GuidePath}
			}
		}
	case "r":
		v.loading = true
		cmd := v.loadCatalog()
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
	// Reserve lines for title, separator, help, and padding
	reserved := 8
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the frameworks view.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Frameworks (%d guides)", len(v.entries))
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	// Loading state
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Building catalog..."))
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
	if len(v.entries) == 0 {
		b.WriteString(v.styles.Muted.Render("No guides catalogued. Add a source and run a scan."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Catalog list
	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.entries) && i < v.scrollOffset+visibleItems; i++ {
		line := v.renderEntry(i, &v.entries[i])
		b.WriteString(line)
		b.WriteString("\n")
	}

	// Scroll indicator
	if len(v.entries) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.entries)),
			len(v.entries))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderEntry renders a single catalog entry line.
func (v *View) renderEntry(index int, entry *domain.CatalogEntry) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	framework := entry.Framework
	if entry.FrameworkVersion != "" {
		framework += " " + entry.FrameworkVersion
	}
	if len(framework) > 16 {
		framework = framework[:13] + "..."
	}

	title := entry.GuideTitle
	if title == "" {
		title = entry.GuidePath
	}

	// Truncate title if needed
	maxTitleLen := v.width/2 - 20
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen-3] + "..."
	}

	// Truncate path if needed
	path := entry.GuidePath
	maxPathLen := v.width/2 - 4
	if maxPathLen < 10 {
		maxPathLen = 10
	}
	if len(path) > maxPathLen {
		path = "..." + path[len(path)-maxPathLen+3:]
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-16s %-*s  %s", indicator, framework, maxTitleLen, title, path))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-16s ", framework)) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxTitleLen, title)) +
		v.styles.Path.Render(path)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] details  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Entries returns the current catalog entries.
func (v *View) Entries() []domain.CatalogEntry {
	return v.entries
}

// SelectedIndex returns the currently selected entry index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedEntry returns the currently selected entry.
func (v *View) SelectedEntry() *domain.CatalogEntry {
	if v.selected < len(v.entries) {
		return &v.entries[v.selected]
	}
	return nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
