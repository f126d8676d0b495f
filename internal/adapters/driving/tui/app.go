package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/messages"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/styles"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/views/frameworks"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/views/guidecontent"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/views/guidedetail"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/views/issues"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/views/menu"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/views/search"
	"github.com/welshwandering/doctrine/internal/adapters/driving/tui/views/sources"
	"github.com/welshwandering/doctrine/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// searchView is the styled search view component.
	searchView *search.View

	// frameworksView is the frameworks catalog view component.
	frameworksView *frameworks.View

	// guideDetailView is the guide details view component.
	guideDetailView *guidedetail.View

	// guideContentView is the guide reading view component.
	guideContentView *guidecontent.View

	// issuesView is the lint findings view component.
	issuesView *issues.View

	// sourcesView is the sources management view component.
	sourcesView *sources.View

	// selectedPath tracks the guide being viewed for navigation.
	selectedPath string

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	menuView := menu.NewView(s)
	searchView := search.NewView(s, nil, ports.Search, ports.Guide, ports.Actions)
	frameworksView := frameworks.NewView(s, ports.Catalog)
	guideDetailView := guidedetail.NewView(s, ports.Guide, ports.Graph, ports.Actions)
	guideContentView := guidecontent.NewView(s, ports.Guide, ports.Actions)
	issuesView := issues.NewView(s, ports.Lint)
	sourcesView := sources.NewView(s, ports.Source, ports.Scan)

	return &App{
		ports:            ports,
		ctx:              context.Background(),
		styles:           s,
		menuView:         menuView,
		searchView:       searchView,
		frameworksView:   frameworksView,
		guideDetailView:  guideDetailView,
		guideContentView: guideContentView,
		issuesView:       issuesView,
		sourcesView:      sourcesView,
		currentView:      messages.ViewMenu, // Start with menu
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("doctrine - Style Guide Corpus"),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Forward to all views for proper sizing
		a.menuView.SetDimensions(msg.Width, msg.Height)
		a.searchView.SetDimensions(msg.Width, msg.Height)
		a.frameworksView.SetDimensions(msg.Width, msg.Height)
		a.guideDetailView.SetDimensions(msg.Width, msg.Height)
		a.guideContentView.SetDimensions(msg.Width, msg.Height)
		a.issuesView.SetDimensions(msg.Width, msg.Height)
		a.sourcesView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Forward key messages to active view
		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
			return a, cmd

		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
			return a, cmd

		case messages.ViewFrameworks:
			a.frameworksView, cmd = a.frameworksView.Update(msg)
			return a, cmd

		case messages.ViewGuideDetail:
			a.guideDetailView, cmd = a.guideDetailView.Update(msg)
			return a, cmd

		case messages.ViewGuideContent:
			a.guideContentView, cmd = a.guideContentView.Update(msg)
			return a, cmd

		case messages.ViewIssues:
			a.issuesView, cmd = a.issuesView.Update(msg)
			return a, cmd

		case messages.ViewSources:
			a.sourcesView, cmd = a.sourcesView.Update(msg)
			return a, cmd

		case messages.ViewHelp:
			// Esc from help goes to menu
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
				return a, nil
			}
			return a, nil
		}
		return a, nil

	case messages.SearchCompleted:
		a.err = msg.Err
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		// Initialise views when switching to them
		switch msg.View {
		case messages.ViewSearch:
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewFrameworks:
			return a, a.frameworksView.Init()
		case messages.ViewIssues:
			return a, a.issuesView.Init()
		case messages.ViewSources:
			return a, a.sourcesView.Init()
		case messages.ViewMenu, messages.ViewHelp,
			messages.ViewGuideDetail, messages.ViewGuideContent:
			// Other views don't need special initialisation
		}
		return a, nil

	case messages.GuideSelected:
		// Navigate to guide details from any listing
		a.selectedPath = msg.Path
		a.currentView = messages.ViewGuideDetail
		return a, a.guideDetailView.SetGuide(msg.Path)

	case messages.ContentRequested:
		// Navigate from details to the reading view
		a.selectedPath = msg.Path
		a.currentView = messages.ViewGuideContent
		return a, a.guideContentView.SetGuide(msg.Path)

	case messages.CatalogLoaded:
		a.frameworksView, cmd = a.frameworksView.Update(msg)
		return a, cmd

	case messages.GuideDetailsLoaded:
		a.guideDetailView, cmd = a.guideDetailView.Update(msg)
		return a, cmd

	case messages.GuideContentLoaded:
		a.guideContentView, cmd = a.guideContentView.Update(msg)
		return a, cmd

	case messages.LintCompleted:
		a.issuesView, cmd = a.issuesView.Update(msg)
		return a, cmd

	case messages.SourcesLoaded, messages.SourceRemoved, messages.ScanCompleted:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		// Forward to current view
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewFrameworks:
			a.frameworksView, cmd = a.frameworksView.Update(msg)
		case messages.ViewGuideDetail:
			a.guideDetailView, cmd = a.guideDetailView.Update(msg)
		case messages.ViewGuideContent:
			a.guideContentView, cmd = a.guideContentView.Update(msg)
		case messages.ViewIssues:
			a.issuesView, cmd = a.issuesView.Update(msg)
		case messages.ViewSources:
			a.sourcesView, cmd = a.sourcesView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
			// Menu and help don't display errors
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewFrameworks:
		a.frameworksView, cmd = a.frameworksView.Update(msg)
	case messages.ViewGuideDetail:
		a.guideDetailView, cmd = a.guideDetailView.Update(msg)
	case messages.ViewGuideContent:
		a.guideContentView, cmd = a.guideContentView.Update(msg)
	case messages.ViewIssues:
		a.issuesView, cmd = a.issuesView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewFrameworks:
		return a.frameworksView.View()
	case messages.ViewGuideDetail:
		return a.guideDetailView.View()
	case messages.ViewGuideContent:
		return a.guideContentView.View()
	case messages.ViewIssues:
		return a.issuesView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Search:
  (type)      Enter search query
  enter       Submit search
  n           New search from results
  enter       Actions on a result

Frameworks:
  j/k, ↑/↓    Navigate catalog
  enter       Guide details
  r           Reload catalog

Guide:
  enter       Read guide
  o           Open in default application
  c           Copy source (reading view)

Issues:
  r           Re-run lint
  p           Toggle URL probing
  enter       Jump to guide

Sources:
  enter/s     Scan source
  d           Delete source

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.searchView.SelectedIndex()
}

// SelectedPath returns the guide path being viewed.
func (a *App) SelectedPath() string {
	return a.selectedPath
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	// Forward to all views as the WindowSizeMsg handler does, so they
	// render properly.
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.frameworksView.SetDimensions(width, height)
	a.guideDetailView.SetDimensions(width, height)
	a.guideContentView.SetDimensions(width, height)
	a.issuesView.SetDimensions(width, height)
	a.sourcesView.SetDimensions(width, height)
}
