package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	CatalogView
	ConfirmView
	MigrateView
	ResultView
)

const recentLines = 6

// Options names the paths and destination used by the migration.
type Options struct {
	ListPath    string
	OutputDir   string
	Destination string // Shown in the confirm prompt
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       *tasks.Engine
	opts         Options
	width        int
	height       int
	catalogList  list.Model
	catalog      models.Catalog
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan migrateResult
	progress     tasks.ProgressUpdate
	recent       []tasks.ProgressUpdate
	result       *migrateResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.Engine, opts Options) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    LoadingView,
		engine:  engine,
		opts:    opts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Err returns the error that ended the session, if any.
func (m *Model) Err() error {
	if m.err != nil {
		return m.err
	}
	if m.result != nil {
		return m.result.err
	}
	return nil
}

// Init starts the spinner and fetches the source catalog.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCatalog())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.catalog != nil {
			m.catalogList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = min(max(msg.Width-8, 10), 80)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && m.view != CatalogView {
			m.cancel()
			return m, tea.Quit
		}
		switch m.view {
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case LoadingView, ResultView:
			if m.err != nil {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != LoadingView && m.view != MigrateView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogFetched:
		data := msg.data.(catalogFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.catalog = data.catalog
		m.catalogList = list.New(catalogItems(data.catalog), list.NewDefaultDelegate(), 0, 0)
		m.catalogList.Title = fmt.Sprintf("Custom emoji (%d)", len(data.catalog))
		m.catalogList.SetSize(m.width-4, m.height-8)
		m.view = CatalogView
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		if update.Completed {
			m.recent = append(m.recent, update)
			if len(m.recent) > recentLines {
				m.recent = m.recent[len(m.recent)-recentLines:]
			}
		}
		return m, m.waitForProgress()

	case MsgMigrateComplete:
		res := msg.data.(migrateResult)
		m.result = &res
		m.progressChan = nil
		m.done = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + styles.help.Render("Press any key to quit")
	}

	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Fetching custom emoji...", m.spinner.View())
	case CatalogView:
		return m.renderCatalog()
	case ConfirmView:
		return m.renderConfirm()
	case MigrateView:
		return m.renderMigrate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.catalogList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if len(m.catalog) > 0 {
				m.view = ConfirmView
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.catalogList, cmd = m.catalogList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no, m.keys.back):
		m.view = CatalogView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = MigrateView
		return m, tea.Batch(m.spinner.Tick, m.startMigration())
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != CatalogView {
		return m, nil
	}
	var cmd tea.Cmd
	m.catalogList, cmd = m.catalogList.Update(msg)
	return m, cmd
}

func (m *Model) fetchCatalog() tea.Cmd {
	return func() tea.Msg {
		catalog, err := m.engine.List(m.ctx, m.opts.ListPath, nil)
		return catalogFetchedMsg(catalog, err)
	}
}

// startMigration runs download then upload in the background, streaming progress.
func (m *Model) startMigration() tea.Cmd {
	prog := make(chan tasks.ProgressUpdate, 50)
	done := make(chan migrateResult, 1)
	m.progressChan, m.done = prog, done

	go func() {
		var res migrateResult
		res.download, res.err = m.engine.Download(m.ctx, m.opts.ListPath, m.opts.OutputDir, prog)
		if res.err == nil {
			res.upload, res.err = m.engine.Upload(m.ctx, m.opts.OutputDir, prog)
		}
		done <- res
		close(prog)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	prog, done := m.progressChan, m.done
	return func() tea.Msg {
		if prog == nil {
			return nil
		}
		update, ok := <-prog
		if !ok {
			return migrateCompleteMsg(<-done)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderCatalog() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.catalogList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	dest := m.opts.Destination
	if dest == "" {
		dest = "the destination workspace"
	}
	title := styles.title.Render(fmt.Sprintf("Migrate %d emoji to %s?", len(m.catalog), dest))
	info := fmt.Sprintf("\nImages: %s\nList: %s\n", m.opts.OutputDir, m.opts.ListPath)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderMigrate() string {
	title := styles.title.Render("Migrating emoji")

	var phase string
	switch m.progress.Phase {
	case tasks.ListCatalog:
		phase = "Fetching emoji list"
	case tasks.DownloadAssets:
		phase = fmt.Sprintf("Downloading (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.UploadAssets:
		phase = fmt.Sprintf("Uploading (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	percent := 0.0
	if m.progress.Total > 0 {
		percent = float64(m.progress.Step) / float64(m.progress.Total)
	}

	var lines []string
	for _, u := range m.recent {
		lines = append(lines, styles.Status(u.Failed, fmt.Sprintf("%s %s", u.Phase, u.Name)))
	}

	return fmt.Sprintf("%s\n%s %s\n%s\n\n%s\n\n%s",
		title,
		m.spinner.View(), phase,
		m.bar.ViewAs(percent),
		strings.Join(lines, "\n"),
		m.help.ShortHelpView([]key.Binding{m.keys.quit}),
	)
}

func (m *Model) renderResult() string {
	res := m.result
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	var b strings.Builder
	if res.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Migration failed: %v", res.err)))
	} else {
		b.WriteString(styles.ok.Render("✓ Migration complete!"))
	}
	b.WriteString("\n")

	if d := res.download; d != nil {
		fmt.Fprintf(&b, "\nDownloaded: %d/%d", d.Succeeded(), d.Total)
	}
	if u := res.upload; u != nil {
		fmt.Fprintf(&b, "\nUploaded: %d, failed: %d", u.Succeeded, u.Failed)

		if u.Failed > 0 {
			b.WriteString("\n\n")
			b.WriteString(styles.warn.Render(fmt.Sprintf("Failed to upload %d emoji:", u.Failed)))
			for _, o := range u.Outcomes {
				if o.State != tasks.Success {
					fmt.Fprintf(&b, "\n  • %s: %v", o.Name, o.Err)
				}
			}
		}
	}

	return fmt.Sprintf("%s\n\n%s", b.String(), helpView)
}
