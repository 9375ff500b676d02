// Package popup is the terminal settings panel: it toggles capture, hides
// the indicator and lists recently captured links.
package popup

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/settings"
)

const (
	// maxRecent caps the captured links listed.
	maxRecent = 50
	// chromeLines is the height of everything but the list.
	chromeLines = 12
)

// FolderLookup reports the managed folder without creating it.
type FolderLookup interface {
	Lookup(ctx context.Context) (model.Node, bool)
}

// ChildLister lists the direct children of a folder.
type ChildLister interface {
	Children(ctx context.Context, folderID string) ([]model.Node, error)
}

// Params holds the popup's collaborators.
type Params struct {
	Settings  settings.Store
	Folders   FolderLookup
	Bookmarks ChildLister
	// Clipboard receives yanked URLs. Defaults to the system clipboard.
	Clipboard func(string) error
}

// Model is the bubbletea model of the popup.
type Model struct {
	ctx    context.Context
	params Params
	keys   KeyMap
	styles Styles

	loaded    bool
	enabled   bool
	collapsed bool
	folder    model.Node
	hasFolder bool
	recent    []model.Node
	cursor    int

	status string
	err    error

	width  int
	height int
}

type stateMsg struct {
	enabled   bool
	collapsed bool
	folder    model.Node
	hasFolder bool
	recent    []model.Node
	err       error
}

type savedMsg struct {
	status string
	err    error
}

// New creates the popup model.
func New(ctx context.Context, params Params) Model {
	if params.Clipboard == nil {
		params.Clipboard = clipboard.WriteAll
	}
	return Model{
		ctx:    ctx,
		params: params,
		keys:   DefaultKeyMap(),
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.load
}

// load reads settings and the managed folder. A folder that cannot be
// listed leaves the recent list empty.
func (m Model) load() tea.Msg {
	var msg stateMsg

	msg.enabled, msg.err = settings.Enabled(m.ctx, m.params.Settings)
	if msg.err != nil {
		return msg
	}
	msg.collapsed, msg.err = settings.SidebarCollapsed(m.ctx, m.params.Settings)
	if msg.err != nil {
		return msg
	}

	msg.folder, msg.hasFolder = m.params.Folders.Lookup(m.ctx)
	if !msg.hasFolder {
		return msg
	}

	children, err := m.params.Bookmarks.Children(m.ctx, msg.folder.ID)
	if err != nil {
		return msg
	}
	for i := len(children) - 1; i >= 0 && len(msg.recent) < maxRecent; i-- {
		if !children[i].IsFolder() {
			msg.recent = append(msg.recent, children[i])
		}
	}
	return msg
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		m.loaded = true
		m.err = msg.err
		m.enabled = msg.enabled
		m.collapsed = msg.collapsed
		m.folder = msg.folder
		m.hasFolder = msg.hasFolder
		m.recent = msg.recent
		if m.cursor >= len(m.recent) {
			m.cursor = max(len(m.recent)-1, 0)
		}
		return m, nil

	case savedMsg:
		m.status = msg.status
		m.err = msg.err
		return m, m.load

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.recent)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load
	}

	// The rest need the current state.
	if !m.loaded {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.setEnabled(!m.enabled)

	case key.Matches(msg, m.keys.Hide):
		return m, m.setCollapsed(!m.collapsed)

	case key.Matches(msg, m.keys.YankURL):
		if len(m.recent) == 0 {
			return m, nil
		}
		url := m.recent[m.cursor].URL
		if err := m.params.Clipboard(url); err != nil {
			m.err = fmt.Errorf("copy url: %w", err)
			return m, nil
		}
		m.err = nil
		m.status = "Copied " + url
		return m, nil
	}

	return m, nil
}

func (m Model) setEnabled(enabled bool) tea.Cmd {
	ctx, store := m.ctx, m.params.Settings
	return func() tea.Msg {
		if err := settings.ApplyEnabled(ctx, store, enabled); err != nil {
			return savedMsg{err: err}
		}
		if enabled {
			return savedMsg{status: "Capture enabled"}
		}
		return savedMsg{status: "Capture disabled"}
	}
}

func (m Model) setCollapsed(collapsed bool) tea.Cmd {
	ctx, store := m.ctx, m.params.Settings
	return func() tea.Msg {
		if err := settings.SetSidebarCollapsed(ctx, store, collapsed); err != nil {
			return savedMsg{err: err}
		}
		if collapsed {
			return savedMsg{status: "Indicator hidden"}
		}
		return savedMsg{status: "Indicator shown"}
	}
}

// Enabled reports the capture flag as last loaded.
func (m Model) Enabled() bool {
	return m.enabled
}

// Collapsed reports whether the indicator is hidden, as last loaded.
func (m Model) Collapsed() bool {
	return m.collapsed
}

// Cursor returns the selected row of the recent list.
func (m Model) Cursor() int {
	return m.cursor
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("autobm"))
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(s.Status.Render("Loading..."))
		return s.App.Render(b.String())
	}

	capture := s.Off.Render("[ ] disabled")
	if m.enabled {
		capture = s.On.Render("[x] enabled")
	}
	b.WriteString(s.Label.Render("Capture    ") + capture + "\n")
	b.WriteString(s.Label.Render("Indicator  ") + m.indicator() + "\n")

	if m.hasFolder {
		b.WriteString(s.Folder.Render("Saving to: " + m.folder.Title))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(m.recent) == 0 {
		b.WriteString(s.Status.Render("No links captured yet"))
		b.WriteString("\n")
	}
	// Two lines per link; zero size means the terminal size is unknown yet.
	textWidth := max(m.width-8, 0)
	visible := len(m.recent)
	if m.height > 0 {
		visible = max((m.height-chromeLines)/2, 1)
	}
	start := viewportOffset(m.cursor, len(m.recent), visible)
	end := min(start+visible, len(m.recent))
	for i := start; i < end; i++ {
		n := m.recent[i]
		style := s.Item
		if i == m.cursor {
			style = s.ItemSelected
		}
		b.WriteString(style.Render(truncate(n.Title, textWidth)))
		b.WriteString("\n")
		b.WriteString(s.URL.Render(truncate(n.URL, textWidth)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(s.Error.Render(m.err.Error()))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(s.Status.Render(m.status))
		b.WriteString("\n")
	}

	var hints []string
	for _, k := range m.keys.hints() {
		h := k.Help()
		hints = append(hints, s.HintKey.Render(h.Key)+" "+s.HintDesc.Render(h.Desc))
	}
	b.WriteString(strings.Join(hints, "  "))

	return s.App.Render(b.String())
}

func (m Model) indicator() string {
	switch {
	case !m.enabled:
		return m.styles.Off.Render("OFF")
	case m.collapsed:
		return m.styles.Off.Render("hidden")
	default:
		return m.styles.On.Render("ON")
	}
}
