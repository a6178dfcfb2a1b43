package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/emoji"
	"github.com/yildizm/ocuprofile/internal/report"
	"github.com/yildizm/ocuprofile/internal/workflow"
)

const (
	msgUnsupportedType = "Tipo de arquivo não suportado. Selecione um arquivo .xlsx ou .xls."
	msgSubmitting      = "Analisando..."
)

// Model is the interactive analysis screen. It drives the workflow only
// through Start and SelectFile from the update loop and runs Await in a
// command.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	flow     *workflow.Workflow
	loadOpts analysis.LoadOptions
	initial  *analysis.Upload

	// state mirrors the workflow through its transition listener
	state       workflow.State
	transitions *transitionQueue

	picker  filepicker.Model
	spinner spinner.Model
	styles  *Styles

	width    int
	height   int
	view     View
	previous View
	quitting bool

	// notice is a validation message shown above the picker
	notice string
	// banner is the message of the last failed analysis
	banner string

	report   *report.Report
	selected int
}

// NewModel creates the TUI model
func NewModel(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	fp := filepicker.New()
	fp.AllowedTypes = allowedTypes(opts.Upload)
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := GetStyles()
	sp.Style = styles.Header

	m := &Model{
		ctx:         ctx,
		cancel:      cancel,
		flow:        opts.Workflow,
		loadOpts:    opts.Upload,
		initial:     opts.Initial,
		state:       workflow.Idle{},
		transitions: &transitionQueue{},
		picker:      fp,
		spinner:     sp,
		styles:      styles,
		view:        ViewPicker,
	}
	if m.flow != nil {
		m.state = m.flow.State()
		m.flow.OnTransition(m.transitions.push)
	}
	return m
}

// syncState applies the transitions reported since the last call
func (m *Model) syncState() {
	for _, s := range m.transitions.drain() {
		m.state = s
	}
}

func allowedTypes(opts analysis.LoadOptions) []string {
	exts := opts.AllowedExtensions
	if len(exts) == 0 {
		exts = analysis.DefaultAllowedExtensions
	}
	// The picker matches suffixes case-sensitively
	types := make([]string, 0, len(exts)*2)
	for _, ext := range exts {
		types = append(types, strings.ToLower(ext), strings.ToUpper(ext))
	}
	return types
}

// Init starts the file picker and, with an initial file, the first submission
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.picker.Init()}
	if m.initial != nil {
		if err := m.flow.SelectFile(m.initial); err != nil {
			m.notice = analysis.UserMessage(err)
		} else {
			cmds = append(cmds, m.submit())
		}
		m.syncState()
	}
	return tea.Batch(cmds...)
}

// Update handles messages and navigation
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.update(msg)
	m.syncState()
	return model, cmd
}

func (m *Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.Height = max(5, msg.Height-12)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case spinner.TickMsg:
		if m.view != ViewSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case analysisDoneMsg:
		return m.handleAnalysisDone(msg)
	}

	// Directory listings
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.handleQuit()
	case "?":
		if m.view != ViewSubmitting && m.view != ViewHelp {
			m.previous = m.view
			m.view = ViewHelp
		}
		return m, nil
	}

	switch m.view {
	case ViewPicker:
		return m.handlePickerKey(msg)
	case ViewResults:
		return m.handleResultsKey(msg)
	case ViewHelp:
		if msg.String() == "esc" {
			m.view = m.previous
		}
	}
	// Keys are ignored while submitting
	return m, nil
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "s" {
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.selectPath(path)
		return m, cmd
	}
	if didSelect, _ := m.picker.DidSelectDisabledFile(msg); didSelect {
		m.notice = msgUnsupportedType
		return m, cmd
	}
	return m, cmd
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		if m.selected > 0 {
			m.selected--
		}
	case "right", "l":
		if m.report != nil && m.selected < len(m.report.Clusters)-1 {
			m.selected++
		}
	case "n", "esc":
		m.view = ViewPicker
	}
	return m, nil
}

// selectPath loads path and makes it the workflow selection
func (m *Model) selectPath(path string) {
	upload, err := analysis.LoadUpload(path, m.loadOpts)
	if err == nil {
		err = m.flow.SelectFile(upload)
	}
	m.syncState()
	if err != nil {
		m.notice = noticeFor(err)
		return
	}
	m.notice = ""
	m.banner = ""
}

// submit starts a submission. Requests made while one is in flight are
// dropped.
func (m *Model) submit() tea.Cmd {
	sub, err := m.flow.Start(m.ctx)
	if err != nil {
		if err != workflow.ErrSubmissionInFlight {
			m.notice = noticeFor(err)
		}
		return nil
	}

	m.notice = ""
	m.banner = ""
	m.view = ViewSubmitting
	return tea.Batch(m.spinner.Tick, awaitCommand(sub))
}

func (m *Model) handleAnalysisDone(msg analysisDoneMsg) (tea.Model, tea.Cmd) {
	switch s := msg.state.(type) {
	case workflow.Succeeded:
		rep, err := report.Build(s.File.Name, s.Result)
		if err != nil {
			m.banner = analysis.MsgProcessingFailed
			m.view = ViewPicker
			return m, nil
		}
		m.report = rep
		m.selected = 0
		m.view = ViewResults
	case workflow.Failed:
		m.banner = s.Message
		m.view = ViewPicker
	}
	return m, nil
}

func (m *Model) handleQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Quit
}

func noticeFor(err error) string {
	if analysis.IsValidationError(err) {
		return analysis.UserMessage(err)
	}
	return err.Error()
}

// View renders the current screen
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var sections []string
	sections = append(sections, m.styles.Title.Render(emoji.GetEmoji("eye")+" Perfis Oculares"))

	if m.banner != "" {
		sections = append(sections, m.styles.Banner.Render(emoji.GetEmoji("error")+" "+m.banner))
	}
	if m.notice != "" {
		sections = append(sections, m.styles.Warning.Render(emoji.GetEmoji("warning")+" "+m.notice))
	}

	switch m.view {
	case ViewPicker:
		sections = append(sections, m.renderPicker())
	case ViewSubmitting:
		sections = append(sections, m.renderSubmitting())
	case ViewResults:
		sections = append(sections, m.renderResults())
	case ViewHelp:
		sections = append(sections, m.renderHelp())
	}

	sections = append(sections, m.styles.Muted.Render(m.footer()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderPicker() string {
	var b strings.Builder
	if s, ok := m.state.(workflow.FileSelected); ok {
		b.WriteString(m.styles.Success.Render(fmt.Sprintf("%s %s (%d bytes)", emoji.GetEmoji("file"), s.File.Name, s.File.Size())))
		b.WriteString("\n")
	} else {
		b.WriteString(m.styles.Muted.Render("Selecione uma planilha com os dados biométricos."))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render(emoji.GetEmoji("folder") + " " + m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	return b.String()
}

func (m *Model) renderSubmitting() string {
	name := ""
	if s, ok := m.state.(workflow.Submitting); ok {
		name = s.File.Name
	}
	return m.styles.Box.Render(fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), msgSubmitting, m.styles.Muted.Render(name)))
}

func (m *Model) renderHelp() string {
	lines := []string{
		m.styles.Header.Render(emoji.GetEmoji("target") + " Seleção de arquivo"),
		"  ↑/↓ ou j/k    mover",
		"  enter         abrir pasta ou selecionar arquivo",
		"  s             enviar para análise",
		"",
		m.styles.Header.Render(emoji.GetEmoji("statistics") + " Resultados"),
		"  ←/→ ou h/l    navegar entre os grupos",
		"  n             escolher outro arquivo",
		"",
		m.styles.Header.Render(emoji.GetEmoji("door") + " Sair"),
		"  q ou ctrl+c",
		"",
		m.styles.Muted.Render("esc para voltar"),
	}
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

func (m *Model) footer() string {
	switch m.view {
	case ViewPicker:
		return "enter selecionar • s analisar • ? ajuda • q sair"
	case ViewSubmitting:
		return "aguarde • q cancelar e sair"
	case ViewResults:
		return "←/→ grupos • n novo arquivo • ? ajuda • q sair"
	default:
		return "esc voltar • q sair"
	}
}

// Run runs the interactive TUI until the user quits
func Run(opts Options) error {
	if opts.Workflow == nil {
		return fmt.Errorf("ui: workflow is required")
	}
	model := NewModel(opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
