package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zigbind/zigbind/build"
	"github.com/zigbind/zigbind/config"
	"github.com/zigbind/zigbind/parser"
	"github.com/zigbind/zigbind/scanner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#F7A41D")).
			Padding(0, 1)

	fragStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	sigStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#F7A41D"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateLoading modelState = iota
	stateBrowse
	stateBuilding
	stateDone
)

type fragView struct {
	label string
	sigs  []string
	err   error
}

type interactiveModel struct {
	root     string
	cfg      *config.Config
	spin     spinner.Model
	frags    []fragView
	selected int
	state    modelState
	result   string
	err      error
}

type scannedMsg struct {
	frags []fragView
	err   error
}

type builtMsg struct {
	res *build.Result
	err error
}

func runInteractive(root string, cfg *config.Config) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := &interactiveModel{root: root, cfg: cfg, spin: sp, state: stateLoading}
	_, err := tea.NewProgram(m).Run()
	return err
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.scan)
}

func (m *interactiveModel) scan() tea.Msg {
	tree, err := scanner.Scan(m.root)
	if err != nil {
		return scannedMsg{err: err}
	}

	var frags []fragView
	for _, f := range tree.Fragments {
		label := fmt.Sprintf("%s:%d", f.File, f.Line)
		if f.External != "" {
			label += " (" + f.External + ")"
		}
		fv := fragView{label: label}
		res, perr := parser.Parse(f.Decls, f.File, f.Line)
		if perr != nil {
			fv.err = perr
		} else {
			for _, s := range res.Signatures {
				fv.sigs = append(fv.sigs, s.String())
			}
			for _, r := range res.Records {
				fv.sigs = append(fv.sigs, "record "+r.Name)
			}
		}
		frags = append(frags, fv)
	}
	return scannedMsg{frags: frags}
}

func (m *interactiveModel) buildAll() tea.Msg {
	res, err := build.Run(m.root, m.cfg)
	return builtMsg{res: res, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.frags)-1 {
				m.selected++
			}
		case "b", "enter":
			if m.state == stateBrowse {
				m.state = stateBuilding
				return m, tea.Batch(m.spin.Tick, m.buildAll)
			}
		}

	case scannedMsg:
		m.frags = msg.frags
		m.err = msg.err
		m.state = stateBrowse
		return m, nil

	case builtMsg:
		m.state = stateDone
		m.err = msg.err
		if msg.err == nil && msg.res != nil {
			if msg.res.Artifact == "" {
				m.result = "nothing to build"
			} else {
				m.result = fmt.Sprintf("%s (%d signatures", msg.res.Artifact, msg.res.Signatures)
				if msg.res.Cached {
					m.result += ", cached"
				}
				m.result += ")"
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("zigbind"))
	b.WriteString("  " + helpStyle.Render(m.root))
	b.WriteString("\n\n")

	switch m.state {
	case stateLoading:
		fmt.Fprintf(&b, "%s scanning...\n", m.spin.View())

	case stateBrowse, stateBuilding, stateDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()) + "\n\n")
		}
		if len(m.frags) == 0 && m.err == nil {
			b.WriteString(helpStyle.Render("no embedded fragments found") + "\n\n")
		}
		for i, f := range m.frags {
			label := fragStyle.Render(f.label)
			if i == m.selected {
				label = selectedStyle.Render(f.label)
			}
			b.WriteString(label + "\n")
			if f.err != nil {
				b.WriteString("  " + errorStyle.Render(f.err.Error()) + "\n")
			}
			for _, s := range f.sigs {
				b.WriteString("  " + sigStyle.Render(s) + "\n")
			}
		}
		b.WriteByte('\n')

		switch m.state {
		case stateBuilding:
			fmt.Fprintf(&b, "%s building...\n", m.spin.View())
		case stateDone:
			if m.err == nil {
				b.WriteString(resultStyle.Render("built: "+m.result) + "\n")
			}
		}
		b.WriteString(helpStyle.Render("↑/↓ select · b build · q quit") + "\n")
	}
	return b.String()
}
