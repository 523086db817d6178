package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/model"
	"github.com/san-kum/ltilab/internal/response"
	"github.com/san-kum/ltilab/internal/viz"
)

// Evaluator is satisfied by *service.Service.
type Evaluator interface {
	Evaluate(ctx context.Context, cfg config.Config) (*response.Report, error)
}

type tab int

const (
	tabPlant tab = iota
	tabClosedLoop
)

func (t tab) String() string {
	if t == tabClosedLoop {
		return "closed loop"
	}
	return "plant"
}

type view int

const (
	viewResponse view = iota
	viewBode
	viewPoles
	viewNotes
	numViews
)

var viewNames = [...]string{"response", "bode", "poles", "notes"}

// sliderSteps is the number of left/right presses across a full range.
const sliderSteps = 50

type evalMsg struct {
	seq    int
	report *response.Report
	err    error
}

type explorer struct {
	ctx  context.Context
	eval Evaluator

	plant      config.Config
	tab        tab
	view       view
	theme      viz.Theme
	cursor     int
	editing    bool
	editBuf    string
	seq        int
	report     *response.Report
	err        error
	evaluating bool

	width, height int
}

// NewExplorer starts from cfg. The plant tab shows the plant alone and the
// closed-loop tab wraps it in the configured controller; both share the same
// plant parameters.
func NewExplorer(ctx context.Context, eval Evaluator, cfg config.Config) *explorer {
	m := &explorer{
		ctx:    ctx,
		eval:   eval,
		plant:  cfg,
		theme:  viz.ThemeScope,
		width:  100,
		height: 30,

		evaluating: true,
	}
	if cfg.Controller.Enabled {
		m.tab = tabClosedLoop
	}
	if m.plant.Controller.Type == "" {
		m.plant.Controller.Type = model.P.String()
	}
	return m
}

// Config is the config evaluated for the active tab.
func (m explorer) Config() config.Config {
	c := m.plant
	c.Controller.Enabled = m.tab == tabClosedLoop
	return c
}

// Fields lists the adjustable parameters for the active tab.
func (m explorer) Fields() []string {
	c := m.Config()
	var fields []string
	if params, err := c.Params(); err == nil {
		switch params.Plant.Kind {
		case model.FirstOrder, model.FirstOrderIntegrator:
			fields = append(fields, "k", "t")
		case model.SecondOrder:
			fields = append(fields, "k", "zeta", "wn")
		case model.Arbitrary:
			fields = append(fields, "a", "b", "c", "d", "e")
		}
	}
	if m.tab == tabClosedLoop {
		switch c.Controller.Type {
		case "p":
			fields = append(fields, "kp")
		case "pd":
			fields = append(fields, "kp", "kd")
		default:
			fields = append(fields, "kp", "kd", "ki")
		}
	}
	if c.Input.Type == "sine" {
		fields = append(fields, "frequency")
	}
	return append(fields, "start", "end", "resolution_ms")
}

func (m explorer) Init() tea.Cmd { return m.request() }

// evaluate supersedes any evaluation in flight.
func (m *explorer) evaluate() tea.Cmd {
	m.seq++
	m.evaluating = true
	return m.request()
}

func (m explorer) request() tea.Cmd {
	seq, cfg, ctx, eval := m.seq, m.Config(), m.ctx, m.eval
	return func() tea.Msg {
		r, err := eval.Evaluate(ctx, cfg)
		return evalMsg{seq: seq, report: r, err: err}
	}
}

func (m explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case evalMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.evaluating = false
		m.report, m.err = msg.report, msg.err
	}
	return m, nil
}

func (m explorer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.editKey(msg)
	}

	fields := m.Fields()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(fields)-1 {
			m.cursor++
		}
		return m, nil
	case "v":
		m.view = (m.view + 1) % numViews
		return m, nil
	case "t":
		m.theme = viz.NextTheme(m.theme)
		return m, nil
	case "enter":
		m.editing = true
		v, _ := m.plant.Get(fields[m.cursor])
		m.editBuf = strconv.FormatFloat(v, 'g', -1, 64)
		return m, nil
	case "left", "h":
		m.nudge(fields[m.cursor], -1)
	case "right", "l":
		m.nudge(fields[m.cursor], 1)
	case "tab":
		m.tab = 1 - m.tab
	case "p":
		m.plant.Plant.Type = next(plantNames(), m.plant.Plant.Type)
	case "c":
		m.plant.Controller.Type = next(controllerNames(), m.plant.Controller.Type)
		m.tab = tabClosedLoop
	case "i":
		if m.plant.Input.Type == "sine" {
			m.plant.Input.Type = "step"
		} else {
			m.plant.Input.Type = "sine"
		}
	case "r":
		m.plant = *config.DefaultConfig()
		m.tab = tabPlant
	default:
		return m, nil
	}

	if n := len(m.Fields()); m.cursor >= n {
		m.cursor = n - 1
	}
	cmd := m.evaluate()
	return m, cmd
}

func (m explorer) editKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		v, err := strconv.ParseFloat(m.editBuf, 64)
		m.editBuf = ""
		if err != nil {
			return m, nil
		}
		m.set(m.Fields()[m.cursor], v)
		cmd := m.evaluate()
		return m, cmd
	case "esc":
		m.editing = false
		m.editBuf = ""
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		if s := msg.String(); len(s) == 1 {
			c := s[0]
			if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
				m.editBuf += s
			}
		}
	}
	return m, nil
}

// nudge moves a field one slider step, staying inside its range.
func (m *explorer) nudge(name string, dir float64) {
	v, _ := m.plant.Get(name)
	step := 0.1
	if r, ok := config.Ranges[name]; ok {
		step = (r.Max - r.Min) / sliderSteps
		if r.Integer {
			step = 1
		}
	}
	m.set(name, v+dir*step)
}

func (m *explorer) set(name string, v float64) {
	if r, ok := config.Ranges[name]; ok {
		v = r.Clamp(v)
	}
	m.plant, _ = m.plant.Set(name, v)
}

func next(options []string, current string) string {
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}

func plantNames() []string {
	var names []string
	for _, k := range model.PlantKinds() {
		names = append(names, k.String())
	}
	return names
}

func controllerNames() []string {
	var names []string
	for _, k := range model.ControllerKinds() {
		names = append(names, k.String())
	}
	return names
}

func (m explorer) View() string {
	s := m.theme.Styles()
	cfg := m.Config()

	var tabs []string
	for _, t := range []tab{tabPlant, tabClosedLoop} {
		label := " " + t.String() + " "
		if t == m.tab {
			tabs = append(tabs, s.Highlighted.Render("["+label+"]"))
		} else {
			tabs = append(tabs, s.Muted.Render(" "+label+" "))
		}
	}
	header := s.Title.Render("ltilab") + "  " + strings.Join(tabs, " ") + "  " + s.Muted.Render(viewNames[m.view])

	var left strings.Builder
	left.WriteString(s.Label.Render("plant  ") + s.Value.Render(cfg.Plant.Type) + "\n")
	if m.tab == tabClosedLoop {
		left.WriteString(s.Label.Render("ctrl   ") + s.Value.Render(cfg.Controller.Type) + "\n")
	}
	left.WriteString(s.Label.Render("input  ") + s.Value.Render(cfg.Input.Type) + "\n\n")
	for i, name := range m.Fields() {
		v, _ := cfg.Get(name)
		val := fmt.Sprintf("%8.3f", v)
		if m.editing && i == m.cursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.cursor {
			left.WriteString(s.Highlighted.Render("▸ ") + fmt.Sprintf("%-14s", name) + s.Value.Render(val) + "\n")
		} else {
			left.WriteString("  " + s.Muted.Render(fmt.Sprintf("%-14s", name)) + s.Muted.Render(val) + "\n")
		}
	}

	rightWidth := m.width - 36
	if rightWidth < 40 {
		rightWidth = 40
	}
	right := m.viewBody(s, rightWidth)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		s.Panel.Width(30).Render(left.String()),
		s.Panel.Render(right))

	help := s.KeyHint.Render("↑↓ select  ←→ adjust  enter edit  tab plant/loop  p plant  c controller  i input  v view  t theme  r reset  q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m explorer) viewBody(s viz.Styles, width int) string {
	if m.err != nil {
		return s.Unstable.Render(m.err.Error())
	}
	if m.report == nil {
		return s.Muted.Render("evaluating...")
	}
	r := m.report
	height := m.height - 14
	if height < 6 {
		height = 6
	}

	var body string
	switch m.view {
	case viewResponse:
		body = viz.ResponsePlot(r.Time, width-12, height, r.Input != "step")
	case viewBode:
		body = viz.BodePlot(r.Frequency, width-12, height/2)
	case viewPoles:
		body = viz.PoleZeroMap(r.Poles, r.Zeros, width-4, height)
	case viewNotes:
		body = strings.Join(viz.Notes(r), "\n")
	}

	status := s.Stable.Render("stable")
	if !r.Stable {
		status = s.Unstable.Render("unstable")
	}
	line := status
	if r.StepInfo != nil {
		line += s.Muted.Render(fmt.Sprintf("  rise %.3gs  settle %.3gs  overshoot %.3g%%",
			r.StepInfo.RiseTime, r.StepInfo.SettlingTime, r.StepInfo.Overshoot))
	}
	if m.evaluating {
		line += s.Muted.Render("  ...")
	}
	return body + "\n" + line
}

func RunExplorer(ctx context.Context, eval Evaluator, cfg config.Config) error {
	p := tea.NewProgram(NewExplorer(ctx, eval, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
