package tui

import (
	"context"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/ltilab/internal/config"
	"github.com/san-kum/ltilab/internal/service"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newExplorer(t *testing.T) explorer {
	t.Helper()
	return *NewExplorer(context.Background(), service.New(nil, nil), *config.DefaultConfig())
}

// press sends a key and runs the evaluation it triggers.
func press(t *testing.T, m explorer, key tea.KeyMsg) explorer {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(explorer)
	if cmd != nil {
		if msg, ok := cmd().(evalMsg); ok {
			next, _ = m.Update(msg)
			m = next.(explorer)
		}
	}
	return m
}

func TestExplorer_Init(t *testing.T) {
	m := newExplorer(t)
	msg := m.Init()()
	next, _ := m.Update(msg)
	m = next.(explorer)

	if m.report == nil || m.err != nil {
		t.Fatalf("expected report, got err %v", m.err)
	}
	if m.report.ClosedLoop {
		t.Error("expected plant tab first")
	}
	if m.evaluating {
		t.Error("still marked evaluating")
	}
}

func TestExplorer_Nudge(t *testing.T) {
	m := newExplorer(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})

	// k range [-1, 2] in 50 steps
	if got := m.plant.Plant.K; math.Abs(got-1.06) > 1e-12 {
		t.Errorf("expected k=1.06, got %g", got)
	}
	if m.report == nil || m.report.Plant.Num[0] != m.plant.Plant.K {
		t.Error("report not recomputed after nudge")
	}

	for i := 0; i < 100; i++ {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
		m = next.(explorer)
	}
	if m.plant.Plant.K != 2 {
		t.Errorf("expected k clamped to 2, got %g", m.plant.Plant.K)
	}
}

func TestExplorer_Tabs(t *testing.T) {
	m := newExplorer(t)
	if strings.Contains(strings.Join(m.Fields(), ","), "kp") {
		t.Error("plant tab should not show controller gains")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.Config().Controller.Enabled {
		t.Fatal("expected closed loop after tab")
	}
	if m.report == nil || !m.report.ClosedLoop {
		t.Fatal("expected closed-loop report")
	}
	// P(kp=1) around 1/(s+1): pole at -2
	if len(m.report.Poles) != 1 || math.Abs(m.report.Poles[0].Re+2) > 1e-9 {
		t.Errorf("expected pole at -2, got %v", m.report.Poles)
	}

	m = press(t, m, runes("c"))
	if m.plant.Controller.Type != "pd" {
		t.Errorf("expected pd after cycling, got %s", m.plant.Controller.Type)
	}
	fields := strings.Join(m.Fields(), ",")
	if !strings.Contains(fields, "kd") || strings.Contains(fields, "ki") {
		t.Errorf("unexpected pd fields %s", fields)
	}
}

func TestExplorer_PlantCycleAndInput(t *testing.T) {
	m := newExplorer(t)
	m = press(t, m, runes("p"))
	if m.plant.Plant.Type != "first_order_integrator" {
		t.Errorf("expected first_order_integrator, got %s", m.plant.Plant.Type)
	}
	m = press(t, m, runes("p"))
	m = press(t, m, runes("p"))
	if m.plant.Plant.Type != "arbitrary" {
		t.Fatalf("expected arbitrary, got %s", m.plant.Plant.Type)
	}
	if m.Fields()[0] != "a" {
		t.Errorf("expected arbitrary coefficients, got %v", m.Fields())
	}

	m = press(t, m, runes("i"))
	if m.plant.Input.Type != "sine" || m.report.Input == "step" {
		t.Error("expected sine input")
	}
}

func TestExplorer_Edit(t *testing.T) {
	m := newExplorer(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown}) // t
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing {
		t.Fatal("expected edit mode")
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	for _, r := range "0.5" {
		m = press(t, m, runes(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.editing {
		t.Error("still editing")
	}
	if m.plant.Plant.T != 0.5 {
		t.Errorf("expected t=0.5, got %g", m.plant.Plant.T)
	}
}

func TestExplorer_StaleResult(t *testing.T) {
	m := newExplorer(t)
	next, _ := m.Update(evalMsg{seq: 99})
	m = next.(explorer)
	if !m.evaluating {
		t.Error("stale result should be ignored")
	}
}

func TestExplorer_View(t *testing.T) {
	m := newExplorer(t)
	if !strings.Contains(m.View(), "evaluating") {
		t.Error("expected placeholder before first result")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	for i := 0; i < int(numViews); i++ {
		out := m.View()
		if !strings.Contains(out, "ltilab") || !strings.Contains(out, "stable") {
			t.Errorf("view %s missing header or status", viewNames[m.view])
		}
		m = press(t, m, runes("v"))
	}

	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	_ = next
}
