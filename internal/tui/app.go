// Package tui is the terminal front end for route briefings. It uses
// bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eclewis/wxbrief/internal/briefing"
	"github.com/eclewis/wxbrief/internal/metar"
)

// appState represents which "screen" we're on
type appState int

const (
	stateInput    appState = iota // Route entry form
	stateFetching                 // Waiting on the upstream APIs
	stateBriefing                 // Showing a briefing
)

const (
	fieldDeparture = iota
	fieldArrival
	fieldAlternate
	fieldCount
)

const fetchTimeout = 30 * time.Second

// briefingMsg carries a completed (or failed) briefing build
type briefingMsg struct {
	result *briefing.Result
	err    error
}

// clockTickMsg drives the UTC clock in the header
type clockTickMsg time.Time

// categoryStyles maps flight categories to terminal colors, matching
// the palette the HTML renderer uses.
var categoryStyles = map[metar.Category]lipgloss.Style{
	metar.VFR:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
	metar.MVFR:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")), // blue
	metar.IFR:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
	metar.LIFR:    lipgloss.NewStyle().Foreground(lipgloss.Color("5")), // magenta
	metar.Unknown: lipgloss.NewStyle().Foreground(lipgloss.Color("7")), // default
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	airportStyle = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
)

// Builder assembles briefings for the TUI
type Builder interface {
	Build(ctx context.Context, req briefing.Request) (*briefing.Result, error)
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	builder Builder

	inputs  []textinput.Model
	focused int

	result  *briefing.Result
	lastReq briefing.Request
	errMsg  string

	clock time.Time

	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(builder Builder) *App {
	inputs := make([]textinput.Model, fieldCount)
	labels := []string{"KJFK", "KLAX", "optional"}
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = labels[i]
		ti.CharLimit = 4
		ti.Width = 8
		inputs[i] = ti
	}
	inputs[fieldDeparture].Focus()

	return &App{
		state:   stateInput,
		builder: builder,
		inputs:  inputs,
		clock:   time.Now().UTC(),
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, clockTick())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case clockTickMsg:
		a.clock = time.Time(msg).UTC()
		return a, clockTick()

	case briefingMsg:
		if msg.err != nil {
			a.state = stateInput
			a.errMsg = msg.err.Error()
			return a, nil
		}
		a.state = stateBriefing
		a.result = msg.result
		a.errMsg = ""
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state != stateInput {
				return a, tea.Quit
			}
		case "esc":
			if a.state == stateBriefing {
				a.state = stateInput
				return a, nil
			}
			return a, tea.Quit
		case "r":
			if a.state == stateBriefing {
				a.state = stateFetching
				return a, a.fetchBriefing(a.lastReq)
			}
		case "tab", "down":
			if a.state == stateInput {
				a.cycleFocus(1)
				return a, nil
			}
		case "shift+tab", "up":
			if a.state == stateInput {
				a.cycleFocus(-1)
				return a, nil
			}
		case "enter":
			if a.state == stateInput {
				return a.submit()
			}
		}
	}

	if a.state == stateInput {
		cmds := make([]tea.Cmd, len(a.inputs))
		for i := range a.inputs {
			a.inputs[i], cmds[i] = a.inputs[i].Update(msg)
		}
		return a, tea.Batch(cmds...)
	}

	return a, nil
}

// submit validates the form and kicks off a fetch
func (a *App) submit() (tea.Model, tea.Cmd) {
	req := briefing.Request{
		Departure: strings.TrimSpace(a.inputs[fieldDeparture].Value()),
		Arrival:   strings.TrimSpace(a.inputs[fieldArrival].Value()),
		Alternate: strings.TrimSpace(a.inputs[fieldAlternate].Value()),
	}
	if req.Departure == "" || req.Arrival == "" {
		a.errMsg = "departure and arrival are required"
		return a, nil
	}

	a.state = stateFetching
	a.lastReq = req
	a.errMsg = ""
	return a, a.fetchBriefing(req)
}

func (a *App) fetchBriefing(req briefing.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		result, err := a.builder.Build(ctx, req)
		return briefingMsg{result: result, err: err}
	}
}

func (a *App) cycleFocus(delta int) {
	a.inputs[a.focused].Blur()
	a.focused = (a.focused + delta + fieldCount) % fieldCount
	a.inputs[a.focused].Focus()
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// View renders the current state to a string.
func (a *App) View() string {
	header := headerStyle.Render("WXBRIEF") + "  " +
		hintStyle.Render(a.clock.Format("2006-01-02 15:04:05 UTC"))

	var body string
	switch a.state {
	case stateInput:
		body = a.renderForm()
	case stateFetching:
		body = "Fetching briefing for " + routeLabel(a.lastReq) + "..."
	case stateBriefing:
		body = a.renderBriefing()
	}

	sections := []string{header, "", body}
	if a.errMsg != "" {
		sections = append(sections, errorStyle.Render(a.errMsg))
	}
	return strings.Join(sections, "\n")
}

func (a *App) renderForm() string {
	labels := []string{"Departure", "Arrival  ", "Alternate"}
	var rows []string
	for i, input := range a.inputs {
		rows = append(rows, fmt.Sprintf("%s %s", labels[i], input.View()))
	}
	rows = append(rows, "", hintStyle.Render("Enter → fetch briefing    Tab → next field    Esc → quit"))
	return strings.Join(rows, "\n")
}

func (a *App) renderBriefing() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("METAR / TAF"))
	b.WriteString("\n")
	if a.result.WeatherError != "" {
		b.WriteString(errorStyle.Render(a.result.WeatherError))
		b.WriteString("\n")
	}
	for i, line := range a.result.Weather {
		if line.NewAirport {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(airportStyle.Render(line.Airport))
			b.WriteString("\n")
		}
		style, ok := categoryStyles[line.Category]
		if !ok {
			style = categoryStyles[metar.Unknown]
		}
		b.WriteString(style.Render(line.Text))
		b.WriteString("\n")
	}

	b.WriteString(a.renderSourceBlocks("DATIS", a.result.DATIS))
	b.WriteString(a.renderSourceBlocks("Airport Status", a.result.Status))

	b.WriteString("\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf(
		"Retrieved at %s    r → refresh    esc → new route    q → quit",
		a.result.RetrievedAt.Format("15:04:05 UTC"))))
	return b.String()
}

func (a *App) renderSourceBlocks(title string, blocks map[briefing.Role]briefing.SourceText) string {
	if len(blocks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
	for _, role := range []briefing.Role{briefing.RoleDeparture, briefing.RoleArrival, briefing.RoleAlternate} {
		block, ok := blocks[role]
		if !ok {
			continue
		}
		label := strings.ToUpper(string(role)[:1]) + string(role)[1:]
		b.WriteString(airportStyle.Render(fmt.Sprintf("%s (%s)", label, block.Airport)))
		b.WriteString("\n")
		if block.Error != "" {
			b.WriteString(errorStyle.Render(block.Error))
		} else {
			b.WriteString(block.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func routeLabel(req briefing.Request) string {
	label := req.Departure + " → " + req.Arrival
	if req.Alternate != "" {
		label += " (alt " + req.Alternate + ")"
	}
	return label
}
