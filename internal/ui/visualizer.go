package ui

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/crazy3lf/colorconv"
	"github.com/cybre/blaulicht/internal/utils"
)

// VisualizerFrame is a snapshot of the rig after one engine tick.
type VisualizerFrame struct {
	Hue       int
	Level     int
	ColorMode string

	White      bool
	Armed      bool
	ConstantOn bool
	Strobe     string
	Fog        bool
	Panels     []bool

	Volume     uint8
	BeatVolume uint8
	Bass       uint8
	BassAvg    uint8
	BPM        uint8

	// Bands holds the bass, mid and high share of the spectrum, 0..1.
	Bands    [3]float64
	Centroid float64
	PeakHz   float64
}

type Visualizer struct {
	program   *tea.Program
	mu        sync.Mutex
	lastSend  time.Time
	throttle  time.Duration
	closeOnce sync.Once
}

type frameMsg struct {
	frame      VisualizerFrame
	receivedAt time.Time
}

type visualizerModel struct {
	frame       VisualizerFrame
	lastUpdated time.Time
	ready       bool
	width       int
	height      int
	onExit      func()
	exitOnce    sync.Once
}

var (
	vizContainerStyle    = lipgloss.NewStyle().Padding(0, 2)
	vizTimestampStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	vizMetricLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	vizMetricValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	vizBeatActiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197")).Bold(true)
	vizBeatInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	vizWaitingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	vizHintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	vizPanelOffStyle     = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	vizPanelOnStyle      = lipgloss.NewStyle().Background(lipgloss.Color("231"))
)

const (
	vizBarWidth   = 32
	swatchBlocks  = 18
	renderLatency = 45 * time.Millisecond
	fullVolume    = 150.0
)

func NewVisualizer(onExit func()) *Visualizer {
	model := &visualizerModel{onExit: onExit}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithoutSignalHandler())

	v := &Visualizer{
		program:  program,
		throttle: renderLatency,
	}

	go program.Run()

	return v
}

func (v *Visualizer) Update(frame VisualizerFrame) {
	v.mu.Lock()
	if time.Since(v.lastSend) < v.throttle {
		v.mu.Unlock()
		return
	}
	v.lastSend = time.Now()
	v.mu.Unlock()

	v.program.Send(frameMsg{
		frame:      frame,
		receivedAt: time.Now(),
	})
}

func (v *Visualizer) Close() {
	v.closeOnce.Do(func() {
		v.program.Quit()
	})
}

func (m *visualizerModel) Init() tea.Cmd {
	return nil
}

func (m *visualizerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case frameMsg:
		m.frame = msg.frame
		m.lastUpdated = msg.receivedAt
		m.ready = true
	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.invokeExit()
			return m, tea.Quit
		case msg.String() == "q", msg.String() == "esc":
			m.invokeExit()
			return m, tea.Quit
		}
	case tea.QuitMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *visualizerModel) View() string {
	body := ""
	if !m.ready {
		header := titleStyle.Render("Rig Visualizer")
		waiting := vizWaitingStyle.Render("Waiting for the first tick…")
		body = lipgloss.JoinVertical(lipgloss.Left, header, "", waiting)
	} else {
		body = renderVisualizerView(m.frame, m.lastUpdated)
	}
	return vizContainerStyle.Render(body)
}

func renderVisualizerView(frame VisualizerFrame, updatedAt time.Time) string {
	header := renderHeader(frame, updatedAt)
	metrics := renderMetrics(frame)
	colorSwatch := renderColorSwatch(frame)
	panels := renderPanels(frame)
	bars := renderBars(frame)
	controls := vizHintStyle.Render("Press q / esc / ctrl+c to stop the show")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		metrics,
		"",
		colorSwatch,
		panels,
		"",
		bars,
		"",
		controls,
	)
}

func renderHeader(frame VisualizerFrame, updatedAt time.Time) string {
	color := lipgloss.Color(hexColorFromHSV(float64(frame.Hue), 1, 1))

	title := titleStyle.
		Foreground(color).
		Render("Rig Visualizer")
	timestamp := vizTimestampStyle.Render(updatedAt.Format("15:04:05.000"))

	return lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", timestamp)
}

func renderMetrics(frame VisualizerFrame) string {
	mode := renderMetric("Color", normalizeMode(frame.ColorMode))
	bpm := renderMetric("BPM", fmt.Sprintf("%3d", frame.BPM))
	peak := renderMetric("Peak", fmt.Sprintf("%5.0fHz", frame.PeakHz))
	strobe := renderMetric("Strobe", normalizeMode(frame.Strobe))

	top := lipgloss.JoinHorizontal(lipgloss.Left, mode, "   ", bpm, "   ", peak, "   ", strobe)
	bottom := lipgloss.JoinHorizontal(lipgloss.Left,
		renderFlag("Flash", frame.White), "   ",
		renderFlag("Armed", frame.Armed), "   ",
		renderFlag("Solid", frame.ConstantOn), "   ",
		renderFlag("Fog", frame.Fog),
	)

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func renderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		vizMetricLabelStyle.Render(label+":"),
		" ",
		vizMetricValueStyle.Render(value),
	)
}

func renderFlag(label string, on bool) string {
	marker := vizBeatInactiveStyle.Render("○")
	if on {
		marker = vizBeatActiveStyle.Render("●")
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		vizMetricLabelStyle.Render(label+":"),
		" ",
		marker,
	)
}

func renderColorSwatch(frame VisualizerFrame) string {
	hue := float64(frame.Hue)
	bri := utils.Clamp(float64(frame.Level)/255, 0.0, 1.0)

	blocks := make([]string, swatchBlocks)
	for i := 0; i < swatchBlocks; i++ {
		progress := float64(i) / float64(swatchBlocks-1)
		value := utils.Clamp(0.15+0.85*progress*bri, 0.0, 1.0)
		color := lipgloss.Color(hexColorFromHSV(hue, 1, value))
		blocks[i] = lipgloss.NewStyle().Background(color).Render("  ")
	}

	swatch := strings.Join(blocks, "")
	info := vizMetricValueStyle.Render(fmt.Sprintf("Hue:%3d° Level:%3d", frame.Hue, frame.Level))

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		subtitleStyle.Render("Wash  "),
		"  ",
		swatch,
		"  ",
		info,
	)
}

func renderPanels(frame VisualizerFrame) string {
	if len(frame.Panels) == 0 {
		return ""
	}

	blocks := make([]string, len(frame.Panels))
	for i, lit := range frame.Panels {
		style := vizPanelOffStyle
		if lit {
			style = vizPanelOnStyle
		}
		blocks[i] = style.Render("    ")
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		subtitleStyle.Render("Panels"),
		"  ",
		strings.Join(blocks, " "),
	)
}

func renderBars(frame VisualizerFrame) string {
	lines := []string{
		renderBar("Volume", float64(frame.Volume)/fullVolume, vizThemes["Volume"]),
		renderBar("Beat Volume", float64(frame.BeatVolume)/255, vizThemes["Beat Volume"]),
		renderBar("Bass", float64(frame.Bass)/255, vizThemes["Bass"]),
		renderBar("Bass Avg", float64(frame.BassAvg)/255, vizThemes["Bass Avg"]),
		renderBar("Low Band", frame.Bands[0], vizThemes["Low Band"]),
		renderBar("Mid Band", frame.Bands[1], vizThemes["Mid Band"]),
		renderBar("High Band", frame.Bands[2], vizThemes["High Band"]),
		renderBar("Centroid", frame.Centroid, vizThemes["Centroid"]),
	}
	return strings.Join(lines, "\n")
}

func renderBar(label string, value float64, theme barTheme) string {
	theme = normalizeBarTheme(theme)

	clamped := utils.Clamp(value, 0.0, 1.0)
	filled := int(math.Round(clamped * vizBarWidth))
	if clamped > 0 && filled == 0 {
		filled = 1
	}
	if filled > vizBarWidth {
		filled = vizBarWidth
	}

	builder := strings.Builder{}
	builder.Grow(128)
	builder.WriteString(theme.LabelStyle.Render(fmt.Sprintf("%-14s", label)))
	builder.WriteString(" [")

	if filled > 0 {
		steps := filled - 1
		if steps <= 0 {
			steps = 1
		}
		for i := 0; i < filled; i++ {
			progress := float64(i) / float64(steps)
			hue := theme.HueStart + (theme.HueEnd-theme.HueStart)*progress
			value := utils.Clamp(theme.ValueBase+theme.ValueSpan*progress, 0.0, 1.0)
			color := lipgloss.Color(hexColorFromHSV(hue, theme.Saturation, value))
			builder.WriteString(lipgloss.NewStyle().
				Foreground(color).
				Render(theme.FilledChar))
		}
	}

	empty := vizBarWidth - filled
	if empty > 0 {
		emptyBlock := theme.EmptyStyle.Render(theme.EmptyChar)
		for j := 0; j < empty; j++ {
			builder.WriteString(emptyBlock)
		}
	}

	builder.WriteString("] ")
	builder.WriteString(theme.ValueStyle.Render(fmt.Sprintf("%3.0f%%", clamped*100)))

	return builder.String()
}

type barTheme struct {
	LabelStyle lipgloss.Style
	ValueStyle lipgloss.Style
	EmptyStyle lipgloss.Style

	HueStart   float64
	HueEnd     float64
	Saturation float64
	ValueBase  float64
	ValueSpan  float64

	FilledChar string
	EmptyChar  string
}

var defaultBarTheme = barTheme{
	LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
	HueStart:   210,
	HueEnd:     210,
	Saturation: 0.8,
	ValueBase:  0.35,
	ValueSpan:  0.45,
	FilledChar: "█",
	EmptyChar:  "░",
}

var vizThemes = map[string]barTheme{
	"Low Band": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		HueStart:   10,
		HueEnd:     30,
		Saturation: 0.9,
		ValueBase:  0.4,
		ValueSpan:  0.5,
	},
	"Mid Band": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   55,
		HueEnd:     75,
		Saturation: 0.9,
		ValueBase:  0.35,
		ValueSpan:  0.55,
	},
	"High Band": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("123")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   210,
		HueEnd:     240,
		Saturation: 0.85,
		ValueBase:  0.35,
		ValueSpan:  0.5,
	},
	"Centroid": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("177")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   285,
		HueEnd:     315,
		Saturation: 0.95,
		ValueBase:  0.4,
		ValueSpan:  0.5,
	},
	"Volume": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		HueStart:   190,
		HueEnd:     140,
		Saturation: 0.85,
		ValueBase:  0.35,
		ValueSpan:  0.55,
		FilledChar: "█",
		EmptyChar:  "░",
	},
	"Beat Volume": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		HueStart:   330,
		HueEnd:     360,
		Saturation: 0.9,
		ValueBase:  0.4,
		ValueSpan:  0.55,
	},
	"Bass": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		HueStart:   25,
		HueEnd:     45,
		Saturation: 0.92,
		ValueBase:  0.4,
		ValueSpan:  0.5,
	},
	"Bass Avg": {
		LabelStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		ValueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("153")),
		EmptyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
		HueStart:   180,
		HueEnd:     200,
		Saturation: 0.78,
		ValueBase:  0.35,
		ValueSpan:  0.45,
	},
}

func normalizeBarTheme(theme barTheme) barTheme {
	if theme.FilledChar == "" {
		theme.FilledChar = defaultBarTheme.FilledChar
	}
	if theme.EmptyChar == "" {
		theme.EmptyChar = defaultBarTheme.EmptyChar
	}
	if theme.Saturation <= 0 {
		theme.Saturation = defaultBarTheme.Saturation
	}
	if theme.ValueSpan <= 0 {
		theme.ValueSpan = defaultBarTheme.ValueSpan
	}
	if theme.ValueBase <= 0 {
		theme.ValueBase = defaultBarTheme.ValueBase
	}
	return theme
}

func hexColorFromHSV(h, s, v float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = utils.Clamp(s, 0.0, 1.0)
	v = utils.Clamp(v, 0.0, 1.0)
	r, g, b, err := colorconv.HSVToRGB(h, s, v)
	if err != nil {
		return "#FFFFFF"
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func normalizeMode(mode string) string {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return "unknown"
	}
	return mode
}

func (m *visualizerModel) invokeExit() {
	m.exitOnce.Do(func() {
		if m.onExit != nil {
			m.onExit()
		}
	})
}
