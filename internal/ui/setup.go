package ui

import (
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"
	"golang.org/x/term"

	"github.com/cybre/blaulicht/internal/utils"
)

var (
	ErrSelectionAborted = eris.New("selection aborted")
	ErrNoInteractiveTTY = eris.New("no interactive terminal available")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)
	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))
	pointerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213"))
	inactivePointerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("219")).
				Bold(true)
	instructionKeyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("213")).
				Bold(true)
	instructionTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))
	instructionDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("246"))
	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)
	emptyStateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Option struct {
	Label string
}

// SetupConfig controls which pickers are shown. A picker whose value was
// already given on the command line is skipped.
type SetupConfig struct {
	RequireDevice  bool
	RequireSurface bool
	InitialDevice  int
	InitialSurface int
}

type SetupResult struct {
	DeviceIndex  int
	SurfaceIndex int
}

// RunSetup lets the operator pick the audio input and the control surface
// before the show starts.
func RunSetup(devices []Option, surfaces []Option, cfg SetupConfig) (SetupResult, error) {
	if !cfg.RequireDevice && !cfg.RequireSurface {
		return SetupResult{
			DeviceIndex:  utils.ClampIndex(cfg.InitialDevice, len(devices)),
			SurfaceIndex: utils.ClampIndex(cfg.InitialSurface, len(surfaces)),
		}, nil
	}

	if !isInteractiveTerminal() {
		return SetupResult{}, ErrNoInteractiveTTY
	}

	program := tea.NewProgram(newSetupModel(devices, surfaces, cfg))
	finalModel, err := program.Run()
	if err != nil {
		return SetupResult{}, err
	}

	result := finalModel.(setupModel)
	if result.err != nil {
		return SetupResult{}, result.err
	}

	return SetupResult{
		DeviceIndex:  utils.ClampIndex(result.deviceIndex, len(devices)),
		SurfaceIndex: utils.ClampIndex(result.surfaceIndex, len(surfaces)),
	}, nil
}

type setupStep int

const (
	stepSelectDevice setupStep = iota
	stepSelectSurface
	stepConfirm
	stepDone
)

type setupModel struct {
	step     setupStep
	cfg      SetupConfig
	devices  []Option
	surfaces []Option

	cursor       int
	deviceIndex  int
	surfaceIndex int
	err          error
}

func newSetupModel(devices []Option, surfaces []Option, cfg SetupConfig) setupModel {
	m := setupModel{
		devices:      devices,
		surfaces:     surfaces,
		cfg:          cfg,
		deviceIndex:  utils.ClampIndex(cfg.InitialDevice, len(devices)),
		surfaceIndex: utils.ClampIndex(cfg.InitialSurface, len(surfaces)),
	}

	switch {
	case cfg.RequireDevice && len(devices) > 0:
		m.step = stepSelectDevice
		m.cursor = m.deviceIndex
	case cfg.RequireSurface && len(surfaces) > 0:
		m.step = stepSelectSurface
		m.cursor = m.surfaceIndex
	default:
		m.step = stepConfirm
	}

	return m
}

func (m setupModel) Init() tea.Cmd {
	return nil
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.step == stepDone {
		return m, tea.Quit
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.err = ErrSelectionAborted
		return m, tea.Quit
	case "up", "k":
		if items := m.currentItems(); len(items) > 0 {
			m.cursor = wrapIndex(m.cursor-1, len(items))
		}
	case "down", "j":
		if items := m.currentItems(); len(items) > 0 {
			m.cursor = wrapIndex(m.cursor+1, len(items))
		}
	case "tab", "right", "l":
		if m.step != stepConfirm {
			m = m.forward()
		}
	case "shift+tab", "left", "h":
		m = m.back()
	case "enter":
		if m.step == stepConfirm {
			m.step = stepDone
			return m, tea.Quit
		}
		m = m.forward()
	case "backspace", "b":
		if m.step == stepConfirm {
			m = m.back()
		}
	}

	return m, nil
}

// forward stores the cursor for the current picker and moves on.
func (m setupModel) forward() setupModel {
	switch m.step {
	case stepSelectDevice:
		m.deviceIndex = m.cursor
		if m.cfg.RequireSurface && len(m.surfaces) > 0 {
			m.step = stepSelectSurface
			m.cursor = m.surfaceIndex
			return m
		}
	case stepSelectSurface:
		m.surfaceIndex = m.cursor
	}
	m.step = stepConfirm
	m.cursor = 0
	return m
}

func (m setupModel) back() setupModel {
	switch m.step {
	case stepSelectSurface:
		if m.cfg.RequireDevice && len(m.devices) > 0 {
			m.surfaceIndex = m.cursor
			m.step = stepSelectDevice
			m.cursor = m.deviceIndex
		}
	case stepConfirm:
		switch {
		case m.cfg.RequireSurface && len(m.surfaces) > 0:
			m.step = stepSelectSurface
			m.cursor = m.surfaceIndex
		case m.cfg.RequireDevice && len(m.devices) > 0:
			m.step = stepSelectDevice
			m.cursor = m.deviceIndex
		}
	}
	return m
}

func (m setupModel) View() string {
	switch m.step {
	case stepSelectDevice:
		return renderDeviceView(m)
	case stepSelectSurface:
		return renderSurfaceView(m)
	case stepConfirm:
		return renderSummaryView(m)
	default:
		return ""
	}
}

func (m setupModel) currentItems() []Option {
	switch m.step {
	case stepSelectDevice:
		return m.devices
	case stepSelectSurface:
		return m.surfaces
	default:
		return nil
	}
}

func renderDeviceView(m setupModel) string {
	instructions := []string{"↑/k ↓/j move", "enter confirm"}
	if m.cfg.RequireSurface {
		instructions = append(instructions, "tab/right continue")
	}
	instructions = append(instructions, "esc cancel")

	lines := []string{
		"",
		titleStyle.Render("Select an audio input device"),
		"",
		renderOptionList(m.devices, m.cursor),
		"",
		renderInstructions(instructions),
		"",
	}
	return strings.Join(lines, "\n")
}

func renderSurfaceView(m setupModel) string {
	instructions := []string{"↑/k ↓/j move", "enter confirm"}
	if m.cfg.RequireDevice {
		instructions = append(instructions, "shift+tab/left back")
	}
	instructions = append(instructions, "tab/right finish", "esc cancel")

	lines := []string{
		"",
		titleStyle.Render("Select the control surface"),
	}

	if m.cfg.RequireDevice {
		lines = append(lines,
			"",
			renderSummaryRow("Audio", m.selectedDeviceLabel()),
		)
	}

	lines = append(lines,
		"",
		renderOptionList(m.surfaces, m.cursor),
		"",
		renderInstructions(instructions),
		"",
	)

	return strings.Join(lines, "\n")
}

func renderSummaryView(m setupModel) string {
	instructions := []string{"enter start", "←/h/b/backspace edit", "esc cancel"}

	lines := []string{
		"",
		titleStyle.Render("Ready for the show"),
		"",
		renderSummaryRow("Audio", m.selectedDeviceLabel()),
		renderSummaryRow("Surface", m.selectedSurfaceLabel()),
		"",
		renderInstructions(instructions),
		"",
	}
	return strings.Join(lines, "\n")
}

func (m setupModel) selectedDeviceLabel() string {
	return selectedLabel(m.devices, m.deviceIndex)
}

func (m setupModel) selectedSurfaceLabel() string {
	return selectedLabel(m.surfaces, m.surfaceIndex)
}

func selectedLabel(items []Option, idx int) string {
	if idx >= 0 && idx < len(items) {
		return items[idx].Label
	}
	return "not selected"
}

func renderPointer(active bool) string {
	if active {
		return pointerStyle.Render("›")
	}
	return inactivePointerStyle.Render(" ")
}

func renderOptionLabel(text string, active bool) string {
	if active {
		return selectedItemStyle.Render(text)
	}
	return itemStyle.Render(text)
}

func renderOptionList(items []Option, cursor int) string {
	if len(items) == 0 {
		return emptyStateStyle.Render("No options detected")
	}

	rows := make([]string, len(items))
	for i, item := range items {
		rows[i] = lipgloss.JoinHorizontal(lipgloss.Left,
			renderPointer(cursor == i),
			" ",
			renderOptionLabel(item.Label, cursor == i),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderInstructions(parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	if len(parts) == 1 {
		return renderInstruction(parts[0])
	}

	var segments []string
	for i, part := range parts {
		if i > 0 {
			segments = append(segments, instructionDividerStyle.Render(" · "))
		}
		segments = append(segments, renderInstruction(part))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, segments...)
}

func renderInstruction(part string) string {
	tokens := strings.Fields(part)
	if len(tokens) == 0 {
		return ""
	}
	if len(tokens) == 1 {
		return instructionTextStyle.Render(tokens[0])
	}

	var segments []string
	keyTokens := tokens[:len(tokens)-1]
	for i, token := range keyTokens {
		if i > 0 {
			segments = append(segments, instructionTextStyle.Render(" "))
		}
		segments = append(segments, instructionKeyStyle.Render(token))
	}
	segments = append(segments, instructionTextStyle.Render(" "))
	segments = append(segments, instructionTextStyle.Render(tokens[len(tokens)-1]))
	return lipgloss.JoinHorizontal(lipgloss.Left, segments...)
}

func renderSummaryRow(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		summaryLabelStyle.Render(label+": "),
		summaryValueStyle.Render(value),
	)
}

func wrapIndex(idx, length int) int {
	if length <= 0 {
		return 0
	}
	idx = idx % length
	if idx < 0 {
		idx += length
	}
	return idx
}

func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
