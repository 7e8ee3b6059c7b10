package style

import "github.com/charmbracelet/lipgloss"

var (
	Cyan    = lipgloss.Color("#00E5FF")
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")

	Base03 = lipgloss.Color("#1B1D23") // фон
	Base01 = lipgloss.Color("#6C7280") // приглушенный текст
	Base2  = lipgloss.Color("#ECEFF4") // основной текст
)

// Palette provides a centralized color management
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color

	Background lipgloss.Color
	Text       lipgloss.Color
	TextMuted  lipgloss.Color
}

// DefaultPalette returns the default color palette
func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,

		Background: Base03,
		Text:       Base2,
		TextMuted:  Base01,
	}
}

// Styles набор стилей меню.
type Styles struct {
	Title       lipgloss.Style
	Item        lipgloss.Style
	Selected    lipgloss.Style
	Description lipgloss.Style
	Prompt      lipgloss.Style
	Output      lipgloss.Style
	Error       lipgloss.Style
	Box         lipgloss.Style
}

// DefaultStyles строит стили из палитры.
func DefaultStyles(p Palette) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true).
			MarginBottom(1),
		Item: lipgloss.NewStyle().
			Foreground(p.Text).
			Padding(0, 2),
		Selected: lipgloss.NewStyle().
			Foreground(p.Background).
			Background(p.Primary).
			Padding(0, 2).
			Bold(true),
		Description: lipgloss.NewStyle().
			Foreground(p.TextMuted).
			Padding(0, 4).
			Italic(true),
		Prompt: lipgloss.NewStyle().
			Foreground(p.Secondary).
			Bold(true),
		Output: lipgloss.NewStyle().
			Foreground(p.Success),
		Error: lipgloss.NewStyle().
			Foreground(p.Error),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),
	}
}
