package styles

import "github.com/charmbracelet/lipgloss"

var HintColor = FgMuted

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(Primary).
			Bold(true).
			Padding(0, 1)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(Secondary).
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	UserMsgStyle = lipgloss.NewStyle().
			Foreground(FgText).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(Secondary)

	AiLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(Primary).
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	AiMsgStyle = lipgloss.NewStyle().
			Foreground(FgText).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(Primary)

	TaskStyle = lipgloss.NewStyle().
			Foreground(Accent).
			PaddingLeft(2)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(FgError).
			Bold(true)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(FgWarning)

	HintStyle = lipgloss.NewStyle().
			Foreground(FgMuted)

	SummaryTitleStyle = lipgloss.NewStyle().
				Foreground(Primary).
				Bold(true)

	InputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 3)

	FormLabelStyle = lipgloss.NewStyle().
			Foreground(FgMuted).
			Width(10)

	FormInputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	FormInputFocusedStyle = FormInputStyle.
				BorderForeground(Primary)

	ListItemStyle = lipgloss.NewStyle().
			Foreground(FgText)

	ListSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#5C5C7A"))

	StatusTodoStyle     = lipgloss.NewStyle().Foreground(FgMuted)
	StatusProgressStyle = lipgloss.NewStyle().Foreground(FgWarning).Bold(true)
	StatusDoneStyle     = lipgloss.NewStyle().Foreground(FgSuccess).Bold(true)

	ChipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(Primary).
			Padding(0, 1).
			MarginRight(1)

	PopupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Background(BgSurface).
			Padding(0, 1)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	ModalItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	ModalSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(lipgloss.Color("#5C5C7A")).
				Foreground(lipgloss.Color("#FFFFFF"))
)
