package cli

import (
	"fmt"

	"github.com/alexanderramin/skillcycle/internal/assessment"
	"github.com/alexanderramin/skillcycle/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// skillcycleHuhTheme returns a huh theme matching the formatter palette.
func skillcycleHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// assessmentForm builds one select group per question, writing the chosen
// option value into values[question id].
func assessmentForm(values map[int]*string) *huh.Form {
	questions := assessment.Questions()
	groups := make([]*huh.Group, 0, len(questions))

	for _, q := range questions {
		options := make([]huh.Option[string], 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, huh.NewOption(fmt.Sprintf("%s. %s", o.Value, o.Label), o.Value))
		}

		value := new(string)
		values[q.ID] = value
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title(q.Text).
				Description(fmt.Sprintf("Question %d of %d", q.ID, len(questions))).
				Options(options...).
				Value(value),
		))
	}

	return huh.NewForm(groups...).WithTheme(skillcycleHuhTheme())
}
