package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitpal/internal/progress"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	streakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	coinStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	moodColors = map[progress.Mood]lipgloss.Color{
		progress.MoodHappy:   lipgloss.Color("42"),
		progress.MoodNeutral: lipgloss.Color("252"),
		progress.MoodSad:     lipgloss.Color("214"),
		progress.MoodVerySad: lipgloss.Color("202"),
		progress.MoodWeak:    lipgloss.Color("196"),
	}
)

func Title(s string) string {
	return titleStyle.Render(s)
}

func Dim(s string) string {
	return dimStyle.Render(s)
}

// Check renders a completion mark.
func Check(done bool) string {
	if done {
		return doneStyle.Render("✓")
	}
	return dimStyle.Render("·")
}

// Streak renders a streak count, highlighted once it is running.
func Streak(n int) string {
	s := fmt.Sprintf("%d day streak", n)
	if n == 0 {
		return dimStyle.Render(s)
	}
	return streakStyle.Render(s)
}

func Coins(n int) string {
	return coinStyle.Render(fmt.Sprintf("%d coins", n))
}

// Mood renders a mood in its tier color.
func Mood(m progress.Mood) string {
	color, ok := moodColors[m]
	if !ok {
		return string(m)
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(m))
}

// HungerBar draws a ten-cell bar for a hunger level.
func HungerBar(level int) string {
	filled := (level + 5) / 10
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	bar := ""
	for i := 0; i < 10; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return fmt.Sprintf("%s %d/%d", bar, level, progress.MaxHunger)
}
