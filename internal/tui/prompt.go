package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/vidscribe/vidscribe/internal/language"
	"github.com/vidscribe/vidscribe/internal/transcriber"
)

// languageOptions lists every known language plus the current value if it
// is not one of them.
func languageOptions(current string) []huh.Option[string] {
	var opts []huh.Option[string]
	known := false
	for _, l := range language.List() {
		label := language.DisplayName(l.Code)
		if table := transcriber.DefaultTable(); table[l.Code] != "" {
			label += "  " + string(table[l.Code])
		}
		opts = append(opts, huh.NewOption(label, l.Code))
		if l.Code == current {
			known = true
		}
	}
	if current != "" && !known {
		opts = append([]huh.Option[string]{huh.NewOption(current, current)}, opts...)
	}
	return opts
}

// PickLanguage asks for the spoken language of a video.
func PickLanguage(current string) (string, error) {
	selected := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Description("Spoken language of the video").
				Options(languageOptions(current)...).
				Filtering(true).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

// Confirm asks a yes/no question, defaulting to no.
func Confirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}
