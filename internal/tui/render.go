package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidscribe/vidscribe/internal/deps"
	"github.com/vidscribe/vidscribe/internal/pipeline"
)

// RenderResult formats a transcription result for the terminal.
func RenderResult(res pipeline.TranscriptionResult) string {
	var b strings.Builder

	if res.Failed() {
		b.WriteString(StyleError.Render("✗ " + string(res.ErrorKind)))
		if res.Error != "" {
			b.WriteString("\n" + StyleMuted.Render(res.Error))
		}
		return b.String()
	}

	meta := []string{
		"language " + res.LanguageUsed,
		"engine " + string(res.EngineUsed),
	}
	if res.AudioDuration > 0 {
		meta = append(meta, "audio "+res.AudioDuration.String())
	}
	if res.DetectedLanguage != "" && res.DetectedLanguage != res.LanguageUsed {
		meta = append(meta, fmt.Sprintf("detected %s (p=%.2f)", res.DetectedLanguage, res.LanguageProbability))
	}

	b.WriteString(StyleSuccess.Render("✓ transcribed") + "  " + StyleMuted.Render(strings.Join(meta, " · ")))
	if res.Fallback {
		b.WriteString("\n" + StyleWarning.Render("no engine for the requested language, used the English model"))
	}
	b.WriteString("\n\n" + res.Text)
	return b.String()
}

// ModelRow is one line of the model listing.
type ModelRow struct {
	Kind      string // "streaming" or "whisper"
	ID        string
	Installed bool
	Location  string
}

// RenderModels formats the model listing as aligned columns.
func RenderModels(rows []ModelRow) string {
	if len(rows) == 0 {
		return StyleMuted.Render("no models configured")
	}

	idWidth := 0
	for _, r := range rows {
		idWidth = max(idWidth, lipgloss.Width(r.ID))
	}

	var lines []string
	lines = append(lines, StyleHeader.Render("Models"))
	current := ""
	for _, r := range rows {
		if r.Kind != current {
			current = r.Kind
			lines = append(lines, "", StyleLabel.Render(current))
		}
		mark := StyleMuted.Render("○")
		if r.Installed {
			mark = StyleSuccess.Render("●")
		}
		id := r.ID + strings.Repeat(" ", idWidth-lipgloss.Width(r.ID))
		lines = append(lines, fmt.Sprintf("  %s %s  %s", mark, id, StyleMuted.Render(r.Location)))
	}
	return strings.Join(lines, "\n")
}

// RenderDeps formats external tool status.
func RenderDeps(statuses []deps.Status) string {
	var lines []string
	for _, s := range statuses {
		if !s.Installed {
			lines = append(lines, StyleError.Render("✗ "+s.Name)+"  "+StyleMuted.Render("not found on PATH"))
			continue
		}
		line := StyleSuccess.Render("✓ "+s.Name) + "  " + s.Path
		if s.Version != "" {
			line += "  " + StyleMuted.Render(s.Version)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
