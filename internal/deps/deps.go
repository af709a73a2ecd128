package deps

import (
	"context"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/command"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
}

// Tool names a required external program and the flag that prints its version.
type Tool struct {
	Name        string // logical name shown to the user
	Executable  string // binary looked up on PATH (or an absolute path)
	VersionFlag string
}

// Tools returns the external programs the transcription core depends on.
func Tools(ytDlp, ffmpeg, whisperCli string) []Tool {
	return []Tool{
		{Name: "yt-dlp", Executable: ytDlp, VersionFlag: "--version"},
		{Name: "ffmpeg", Executable: ffmpeg, VersionFlag: "-version"},
		{Name: "whisper-cli", Executable: whisperCli, VersionFlag: "--version"},
	}
}

// Check looks the tool up and, if found, asks it for its version.
func Check(ctx context.Context, r command.Runner, tool Tool) Status {
	status := Status{Name: tool.Name}

	path, err := r.LookPath(tool.Executable)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	// some builds hang waiting on a tty; don't let a version probe stall the check
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.Run(probeCtx, path, tool.VersionFlag)
	if err == nil && res.ExitCode == 0 {
		// first line carries the version for all three tools
		lines := strings.Split(string(res.Stdout), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}

// CheckAll runs Check for every tool in order.
func CheckAll(ctx context.Context, r command.Runner, tools []Tool) []Status {
	out := make([]Status, 0, len(tools))
	for _, tool := range tools {
		out = append(out, Check(ctx, r, tool))
	}
	return out
}
