package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/tlsync/internal/formatter"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tracklist"
	"github.com/urfave/cli/v3"
)

// Parse reads a tracklist from a file (or stdin) and prints the extracted tracks.
func (r *Runner) Parse(ctx context.Context, cmd *cli.Command) error {
	raw, err := r.readTracklist(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	parsed := tracklist.Parse(raw, cmd.String("name"))
	r.logger.Info("parsed tracklist", "title", parsed.Title, "tracks", len(parsed.Tracks))

	if cmd.Bool("json") {
		out, err := formatter.TracklistToJSON(parsed)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", out)
	}

	return r.writePlain("%s", formatter.TracklistToText(parsed))
}

// readTracklist reads the raw tracklist text from a file path, or stdin when
// the path is empty or "-".
func (r *Runner) readTracklist(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read tracklist file: %v", shared.ErrInvalidInput, err)
	}
	return string(data), nil
}
