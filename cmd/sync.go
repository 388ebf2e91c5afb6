package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tlsync/internal/formatter"
	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tasks"
	"github.com/desertthunder/tlsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// SyncRun matches a tracklist against the catalog and writes the playlist.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	raw, err := r.readTracklist(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	svc, err := r.requireSpotify()
	if err != nil {
		return err
	}
	if err := r.authenticate(ctx, svc); err != nil {
		return err
	}

	if _, err := r.openDatabase(); err != nil {
		r.logger.Warn("continuing without run history or search cache", "error", err)
	}

	opts := match.OptionsFromConfig(r.config.Sync)
	if cmd.IsSet("confidence") {
		opts.Threshold = cmd.Float("confidence")
	}
	if cmd.IsSet("workers") {
		opts.Workers = int(cmd.Int("workers"))
	}
	if cmd.Bool("no-duration-filter") {
		opts.DurationFilter = false
	}

	matcher := r.buildMatcher(svc, opts)
	engine := r.buildEngine(svc, matcher)

	runOpts := tasks.RunOptions{
		NameOverride: cmd.String("name"),
		DryRun:       cmd.Bool("dry-run"),
	}

	if runOpts.DryRun {
		r.writePlain("Dry run: no playlist will be created or modified.\n\n")
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ParseTracklist:
				r.writePlain("📋 %s\n\n", update.Message)
			case tasks.MatchTracks:
				if update.Step == 0 {
					r.writePlain("🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.FindPlaylist, tasks.CreatePlaylist, tasks.ReplaceTracks:
				r.writePlain("\n📝 %s", update.Message)
			case tasks.Done:
				r.writePlain("\n")
			}
		}
	}()

	report, runErr := engine.Run(ctx, progressCh, raw, runOpts)
	close(progressCh)
	<-progressDone

	if runErr != nil {
		if report == nil {
			return runErr
		}
		r.writePlain("\n⚠ Sync incomplete: %v\n", runErr)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Report")

	format := cmd.String("format")
	if outputPath := cmd.String("output"); outputPath != "" {
		if err := formatter.WriteReport(report, format, outputPath); err != nil {
			return err
		}
		r.writePlain("✓ Report written to %s\n", outputPath)
		return runErr
	}

	out, err := formatter.FormatReport(report, format)
	if err != nil {
		return err
	}
	if err := r.writePlain("%s", out); err != nil {
		return err
	}

	return runErr
}

// SyncUI launches the interactive terminal UI for reviewing matches before syncing.
func (r *Runner) SyncUI(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	raw, err := r.readTracklist(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	svc, err := r.requireSpotify()
	if err != nil {
		return err
	}
	if err := r.authenticate(ctx, svc); err != nil {
		return err
	}

	if _, err := r.openDatabase(); err != nil {
		r.logger.Warn("continuing without run history or search cache", "error", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tlsync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	matcher := r.buildMatcher(svc, match.OptionsFromConfig(r.config.Sync))
	engine := r.buildEngine(svc, matcher)

	runOpts := tasks.RunOptions{
		NameOverride: cmd.String("name"),
		DryRun:       cmd.Bool("dry-run"),
	}

	model := ui.NewModel(ctx, engine, matcher, raw, runOpts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// reloadConfig swaps in the config file named by the --config flag when it
// differs from the one loaded at startup.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	configPath := cmd.String("config")
	if configPath == "" || configPath == r.configPath {
		return
	}
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Warn("config file not found", "path", configPath)
		return
	}
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config", "path", configPath, "error", err)
		return
	}
	r.config = config
	r.configPath = configPath
	r.spotify = nil
}
