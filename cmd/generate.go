package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/engine"
	"Picture-Story/server/internal/generators"
	"Picture-Story/server/internal/models"
)

type generateOptions struct {
	style  string
	output string
}

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [flags] IMAGE...",
		Short: "Write a story and its narration for local image files",
		Long: `generate runs one story cycle for the given image files, in the
order they are listed. The story is printed to stdout and the narration
is written to the --output file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.Context(), cfg, opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.style, "style", "s", string(models.StyleComedy), "story style: "+styleList())
	cmd.Flags().StringVarP(&opts.output, "output", "o", "story.mp3", "where to write the narration")

	return cmd
}

func generate(ctx context.Context, cfg *config.Config, opts *generateOptions, paths []string, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	style, err := models.ParseStyle(opts.style)
	if err != nil {
		return fmt.Errorf("%w (choose one of %s)", err, styleList())
	}

	uploads, err := readUploads(paths)
	if err != nil {
		return err
	}

	generator, err := engine.NewStoryGenerator(ctx, cfg.Generation)
	if err != nil {
		return fmt.Errorf("failed to create story generator: %w", err)
	}
	narrator := generators.NewNarrator(cfg.Narration)

	outcome := engine.NewStoryEngine(generator, narrator).Run(ctx, uploads, style)
	return writeOutcome(outcome, opts.output, out)
}

func readUploads(paths []string) ([]models.Upload, error) {
	uploads := make([]models.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		uploads = append(uploads, models.Upload{Filename: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func writeOutcome(outcome *engine.CycleOutcome, output string, out io.Writer) error {
	for _, w := range outcome.Warnings {
		slog.Warn(w)
	}

	switch outcome.Status {
	case models.CycleInvalidInput:
		return fmt.Errorf("invalid input: %s", strings.Join(outcome.Warnings, " "))
	case models.CycleGenerationFailed, models.CycleAppError:
		return fmt.Errorf("%s", outcome.Error)
	}

	fmt.Fprintf(out, "%s\n\n%s\n", outcome.Heading, outcome.Story)

	if outcome.Audio == nil {
		return nil
	}
	if err := os.WriteFile(output, outcome.Audio.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write narration: %w", err)
	}
	slog.Info("Narration saved", "path", output, "bytes", outcome.Audio.Size(), "elapsed", outcome.Duration)
	return nil
}

func styleList() string {
	names := make([]string, len(models.AllStyles))
	for i, s := range models.AllStyles {
		names[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(names, ", ")
}
