package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/namescan/internal/batch"
	"github.com/MeKo-Tech/namescan/internal/config"
	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize [files|dirs...]",
	Short: "Recognize the names shown in viewport captures",
	Long: `Recognize the names shown in one batch of viewport captures. Directories are
expanded to the images they contain.

Viewports are preprocessed in parallel and read by the OCR engine one at a time.
Transcripts of three characters or fewer are treated as noise. Every other
transcript is mapped onto the closest vocabulary name.

Supported formats: PNG, JPEG, GIF, BMP, TIFF

Examples:
  namescan recognize plate1.png plate2.png --names Gazuzu,Skrolk
  namescan recognize captures/ --vocabulary names.txt --format json
  namescan recognize captures/ --recursive --workers 4 --output sightings.csv --format csv`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runRecognizeCommand,
}

// applyRecognizeFlags overrides configuration with explicitly set flags.
func applyRecognizeFlags(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Recognition.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("min-length") {
		cfg.Recognition.MinTranscriptLength, _ = flags.GetInt("min-length")
	}
	if flags.Changed("debug-dir") {
		cfg.Segmentation.DebugDir, _ = flags.GetString("debug-dir")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("output") {
		cfg.Output.File, _ = flags.GetString("output")
	}

	bc := &batch.Config{Format: cfg.Output.Format, OutputFile: cfg.Output.File}
	bc.Recursive, _ = flags.GetBool("recursive")
	bc.IncludePatterns, _ = flags.GetStringSlice("include")
	bc.ExcludePatterns, _ = flags.GetStringSlice("exclude")
	bc.Quiet, _ = flags.GetBool("quiet")
	bc.ShowStats, _ = flags.GetBool("stats")
	return bc
}

func runRecognizeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	bc := applyRecognizeFlags(cfg, cmd)

	var progress pipeline.ProgressCallback
	if show, _ := cmd.Flags().GetBool("progress"); show && !bc.Quiet {
		progress = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Preprocessing: ")
	} else if cfg.Verbose && !bc.Quiet {
		progress = pipeline.NewLogProgressCallback(nil, 10)
	}

	rec, err := buildRecognizer(cfg, progress)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := batch.ProcessBatch(ctx, args, rec, bc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := res.SaveResults(out, bc.Format, bc.OutputFile, bc.Quiet); err != nil {
		return err
	}
	if bc.ShowStats && !bc.Quiet {
		res.PrintStats(out)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringP("format", "f", "text", "output format: text, json, csv")
	recognizeCmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	recognizeCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	recognizeCmd.Flags().StringSlice("include", nil, "only files matching these patterns (default: all supported images)")
	recognizeCmd.Flags().StringSlice("exclude", nil, "skip files matching these patterns")
	recognizeCmd.Flags().IntP("workers", "w", 0, "parallel preprocessing workers (0 = number of CPUs)")
	recognizeCmd.Flags().Int("min-length", 3, "transcripts with at most this many characters are noise")
	recognizeCmd.Flags().String("debug-dir", "", "write resized and cleaned viewports to this directory")
	recognizeCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	recognizeCmd.Flags().Bool("stats", false, "print processing statistics")
	recognizeCmd.Flags().BoolP("quiet", "q", false, "suppress informational output")
}

