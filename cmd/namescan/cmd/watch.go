package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/namescan/internal/tracker"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recognize viewports as a capturer writes them into a directory",
	Long: `Watch a capture directory. On every tick the viewport files that appeared or
changed since the previous tick are recognized as one batch. Files whose content
is perceptually unchanged since they were last read are skipped.

Sightings are logged. With --json each tick is written to stdout as one JSON
line instead.

Examples:
  namescan watch --dir captures/ --vocabulary names.txt
  namescan watch --dir captures/ --interval 500ms --remove-processed --json`,
	SilenceUsage: true,
	RunE:         runWatchCommand,
}

// jsonLineSink writes each tick as one JSON line.
type jsonLineSink struct {
	enc *json.Encoder
}

func newJSONLineSink(w io.Writer) *jsonLineSink {
	return &jsonLineSink{enc: json.NewEncoder(w)}
}

func (s *jsonLineSink) Report(t tracker.Tick) {
	_ = s.enc.Encode(t)
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Watch.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("interval") {
		d, _ := flags.GetDuration("interval")
		cfg.Watch.IntervalMs = int(d / time.Millisecond)
	}
	if flags.Changed("hash-distance") {
		cfg.Watch.HashDistance, _ = flags.GetInt("hash-distance")
	}
	if flags.Changed("remove-processed") {
		cfg.Watch.RemoveProcessed, _ = flags.GetBool("remove-processed")
	}
	if cfg.Watch.Dir == "" {
		return fmt.Errorf("a capture directory is required (--dir or watch.dir)")
	}

	rec, err := buildRecognizer(cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()

	var sink tracker.Sink = tracker.LogSink{}
	if asJSON, _ := flags.GetBool("json"); asJSON {
		sink = newJSONLineSink(cmd.OutOrStdout())
	}

	t, err := tracker.New(cfg.ToTrackerConfig(), rec, sink)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return t.Run(ctx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("dir", "", "capture directory to watch")
	watchCmd.Flags().Duration("interval", time.Second, "tick interval")
	watchCmd.Flags().Int("hash-distance", 2, "perceptual hash distance at or below which a viewport counts as unchanged")
	watchCmd.Flags().Bool("remove-processed", false, "delete viewport files after reading them")
	watchCmd.Flags().Bool("json", false, "write each tick to stdout as a JSON line")
}
