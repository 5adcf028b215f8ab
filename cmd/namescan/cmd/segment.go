package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/namescan/internal/preprocess"
	"github.com/MeKo-Tech/namescan/internal/utils"
	"github.com/spf13/cobra"
)

var segmentCmd = &cobra.Command{
	Use:   "segment [files...]",
	Short: "Write the cleaned two-tone version of viewport captures",
	Long: `Run only the preprocessing stage: resize each viewport to the minimum width and
keep the letter clusters that cross the middle row. The result is the image the
OCR engine would see. Useful for tuning the segmentation tolerances.

Examples:
  namescan segment plate.png --out cleaned/
  namescan segment captures/*.png --out cleaned/ --tolerance 60`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runSegmentCommand,
}

func runSegmentCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	flags := cmd.Flags()
	if flags.Changed("tolerance") {
		cfg.Segmentation.MaxOCRSubpixelFFDistance, _ = flags.GetInt("tolerance")
	}
	if flags.Changed("min-width") {
		cfg.Segmentation.MinimumResizeWidth, _ = flags.GetInt("min-width")
	}
	if flags.Changed("max-letter-pixels") {
		cfg.Segmentation.MaximumLetterPixelCount, _ = flags.GetInt("max-letter-pixels")
	}
	if err := cfg.ValidateProcessing(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	outDir, _ := flags.GetString("out")
	if outDir == "" {
		return errors.New("--out is required")
	}

	pre := preprocess.New(cfg.ToPreprocessConfig())
	out := cmd.OutOrStdout()
	var failed int
	for _, path := range args {
		img, _, err := utils.LoadImage(path)
		if err != nil {
			_, _ = fmt.Fprintf(out, "%s: %v\n", path, err)
			failed++
			continue
		}
		cleaned, stats, err := pre.Process(context.Background(), img)
		if err != nil {
			_, _ = fmt.Fprintf(out, "%s: %v\n", path, err)
			failed++
			continue
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		dst := filepath.Join(outDir, base+"-cleaned.png")
		if err := utils.SaveImage(cleaned, dst); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s -> %s (%d letters, %d noise components, %d seeds)\n",
			path, dst, stats.Letters, stats.NoiseComponents, stats.Seeds)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d viewports could not be segmented", failed, len(args))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	segmentCmd.Flags().String("out", "", "output directory for cleaned viewports")
	segmentCmd.Flags().Int("tolerance", 80, "maximum per-channel distance from white that still counts as text")
	segmentCmd.Flags().Int("min-width", 300, "width viewports are resized to before segmentation")
	segmentCmd.Flags().Int("max-letter-pixels", 1500, "clusters larger than this are noise")
}
