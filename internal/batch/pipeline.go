package batch

import (
	"fmt"

	"github.com/MeKo-Tech/namescan/internal/config"
	"github.com/MeKo-Tech/namescan/internal/ocr"
	"github.com/MeKo-Tech/namescan/internal/pipeline"
	"github.com/MeKo-Tech/namescan/internal/preprocess"
)

// BuildRecognizer wires configuration, vocabulary and engine into a
// recognizer. On success the recognizer owns engine; on failure the
// caller still does.
func BuildRecognizer(
	cfg *config.Config,
	engine ocr.Engine,
	progress pipeline.ProgressCallback,
) (*pipeline.Recognizer, error) {
	vocab, err := cfg.LoadVocabulary()
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	pcfg := cfg.ToPipelineConfig()
	pcfg.Progress = progress
	rec, err := pipeline.New(pcfg, engine, vocab, preprocess.New(cfg.ToPreprocessConfig()))
	if err != nil {
		return nil, fmt.Errorf("failed to build recognizer: %w", err)
	}
	return rec, nil
}
