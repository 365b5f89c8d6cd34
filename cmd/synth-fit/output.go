package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-subsynth/analysis"
	"github.com/cwbudde/algo-subsynth/preset"
	"github.com/cwbudde/algo-subsynth/synth"
)

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	PresetPath      string             `json:"preset_path,omitempty"`
	OutputPreset    string             `json:"output_preset"`
	SampleRate      int                `json:"sample_rate"`
	Note            int                `json:"note"`
	Velocity        int                `json:"velocity"`
	ReleaseAfterSec float64            `json:"release_after_seconds"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	TopCandidates   []topCandidate     `json:"top_candidates,omitempty"`
}

// writeOutputs writes the fitted patch and a JSON report next to it.
func writeOutputs(cfg *optimizationConfig, res *optimizationResult, voicing synth.Voicing, outputPreset, reportPath, referencePath, presetPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPreset), 0o755); err != nil {
		return err
	}
	if err := preset.WriteJSON(outputPreset, preset.FromStore(res.bestStore, voicing)); err != nil {
		return err
	}

	if reportPath == "" {
		reportPath = outputPreset + ".report.json"
	}
	rep := runReport{
		ReferencePath:   referencePath,
		PresetPath:      presetPath,
		OutputPreset:    outputPreset,
		SampleRate:      cfg.sampleRate,
		Note:            cfg.note,
		Velocity:        cfg.velocity,
		ReleaseAfterSec: cfg.releaseAfter,
		DurationSec:     res.elapsed,
		Evaluations:     res.evals,
		MayflyVariant:   cfg.mayflyVariant,
		BestScore:       res.bestMetrics.Score,
		BestSimilarity:  res.bestMetrics.Similarity,
		BestMetrics:     res.bestMetrics,
		BestKnobs:       knobMap(cfg.defs, res.best),
		TopCandidates:   res.top,
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(reportPath, b, 0o644)
}
