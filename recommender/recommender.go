package recommender

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/models"
)

const (
	predictScript  = "predict.py"
	trainScript    = "train_model.py"
	seasonalScript = "seasonal_prediction.py"

	scriptTimeout = 60 * time.Second
)

// FeatureOrder is the fixed feature column order shared with the model
// scripts; the CSV header and prediction input must both follow it.
var FeatureOrder = []string{
	"mammals", "birds", "reptiles", "amphibians", "insects",
	"safari", "camping", "birdwatching", "hiking",
	"forest", "wetland", "mountain", "coastal",
	"family", "adventure", "relaxation",
}

// Engine produces park recommendations and seasonal behavior forecasts, and
// maintains the models behind them
type Engine interface {
	Recommend(ctx context.Context, prefs map[string]int) ([]models.ParkRecommendation, error)
	PredictSeasonal(ctx context.Context, species string, month int, migration, weather string) (*models.SeasonalPrediction, error)
	SupportedSpecies(ctx context.Context) ([]string, error)
	Retrain(ctx context.Context) error
}

// ScriptEngine runs the Python scripts that own the recommendation model.
// The scripts are an external collaborator: the engine only knows their
// input/output contract, not their internals.
type ScriptEngine struct {
	pythonBin string
	scriptDir string
	dataPath  string
}

// NewScriptEngine wires an engine to the interpreter, the script directory
// and the training CSV
func NewScriptEngine(pythonBin, scriptDir, dataPath string) *ScriptEngine {
	return &ScriptEngine{
		pythonBin: pythonBin,
		scriptDir: scriptDir,
		dataPath:  dataPath,
	}
}

// Recommend invokes the predictor with the user's 0/1 preference features as
// a JSON argv and parses the top scored parks from stdout. The script
// reports its own failures as {"error": ...} with a zero exit status.
func (e *ScriptEngine) Recommend(ctx context.Context, prefs map[string]int) ([]models.ParkRecommendation, error) {
	input, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("recommender: failed to marshal preferences: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.pythonBin, filepath.Join(e.scriptDir, predictScript), string(input))
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("recommender: predict script failed: %w", err)
	}

	trimmed := bytes.TrimSpace(out)

	var recs []models.ParkRecommendation
	if err := json.Unmarshal(trimmed, &recs); err == nil {
		return recs, nil
	}

	var scriptErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &scriptErr); err == nil && scriptErr.Error != "" {
		return nil, fmt.Errorf("recommender: %s", scriptErr.Error)
	}
	return nil, fmt.Errorf("recommender: unexpected predict output: %s", trimmed)
}

// PredictSeasonal invokes the seasonal behavior predictor for one species and
// month. Migration tendency and weather preference are optional hints; the
// script falls back to its own defaults when they are empty. Like the park
// predictor, the script reports its own failures as {"error": ...} with a
// zero exit status.
func (e *ScriptEngine) PredictSeasonal(ctx context.Context, species string, month int, migration, weather string) (*models.SeasonalPrediction, error) {
	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	args := []string{filepath.Join(e.scriptDir, seasonalScript), "predict", species, strconv.Itoa(month)}
	if migration != "" {
		args = append(args, migration)
		if weather != "" {
			args = append(args, weather)
		}
	}

	cmd := exec.CommandContext(ctx, e.pythonBin, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("recommender: seasonal script failed: %w", err)
	}

	trimmed := bytes.TrimSpace(out)

	var scriptErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &scriptErr); err == nil && scriptErr.Error != "" {
		return nil, fmt.Errorf("recommender: %s", scriptErr.Error)
	}

	var prediction models.SeasonalPrediction
	if err := json.Unmarshal(trimmed, &prediction); err != nil {
		return nil, fmt.Errorf("recommender: unexpected seasonal output: %s", trimmed)
	}
	return &prediction, nil
}

// SupportedSpecies lists the species the seasonal model was trained on
func (e *ScriptEngine) SupportedSpecies(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.pythonBin, filepath.Join(e.scriptDir, seasonalScript), "get_supported_species")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("recommender: seasonal script failed: %w", err)
	}

	var species []string
	if err := json.Unmarshal(bytes.TrimSpace(out), &species); err != nil {
		return nil, fmt.Errorf("recommender: unexpected species list output: %s", bytes.TrimSpace(out))
	}
	return species, nil
}

// Retrain re-runs model training against the current CSV
func (e *ScriptEngine) Retrain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.pythonBin, filepath.Join(e.scriptDir, trainScript))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("recommender: train script failed: %w: %s", err, bytes.TrimSpace(out))
	}

	zap.S().Infow("recommendation model retrained", "output", string(bytes.TrimSpace(out)))
	return nil
}

// AppendTrainingRow appends one labeled feature row to the training CSV,
// creating the file with its header on first use. Features absent from the
// map are written as 0.
func (e *ScriptEngine) AppendTrainingRow(features map[string]int, parkName string) error {
	_, statErr := os.Stat(e.dataPath)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(e.dataPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("recommender: failed to open training data: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		header := append(append([]string(nil), FeatureOrder...), "park_name")
		if err := w.Write(header); err != nil {
			return fmt.Errorf("recommender: failed to write header: %w", err)
		}
	}

	row := make([]string, 0, len(FeatureOrder)+1)
	for _, feature := range FeatureOrder {
		row = append(row, strconv.Itoa(features[feature]))
	}
	row = append(row, parkName)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("recommender: failed to write row: %w", err)
	}

	w.Flush()
	return w.Error()
}
