package recommender

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// writeScript drops a shell script in place of the Python predictor so tests
// need no interpreter or model
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	assert.NoError(t, err)
}

func TestScriptEngineRecommend(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, predictScript, `echo '[{"park":"Mara North","score":0.91},{"park":"Selva Verde","score":0.72}]'`)

	e := NewScriptEngine("sh", dir, filepath.Join(dir, "parks.csv"))
	recs, err := e.Recommend(context.Background(), map[string]int{"mammals": 1, "safari": 1})

	assert.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, "Mara North", recs[0].Park)
	assert.InDelta(t, 0.91, recs[0].Score, 0.0001)
}

func TestScriptEngineRecommendScriptReportedError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, predictScript, `echo '{"error":"Invalid input: boom"}'`)

	e := NewScriptEngine("sh", dir, filepath.Join(dir, "parks.csv"))
	recs, err := e.Recommend(context.Background(), map[string]int{})

	assert.Error(t, err)
	assert.Nil(t, recs)
	assert.Contains(t, err.Error(), "Invalid input")
}

func TestScriptEngineRecommendExitFailure(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, predictScript, `exit 3`)

	e := NewScriptEngine("sh", dir, filepath.Join(dir, "parks.csv"))
	_, err := e.Recommend(context.Background(), map[string]int{})
	assert.Error(t, err)
}

func TestScriptEnginePredictSeasonal(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	writeScript(t, dir, seasonalScript, `echo "$@" > `+argsFile+`
echo '{"primaryBehavior":"breeding_behavior","breedingSeason":true,"breedingPeak":true,"activityLevel":"High","threatLevel":"High","migrationTendency":"territorial","populationPeak":true,"recommendation":"CRITICAL: Increase monitoring - breeding season with high threat level","confidence":"High - AI Model (92.00% confidence)","success":true}'`)

	e := NewScriptEngine("sh", dir, filepath.Join(dir, "parks.csv"))
	prediction, err := e.PredictSeasonal(context.Background(), "Tiger", 12, "territorial", "cold")

	assert.NoError(t, err)
	assert.True(t, prediction.BreedingSeason)
	assert.Equal(t, "breeding_behavior", prediction.PrimaryBehavior)
	assert.Equal(t, "High", prediction.ActivityLevel)
	assert.True(t, prediction.Success)

	args, err := os.ReadFile(argsFile)
	assert.NoError(t, err)
	assert.Contains(t, string(args), "predict Tiger 12 territorial cold")
}

func TestScriptEnginePredictSeasonalScriptReportedError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, seasonalScript, `echo '{"error":"month must be a valid integer"}'`)

	e := NewScriptEngine("sh", dir, filepath.Join(dir, "parks.csv"))
	prediction, err := e.PredictSeasonal(context.Background(), "Tiger", 12, "", "")

	assert.Error(t, err)
	assert.Nil(t, prediction)
	assert.Contains(t, err.Error(), "month must be a valid integer")
}

func TestScriptEngineSupportedSpecies(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, seasonalScript, `echo '["Tiger","Elephant","Leopard"]'`)

	e := NewScriptEngine("sh", dir, filepath.Join(dir, "parks.csv"))
	species, err := e.SupportedSpecies(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"Tiger", "Elephant", "Leopard"}, species)
}

func TestScriptEngineRetrain(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "trained")
	writeScript(t, dir, trainScript, `touch `+marker+` && echo done`)

	e := NewScriptEngine("sh", dir, filepath.Join(dir, "parks.csv"))
	assert.NoError(t, e.Retrain(context.Background()))

	_, err := os.Stat(marker)
	assert.NoError(t, err)
}

func TestScriptEngineAppendTrainingRow(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "parks.csv")
	e := NewScriptEngine("sh", dir, dataPath)

	assert.NoError(t, e.AppendTrainingRow(map[string]int{"mammals": 1, "safari": 1}, "Mara North"))
	assert.NoError(t, e.AppendTrainingRow(map[string]int{"birds": 1}, "Selva Verde"))

	f, err := os.Open(dataPath)
	assert.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 3) // header + two rows
	assert.Equal(t, append(append([]string(nil), FeatureOrder...), "park_name"), rows[0])
	assert.Equal(t, "1", rows[1][0]) // mammals
	assert.Equal(t, "Mara North", rows[1][len(rows[1])-1])
	assert.Equal(t, "0", rows[2][0])
	assert.Equal(t, "1", rows[2][1]) // birds
	assert.Equal(t, "Selva Verde", rows[2][len(rows[2])-1])
}
