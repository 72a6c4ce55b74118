// Package output persists the pipeline's artifacts: one JSON result per
// game, plus the batch aggregate in JSON, CSV, and XLSX form. It also reads
// persisted results back for aggregation-only reruns.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ahrav/go-tribunal/internal/application"
	"github.com/ahrav/go-tribunal/internal/domain"
)

// Artifact file names within the output directory.
const (
	aggregationJSONFile = "team_aggregation.json"
	aggregationCSVFile  = "team_aggregation.csv"
	aggregationXLSXFile = "team_aggregation.xlsx"
)

// resultFileSuffix names the per-game artifacts: <game_id>_result.json.
const resultFileSuffix = "_result.json"

// gameArtifact is the per-game result JSON shape. It is the external
// contract for downstream tooling and the regeneration entry point.
type gameArtifact struct {
	GameID      string                         `json:"game_id"`
	GameInfo    gameInfoJSON                   `json:"game_info"`
	Evaluations map[string]criterionEvaluation `json:"evaluations"`
}

type gameInfoJSON struct {
	Format      string `json:"format"`
	PlayerCount int    `json:"player_count"`
}

type criterionEvaluation struct {
	Rankings []domain.RankedPlayer `json:"rankings"`
}

// Writer persists all artifacts under one output directory. It implements
// both application.GameResultWriter and application.AggregationWriter and is
// safe for concurrent use: each call writes a distinct file.
type Writer struct {
	outputDir string
	logger    *slog.Logger
}

// NewWriter creates the output directory if needed and returns a Writer.
func NewWriter(outputDir string, logger *slog.Logger) (*Writer, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Writer{outputDir: outputDir, logger: logger}, nil
}

// WriteGameResult persists one game's evaluations as
// <game_id>_result.json.
func (w *Writer) WriteGameResult(info domain.GameInfo, result *domain.GameResult) error {
	artifact := gameArtifact{
		GameID: info.GameID,
		GameInfo: gameInfoJSON{
			Format:      string(info.Format),
			PlayerCount: info.PlayerCount,
		},
		Evaluations: make(map[string]criterionEvaluation, result.Len()),
	}
	for _, cr := range result.Results() {
		artifact.Evaluations[cr.Criterion] = criterionEvaluation{Rankings: cr.Players}
	}

	path := filepath.Join(w.outputDir, info.GameID+resultFileSuffix)
	if err := w.writeJSON(path, artifact); err != nil {
		return err
	}
	w.logger.Debug("wrote game result", "game_id", info.GameID, "path", path)
	return nil
}

// WriteAggregation persists the aggregate artifact in all three formats.
func (w *Writer) WriteAggregation(agg application.Aggregation) error {
	if err := w.writeJSON(filepath.Join(w.outputDir, aggregationJSONFile), agg); err != nil {
		return err
	}
	if err := w.writeAggregationCSV(agg); err != nil {
		return err
	}
	if err := w.writeAggregationXLSX(agg); err != nil {
		return err
	}
	w.logger.Info("wrote aggregation artifacts", "output_dir", w.outputDir)
	return nil
}

// writeJSON marshals v with indentation and writes it atomically enough for
// a single-writer pipeline.
func (w *Writer) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeAggregationCSV writes one row per team with averages to six decimal
// places. Teams and criteria keep the order of the aggregation summary.
func (w *Writer) writeAggregationCSV(agg application.Aggregation) error {
	path := filepath.Join(w.outputDir, aggregationCSVFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := append([]string{"Team"}, agg.Summary.CriteriaEvaluated...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	for _, team := range agg.Summary.TeamsFound {
		row := make([]string, 0, len(header))
		row = append(row, team)
		for _, criterion := range agg.Summary.CriteriaEvaluated {
			row = append(row, fmt.Sprintf("%.6f", agg.TeamAverages[team][criterion]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// writeAggregationXLSX mirrors the CSV layout on a spreadsheet sheet, with
// numeric average cells.
func (w *Writer) writeAggregationXLSX(agg application.Aggregation) error {
	path := filepath.Join(w.outputDir, aggregationXLSXFile)
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := setRow(f, sheet, 1, headerCells(agg)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	for i, team := range agg.Summary.TeamsFound {
		cells := make([]any, 0, 1+len(agg.Summary.CriteriaEvaluated))
		cells = append(cells, team)
		for _, criterion := range agg.Summary.CriteriaEvaluated {
			cells = append(cells, agg.TeamAverages[team][criterion])
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func headerCells(agg application.Aggregation) []any {
	cells := make([]any, 0, 1+len(agg.Summary.CriteriaEvaluated))
	cells = append(cells, "Team")
	for _, criterion := range agg.Summary.CriteriaEvaluated {
		cells = append(cells, criterion)
	}
	return cells
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
