package tools

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/JaimeStill/adjuster/pkg/formatting"
)

// Responses for invocations the table cannot answer.
const (
	tipNoData  = "Negotiation data is not loaded. Please check the data file and logs. Generic tip: Prepare thoroughly and document all claim aspects."
	tipNoMatch = "No specific negotiation tip found. Ensure all claim details are well-documented and argue based on merit and comparable cases."
)

type tipKey struct {
	solicitorID string
	injuryType  string
}

type tipRecord struct {
	averageSettlement int64
	keyPoints         string
	percentileRank    string
	commonPitfall     string
}

// NegotiationTipTool serves settlement negotiation guidance from a CSV table
// keyed by (solicitor id, injury type). The table is loaded once on first
// use; a missing or unreadable file degrades to the generic fallback tip.
type NegotiationTipTool struct {
	path   string
	logger *slog.Logger

	once sync.Once
	data map[tipKey]tipRecord
}

// NewNegotiationTip builds the tool against the CSV table at path.
func NewNegotiationTip(path string, logger *slog.Logger) *NegotiationTipTool {
	return &NegotiationTipTool{
		path:   path,
		logger: logger.With("tool", ToolNegotiationTip),
	}
}

func (t *NegotiationTipTool) Name() string {
	return ToolNegotiationTip
}

func (t *NegotiationTipTool) Description() string {
	return "Provides negotiation tips based on claimant solicitor and injury type. Use this to get advice on how to approach settlement discussions."
}

func (t *NegotiationTipTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"solicitor_id": map[string]any{
				"type":        "string",
				"description": "The ID or name of the solicitor firm (e.g., 'S001', 'ACME Solicitors').",
			},
			"injury_type": map[string]any{
				"type":        "string",
				"description": "The type of injury (e.g., 'ASB001', 'WHIPLASH').",
			},
		},
		"required": []string{"solicitor_id", "injury_type"},
	}
}

func (t *NegotiationTipTool) Invoke(_ context.Context, args map[string]any) (string, error) {
	solicitorID, err := stringArg(args, "solicitor_id")
	if err != nil {
		return "", err
	}

	injuryType, err := stringArg(args, "injury_type")
	if err != nil {
		return "", err
	}

	return t.Tip(solicitorID, injuryType), nil
}

// Tip resolves guidance for a solicitor and injury pairing, falling back from
// an exact match to a general injury match to the table default.
func (t *NegotiationTipTool) Tip(solicitorID, injuryType string) string {
	data := t.load()
	if len(data) == 0 {
		return tipNoData
	}

	solicitor := strings.ToUpper(strings.TrimSpace(solicitorID))
	injury := strings.ToUpper(strings.TrimSpace(injuryType))

	if rec, ok := data[tipKey{solicitor, injury}]; ok {
		return fmt.Sprintf(
			"Tip for %s/%s: %s. Avg Settlement: £%s. Common Pitfall: %s",
			solicitorID, injuryType, rec.keyPoints,
			formatting.Thousands(rec.averageSettlement), rec.commonPitfall,
		)
	}

	general, ok := data[tipKey{"GENERAL", injury}]
	if !ok {
		if prefix, _, found := strings.Cut(injury, "_"); found {
			general, ok = data[tipKey{"GENERAL", prefix + "_ANY"}]
		}
	}
	if ok {
		return fmt.Sprintf(
			"General tip for %s: %s. Avg Settlement (General): £%s. Common Pitfall: %s",
			injuryType, general.keyPoints,
			formatting.Thousands(general.averageSettlement), general.commonPitfall,
		)
	}

	if rec, ok := data[tipKey{"DEFAULT", "DEFAULT"}]; ok {
		return fmt.Sprintf(
			"Default Tip: %s. Avg Settlement (Default): £%s. Common Pitfall: %s",
			rec.keyPoints, formatting.Thousands(rec.averageSettlement), rec.commonPitfall,
		)
	}

	return tipNoMatch
}

func (t *NegotiationTipTool) load() map[tipKey]tipRecord {
	t.once.Do(func() {
		data, err := loadNegotiationTable(t.path)
		if err != nil {
			t.logger.Warn("negotiation table unavailable", "path", t.path, "error", err)
		}
		t.data = data
	})

	return t.data
}

// loadNegotiationTable reads the CSV into a lookup map. Keys are uppercased;
// rows with blank keys get row-numbered placeholders so they never collide
// with real entries. Settlement amounts that fail to parse become 0.
func loadNegotiationTable(path string) (map[tipKey]tipRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{"solicitor_id", "injury_type"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %s", required)
		}
	}

	field := func(row []string, name, fallback string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return fallback
		}
		return row[i]
	}

	data := make(map[tipKey]tipRecord)

	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return data, fmt.Errorf("read row %d: %w", row, err)
		}

		solicitor := strings.ToUpper(strings.TrimSpace(field(record, "solicitor_id", "")))
		if solicitor == "" {
			solicitor = fmt.Sprintf("UNKNOWN_SOLICITOR_ROW_%d", row)
		}

		injury := strings.ToUpper(strings.TrimSpace(field(record, "injury_type", "")))
		if injury == "" {
			injury = fmt.Sprintf("UNKNOWN_INJURY_ROW_%d", row)
		}

		var settlement int64
		if raw := field(record, "average_settlement_gbp", "0"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				settlement = int64(v)
			}
		}

		data[tipKey{solicitor, injury}] = tipRecord{
			averageSettlement: settlement,
			keyPoints:         field(record, "negotiation_tip_key_points", "No specific tip available."),
			percentileRank:    field(record, "settlement_percentile_rank", "N/A"),
			commonPitfall:     field(record, "common_pitfall", "N/A"),
		}
	}

	return data, nil
}
