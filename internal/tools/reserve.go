package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ReservePredictionTool calls the reserve predictor microservice for an
// estimated financial reserve. Transport and service failures are rendered
// into the result text so the model can react to them; only argument
// contract violations surface as errors.
type ReservePredictionTool struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewReservePrediction builds the tool against the predictor endpoint at url.
func NewReservePrediction(url string, timeout time.Duration, logger *slog.Logger) *ReservePredictionTool {
	return &ReservePredictionTool{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("tool", ToolReservePrediction),
	}
}

func (t *ReservePredictionTool) Name() string {
	return ToolReservePrediction
}

func (t *ReservePredictionTool) Description() string {
	return "Predicts the likely reserve amount for a claim based on various claim features. Use this to get an estimated financial reserve."
}

func (t *ReservePredictionTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feature1": map[string]any{
				"type":        "number",
				"description": "Continuous feature 1 for prediction.",
			},
			"feature2": map[string]any{
				"type":        "number",
				"description": "Continuous feature 2 for prediction.",
			},
			"feature3": map[string]any{
				"type":        "number",
				"description": "Continuous feature 3 for prediction.",
			},
			"injury_type": map[string]any{
				"type":        "string",
				"description": "Categorical injury type for prediction (e.g., 'WHIPLASH', 'FRACTURE').",
			},
		},
		"required": []string{"feature1", "feature2", "feature3", "injury_type"},
	}
}

type predictRequest struct {
	Feature1   float64 `json:"feature1"`
	Feature2   float64 `json:"feature2"`
	Feature3   float64 `json:"feature3"`
	InjuryType string  `json:"injury_type"`
}

type predictResponse struct {
	Prediction   *float64 `json:"prediction"`
	ModelVersion string   `json:"model_version"`
}

func (t *ReservePredictionTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	feature1, err := floatArg(args, "feature1")
	if err != nil {
		return "", err
	}

	feature2, err := floatArg(args, "feature2")
	if err != nil {
		return "", err
	}

	feature3, err := floatArg(args, "feature3")
	if err != nil {
		return "", err
	}

	injuryType, err := stringArg(args, "injury_type")
	if err != nil {
		return "", err
	}

	return t.predict(ctx, predictRequest{
		Feature1:   feature1,
		Feature2:   feature2,
		Feature3:   feature3,
		InjuryType: injuryType,
	}), nil
}

func (t *ReservePredictionTool) predict(ctx context.Context, payload predictRequest) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("Error: Could not connect to Reserve Predictor service: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Sprintf("Error: Could not connect to Reserve Predictor service: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Warn("reserve predictor request failed", "url", t.url, "error", err)
		return fmt.Sprintf("Error: Could not connect to Reserve Predictor service: %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.Warn("reserve predictor response unreadable", "error", err)
		return fmt.Sprintf("Error: Could not connect to Reserve Predictor service: %s", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("reserve predictor returned error status", "status", resp.StatusCode)
		return fmt.Sprintf("Error: Reserve Predictor service returned status %d: %s", resp.StatusCode, body)
	}

	var parsed predictResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.logger.Warn("reserve predictor response malformed", "error", err)
		return "Error: Prediction not found in response from Reserve Predictor."
	}

	if parsed.Prediction == nil {
		return "Error: Prediction not found in response from Reserve Predictor."
	}

	version := parsed.ModelVersion
	if version == "" {
		version = "N/A"
	}

	return fmt.Sprintf("Reserve Prediction: %.2f (Model: %s)", *parsed.Prediction, version)
}
