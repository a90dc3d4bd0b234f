package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/retrieval"
	"github.com/JaimeStill/adjuster/pkg/graph"
)

// Payload is the claim facts record emitted to the broker when a run
// finishes drafting. The key set is fixed; downstream consumers depend on
// it.
type Payload struct {
	SessionID              string             `json:"session_id"`
	DocumentID             string             `json:"document_id"`
	Summary                string             `json:"summary"`
	FinalAnswer            string             `json:"final_answer"`
	Sources                []retrieval.Source `json:"sources"`
	DraftFilePath          string             `json:"draft_file_path"`
	DraftStrategyNote      string             `json:"draft_strategy_note"`
	NegotiationCoachAdvice string             `json:"negotiation_coach_advice"`
	ReservePrediction      string             `json:"reserve_prediction"`
	UserCriteria           string             `json:"user_criteria"`
	QAHistory              string             `json:"qa_history_str"`
	OrchestrationStatus    string             `json:"orchestration_status"`
}

// PublishNode serializes the run's outcome and emits it to the claim facts
// subject. Exactly one attempt is made per run; any failure is recorded as a
// Failed publish status with the error text and the run continues to the
// terminal node with its other outcomes untouched.
func PublishNode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		subject := rt.subject()

		data, err := json.Marshal(buildPayload(s))
		if err != nil {
			s.PublishStatus = PublishFailed
			s.PublishError = "failed to serialize payload: " + err.Error()
			s.step("publish: %s", s.PublishError)
			rt.Logger.ErrorContext(
				ctx, "publish: payload serialization failed",
				"session", s.SessionID,
				"error", err,
			)
			return s, nil
		}

		s.Payload = data

		pctx, cancel := withTimeout(ctx, rt.Pipeline.PublishTimeoutDuration())
		defer cancel()

		if err := rt.Broker.Publish(pctx, subject, data); err != nil {
			s.PublishStatus = PublishFailed
			s.PublishError = "failed to publish payload: " + err.Error()
			s.step("publish: %s", s.PublishError)
			rt.Logger.ErrorContext(
				ctx, "publish: broker send failed",
				"session", s.SessionID,
				"subject", subject,
				"error", err,
			)
			return s, nil
		}

		s.PublishStatus = PublishSuccess
		s.PublishError = ""
		s.step("publish: payload sent to subject %s", subject)

		rt.Logger.InfoContext(
			ctx, "publish complete",
			"session", s.SessionID,
			"subject", subject,
			"bytes", len(data),
		)

		return s, nil
	}
}

// buildPayload snapshots the fixed field set consumers receive.
func buildPayload(s *State) Payload {
	documentID := ""
	if s.DocumentID != uuid.Nil {
		documentID = s.DocumentID.String()
	}

	sources := s.Sources
	if sources == nil {
		sources = []retrieval.Source{}
	}

	return Payload{
		SessionID:              s.SessionID.String(),
		DocumentID:             documentID,
		Summary:                s.Summary,
		FinalAnswer:            s.Answer,
		Sources:                sources,
		DraftFilePath:          s.DraftFile,
		DraftStrategyNote:      s.DraftNote,
		NegotiationCoachAdvice: s.NegotiationAdvice,
		ReservePrediction:      s.ReservePrediction,
		UserCriteria:           s.UserCriteria,
		QAHistory:              s.HistoryText(),
		OrchestrationStatus:    string(s.Status),
	}
}
