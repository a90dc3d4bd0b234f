package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/retrieval"
	"github.com/JaimeStill/adjuster/pkg/toolcall"
)

// Status tracks where a run stands in its lifecycle.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusBlocked    Status = "Blocked"
	StatusComplete   Status = "Complete"
	StatusFailed     Status = "Failed"
)

// DraftStatus tracks the drafting loop. Transitions only move
// Pending → ToolCallRequested → Pending → ... → DraftComplete; once a draft
// is complete the status never moves backward.
type DraftStatus string

const (
	DraftPending           DraftStatus = "Pending"
	DraftToolCallRequested DraftStatus = "ToolCallRequested"
	DraftComplete          DraftStatus = "DraftComplete"
)

// PublishStatus records the outcome of the single publication attempt.
type PublishStatus string

const (
	PublishUnset   PublishStatus = ""
	PublishSuccess PublishStatus = "Success"
	PublishFailed  PublishStatus = "Failed"
)

// Message is one entry in the drafting conversation. Assistant messages may
// carry tool call requests; tool messages carry the id of the call they
// answer.
type Message struct {
	Role    string          `json:"role"`
	Content string          `json:"content"`
	Calls   []toolcall.Call `json:"tool_calls,omitempty"`
	CallID  string          `json:"tool_call_id,omitempty"`
}

// Exchange is one question-and-answer pair retained for drafting context.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// State is the single mutable record threaded through a claim processing
// run. Exactly one stage mutates it at a time; the engine owns it for the
// duration of the run and callers inspect it afterward rather than catching
// errors. Steps is append-only and never truncated.
type State struct {
	SessionID    uuid.UUID
	DocumentID   uuid.UUID
	Collection   string
	Request      string
	Override     string
	Question     string
	UserCriteria string
	Filename     string

	Steps  []string
	Status Status

	Summary string

	Answer      string
	Sources     []retrieval.Source
	Confidence  int
	SubAttempts int
	QARetries   int
	History     []Exchange

	Conversation []Message
	DraftStatus  DraftStatus
	DraftNote    string
	DraftFile    string
	ToolRounds   int

	NegotiationAdvice string
	ReservePrediction string

	Payload       []byte
	PublishStatus PublishStatus
	PublishError  string

	ErrorMessage string
	LastActivity string
}

// NewState seeds a run record for the given session.
func NewState(sessionID uuid.UUID) *State {
	return &State{
		SessionID:   sessionID,
		Status:      StatusPending,
		DraftStatus: DraftPending,
	}
}

// HistoryText renders the retained Q&A exchanges as newline-separated
// "Q: ... / A: ..." blocks for prompts and the publication payload.
func (s *State) HistoryText() string {
	if len(s.History) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(s.History))
	for _, ex := range s.History {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s", ex.Question, ex.Answer))
	}

	return strings.Join(blocks, "\n")
}

// step appends one audit entry.
func (s *State) step(format string, args ...any) {
	s.Steps = append(s.Steps, fmt.Sprintf(format, args...))
}

// fail records a stage failure without aborting the run.
func (s *State) fail(format string, args ...any) {
	s.ErrorMessage = fmt.Sprintf(format, args...)
}

// ClampConfidence forces a collaborator-reported confidence into the valid
// 1-5 range.
func ClampConfidence(confidence int) int {
	return min(max(confidence, 1), 5)
}
