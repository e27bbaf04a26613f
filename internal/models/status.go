package models

import "time"

// Stage labels one step of a submission's processing lifecycle.
type Stage string

const (
	StageUploading   Stage = "uploading"
	StageUploaded    Stage = "uploaded"
	StageExtracting  Stage = "extracting"
	StageSummarizing Stage = "summarizing"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// StageStep pairs a stage with the progress percentage reported for it.
// Progress values are part of the client contract and differ by kind:
//
//	binary file: uploading(10) uploaded(25) extracting(40) summarizing(70) complete(100)
//	url:         extracting(30) summarizing(70) complete(100)
//	text note:   summarizing(50) complete(100)
//
// Writers advance through the steps for their kind in order, so progress
// never decreases within one run. The error stage sits outside every
// sequence and is terminal.
type StageStep struct {
	Stage    Stage
	Progress int
}

var (
	StepUploading       = StageStep{StageUploading, 10}
	StepUploaded        = StageStep{StageUploaded, 25}
	StepExtractingFile  = StageStep{StageExtracting, 40}
	StepExtractingURL   = StageStep{StageExtracting, 30}
	StepSummarizing     = StageStep{StageSummarizing, 70}
	StepSummarizingText = StageStep{StageSummarizing, 50}
	StepComplete        = StageStep{StageComplete, 100}
)

// The full plans, one per intake shape. Intake writes the leading steps and
// the pipeline task the rest. Text notes share the url kind in the registry
// but follow their own plan.
var (
	FilePlan = []StageStep{StepUploading, StepUploaded, StepExtractingFile, StepSummarizing, StepComplete}
	URLPlan  = []StageStep{StepExtractingURL, StepSummarizing, StepComplete}
	TextPlan = []StageStep{StepSummarizingText, StepComplete}
)

// PlanFor returns the stage plan for a registry kind. Text notes are not a
// registry kind of their own; their writers use TextPlan directly.
func PlanFor(kind FileKind) []StageStep {
	if kind == KindURL {
		return URLPlan
	}
	return FilePlan
}

// ProcessingStatus is the ephemeral progress document for one submission.
// It lives in the status store under a 24 hour TTL and is overwritten
// wholesale on every transition.
type ProcessingStatus struct {
	FileID    string    `json:"file_id"`
	OwnerUID  string    `json:"owner_uid"`
	Status    Stage     `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpireAt  time.Time `json:"expire_at"`
}
