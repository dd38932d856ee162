package domain

// Need tells a retrying agent which phase to repeat.
type Need string

const (
	NeedSearch   Need = "search"
	NeedGenerate Need = "generate"
	NeedNone     Need = ""
)

// TaskEvaluation is the verdict the evaluator LLM returns for one task result.
// IsSatisfactory and Need are mutually exclusive: a satisfactory result needs
// nothing, an unsatisfactory one names the phase to redo.
type TaskEvaluation struct {
	IsSatisfactory bool
	Need           Need
	Reason         string
	Feedback       string
}

// WorkflowResult is what one full orchestrator run produces: the synthesized
// answer and the plan whose tasks carry their final statuses and logs.
type WorkflowResult struct {
	Answer   string
	TaskPlan *TaskPlan
}
