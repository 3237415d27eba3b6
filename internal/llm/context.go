package llm

import "context"

// Purpose labels for provider calls. The logging decorator stamps every
// call record with the purpose found in its context, which is what lets
// usage be traced back to the capability that spent the tokens.
const (
	PurposeEvidence  = "evidence-analysis"
	PurposeJudging   = "answer-judging"
	PurposeQuestions = "question-gen"
)

type ctxKey int

const purposeCtxKey ctxKey = iota

// WithPurpose labels the context with the capability making the call.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeCtxKey, purpose)
}

// PurposeFrom returns the purpose label, or "unknown" for unlabeled contexts.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeCtxKey).(string); ok {
		return v
	}
	return "unknown"
}
