package check

import "context"

// SecretHeader carries the trigger secret on internal check calls.
const SecretHeader = "X-Cron-Secret"

// Reply is the answer of the per-user check endpoint.
type Reply struct {
	StatusCode   int
	Success      bool
	EmailCount   int
	MentionCount int
	// Error is the endpoint's error text for non-2xx answers.
	Error string
}

// OK reports a 2xx answer.
func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type CheckRepo interface {
	// RequestCheck asks the check endpoint to run for email. A returned error
	// means no answer could be read; non-2xx answers come back as a Reply.
	RequestCheck(ctx context.Context, email string) (*Reply, error)
}
