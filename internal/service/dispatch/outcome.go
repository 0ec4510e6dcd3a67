package dispatch

import "encoding/json"

type Status string

const (
	StatusSkipped Status = "skipped"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// SkipReasonNoWebhook is recorded for users without a Slack webhook.
const SkipReasonNoWebhook = "No Slack webhook configured"

// Outcome is the per-user result of a dispatch run. It is one of Skipped,
// Succeeded, Failed or Errored.
type Outcome interface {
	Email() string
	Status() Status
	isOutcome()
}

// Skipped: the user was not checked.
type Skipped struct {
	UserEmail string
	Reason    string
}

// Succeeded: the check endpoint answered 2xx.
type Succeeded struct {
	UserEmail  string
	EmailCount int
}

// Failed: the check endpoint answered non-2xx.
type Failed struct {
	UserEmail string
	Error     string
}

// Errored: no answer could be read from the check endpoint.
type Errored struct {
	UserEmail string
	Error     string
}

func (o Skipped) Email() string   { return o.UserEmail }
func (o Succeeded) Email() string { return o.UserEmail }
func (o Failed) Email() string    { return o.UserEmail }
func (o Errored) Email() string   { return o.UserEmail }

func (Skipped) Status() Status   { return StatusSkipped }
func (Succeeded) Status() Status { return StatusSuccess }
func (Failed) Status() Status    { return StatusFailed }
func (Errored) Status() Status   { return StatusError }

func (Skipped) isOutcome()   {}
func (Succeeded) isOutcome() {}
func (Failed) isOutcome()    {}
func (Errored) isOutcome()   {}

func (o Skipped) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Email  string `json:"email"`
		Status Status `json:"status"`
		Reason string `json:"reason"`
	}{o.UserEmail, StatusSkipped, o.Reason})
}

func (o Succeeded) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Email      string `json:"email"`
		Status     Status `json:"status"`
		EmailCount int    `json:"emailCount"`
	}{o.UserEmail, StatusSuccess, o.EmailCount})
}

func (o Failed) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Email  string `json:"email"`
		Status Status `json:"status"`
		Error  string `json:"error"`
	}{o.UserEmail, StatusFailed, o.Error})
}

func (o Errored) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Email  string `json:"email"`
		Status Status `json:"status"`
		Error  string `json:"error"`
	}{o.UserEmail, StatusError, o.Error})
}

// Result aggregates one dispatch run. Failed counts both Failed and Errored
// outcomes. Skipped users count toward Total only.
type Result struct {
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Details    []Outcome `json:"details"`
}

// Count returns how many details carry status.
func (r *Result) Count(status Status) int {
	n := 0
	for _, d := range r.Details {
		if d.Status() == status {
			n++
		}
	}
	return n
}
