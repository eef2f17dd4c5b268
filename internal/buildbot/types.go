package buildbot

// Result is the upstream build result code.
type Result int

// Result codes as defined by the upstream data API.
const (
	ResultSuccess   Result = 0
	ResultWarnings  Result = 1
	ResultFailure   Result = 2
	ResultSkipped   Result = 3
	ResultException Result = 4
	ResultRetry     Result = 5
	ResultCancelled Result = 6
)

// String returns the upstream's conventional lowercase name for the code.
func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultWarnings:
		return "warnings"
	case ResultFailure:
		return "failure"
	case ResultSkipped:
		return "skipped"
	case ResultException:
		return "exception"
	case ResultRetry:
		return "retry"
	case ResultCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MasterLink is one entry of a worker's connected_to list.
type MasterLink struct {
	MasterID int64 `json:"masterid"`
}

// BuilderLink is one entry of a worker's configured_on list.
type BuilderLink struct {
	BuilderID int64 `json:"builderid"`
	MasterID  int64 `json:"masterid"`
}

// Worker is the raw worker record from /workers.
type Worker struct {
	WorkerID     int64         `json:"workerid"`
	Name         string        `json:"name"`
	ConnectedTo  []MasterLink  `json:"connected_to"`
	ConfiguredOn []BuilderLink `json:"configured_on"`
}

// Connected reports whether the worker is currently attached to any master.
func (w Worker) Connected() bool { return len(w.ConnectedTo) > 0 }

// Builder is the raw builder record from /builders.
type Builder struct {
	BuilderID   int64    `json:"builderid"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Build is the raw build record from /builders/{id}/builds.
// Timestamps are unix seconds, as sent by the upstream.
type Build struct {
	BuildID    int64  `json:"buildid"`
	Number     int    `json:"number"`
	BuilderID  int64  `json:"builderid"`
	Results    Result `json:"results"`
	Complete   bool   `json:"complete"`
	StartedAt  int64  `json:"started_at"`
	CompleteAt int64  `json:"complete_at"`
}

// Change is one commit from a build's blamelist (/builds/{id}/changes).
type Change struct {
	ChangeID int64  `json:"changeid"`
	Author   string `json:"author"`
	Comments string `json:"comments"`
	Revision string `json:"revision"`
	When     int64  `json:"when_timestamp"`
}
