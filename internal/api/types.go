package api

// BuildRef is one labeled affected build inside a problem.
type BuildRef struct {
	Label     string `json:"label"`
	BuildID   int64  `json:"build_id"`
	Number    int    `json:"number"`
	Builder   string `json:"builder"`
	Result    string `json:"result"`
	StartedAt string `json:"started_at"` // RFC3339
}

// ProblemResponse is one classified problem.
type ProblemResponse struct {
	Kind        string     `json:"kind"`
	Severity    string     `json:"severity"`
	Band        string     `json:"band"`
	Description string     `json:"description"`
	Builds      []BuildRef `json:"builds,omitempty"`
}

// BuilderResponse is one builder with its classification in
// GET /api/v1/builders.
type BuilderResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Branch    string            `json:"branch"`
	Tier      string            `json:"tier"`
	Stable    bool              `json:"stable"`
	Connected bool              `json:"connected"`
	Problems  []ProblemResponse `json:"problems"`
}

// BranchStatus is one release line in GET /api/v1/status.
type BranchStatus struct {
	Tag      string            `json:"tag"`
	Band     string            `json:"band"`
	Featured ProblemResponse   `json:"featured"`
	Problems []ProblemResponse `json:"problems"`
}

// StatusResponse is the payload for GET /api/v1/status, and the websocket
// broadcast body.
type StatusResponse struct {
	GeneratedAt string         `json:"generated_at"` // RFC3339
	Branches    []BranchStatus `json:"branches"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	CacheFilled bool   `json:"cache_filled"`
	GeneratedAt string `json:"generated_at,omitempty"` // RFC3339
}

type errorResponse struct {
	Error string `json:"error"`
}
