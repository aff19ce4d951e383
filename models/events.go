package models

// Event is any message the engine pushes to the host process.
type Event interface{ isEvent() }

// ProgressEvent is emitted once per page attempt. Ephemeral: the engine
// never retains it after sending.
type ProgressEvent struct {
	Star         int     `json:"star"`
	Page         int     `json:"page"`
	MaxPages     int     `json:"max_pages"`
	Message      string  `json:"message"`
	TotalReviews int     `json:"total_reviews"`
	Percent      float64 `json:"percent"`
}

// ErrorEvent is emitted on captcha detection or fatal segment abort.
type ErrorEvent struct {
	Message string `json:"message"`
}

// CompletionEvent is terminal and emitted exactly once per session.
type CompletionEvent struct {
	Success     bool             `json:"success"`
	ReviewCount int              `json:"review_count"`
	Records     []*ReviewRecord  `json:"records,omitempty"`
	Snapshot    *ProductSnapshot `json:"snapshot,omitempty"`
	Error       string           `json:"error,omitempty"`
}

func (ProgressEvent) isEvent()   {}
func (ErrorEvent) isEvent()      {}
func (CompletionEvent) isEvent() {}

// Command is a host-process instruction consumed by the engine mailbox.
type Command interface{ isCommand() }

// StartCollectionCommand requests a new collection session. When Identity is
// nil the engine resolves it from the document at ProductURL first; failure
// to resolve is reported and no session is created.
type StartCollectionCommand struct {
	Identity   *ProductIdentity
	ProductURL string
	Config     CollectionConfig
}

// StopCommand sets the cancellation flag on the active session. The engine
// acknowledges asynchronously through the next event.
type StopCommand struct{}

func (StartCollectionCommand) isCommand() {}
func (StopCommand) isCommand()            {}
