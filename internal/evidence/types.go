package evidence

// EvidenceFlag is the Yes/No answer to "is valid evidence available".
type EvidenceFlag string

const (
	EvidenceYes EvidenceFlag = "Yes"
	EvidenceNo  EvidenceFlag = "No"
)

// Reasons a task could not produce evidence, offered on the No branch.
var Reasons = []string{
	"Element Fixture Not Ready",
	"Product Missing",
	"Space Not Available",
	"Store Closed",
	"Other",
}

// ImageRef points at a captured image on local storage. Insertion order into
// a session is significant: it drives the ordinal field names of the upload.
type ImageRef struct {
	URI         string
	Type        string
	FileName    string
	Watermarked bool
}

// TaskRef identifies the merchandising task a submission is filed against.
type TaskRef struct {
	ElementID           string
	StoreCode           string
	TaskID              string
	MediaPlanID         string
	ExecutionTemplateID string
}

// State of a capture session.
type State string

const (
	StateIdle              State = "Idle"
	StateSelectingEvidence State = "SelectingEvidence"
	StateHasImages         State = "HasImages"
	StateHasReason         State = "HasReason"
	StateSubmitting        State = "Submitting"
	StateSubmitted         State = "Submitted"
	StateFailed            State = "Failed"
)
