package models

// Receipt is an uploaded receipt as the storage layer keeps it.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string `json:"id"`

	// Filename is the name the image was uploaded under.
	Filename string `json:"filename"`

	// RawText is the OCR output the extraction started from.
	RawText string `json:"raw_text"`

	// Extracted is the unvalidated guess from the LLM, as last corrected by the caller.
	Extracted *RawReceipt `json:"extracted,omitempty"`

	// Validated is set once the receipt reconciles.
	Validated *ValidatedReceipt `json:"validated,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// SplitRecord is a persisted split calculation.
type SplitRecord struct {
	ID        string `json:"id"`
	ReceiptID string `json:"receipt_id,omitempty"`

	// Title is the human-readable name, auto-generated from participants when empty.
	Title string `json:"title"`

	Participants []Participant     `json:"participants"`
	Assignments  []ItemAssignment  `json:"assignments"`
	Modes        DistributionModes `json:"modes"`
	PayerID      string            `json:"payer_id,omitempty"`

	Receipt *ValidatedReceipt `json:"receipt"`
	Result  *SplitResult      `json:"result"`

	CreatedAt int64 `json:"created_at"`
}

// SessionState is the wizard state a guest session carries between steps.
type SessionState struct {
	CurrentStep       int              `json:"current_step"`
	Participants      []Participant    `json:"participants"`
	KnownParticipants []Participant    `json:"known_participants"`
	ReceiptID         string           `json:"receipt_id,omitempty"`
	ItemAssignments   []ItemAssignment `json:"item_assignments"`
	SplitResult       *SplitResult     `json:"split_result,omitempty"`
}

// Session is a short-lived guest session.
// Every update pushes ExpiresAt forward by the configured TTL.
type Session struct {
	Token     string       `json:"token"`
	State     SessionState `json:"state"`
	ExpiresAt int64        `json:"expires_at"`
	CreatedAt int64        `json:"created_at"`
	UpdatedAt int64        `json:"updated_at"`
}
