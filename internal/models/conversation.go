package models

import "time"

// Conversation steps for the complaint registration flow.
const (
	StepInitial           = "initial"
	StepCollectingName    = "collecting_name"
	StepCollectingMobile  = "collecting_mobile"
	StepCollectingDetails = "collecting_details"
)

// Conversation holds the slot-filling state of one chat session.
type Conversation struct {
	SessionID string    `json:"session_id"`
	Step      string    `json:"step"`
	Name      string    `json:"name,omitempty"`
	Mobile    string    `json:"mobile,omitempty"`
	Details   string    `json:"details,omitempty"`
	Category  string    `json:"category,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
