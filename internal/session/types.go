package session

import "time"

// Session is one persisted conversation/workflow session. ID, AgentID
// and Phase are the required fields Save and Load validate; everything
// else is free-form.
type Session struct {
	ID        string         `json:"id"`
	AgentID   string         `json:"agent_id"`
	Phase     string         `json:"phase"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (s *Session) validate() error {
	if s.ID == "" {
		return errMissingField("id")
	}
	if s.AgentID == "" {
		return errMissingField("agent_id")
	}
	if s.Phase == "" {
		return errMissingField("phase")
	}
	return nil
}

type missingFieldError struct {
	field string
}

func (e *missingFieldError) Error() string {
	return "missing required field: " + e.field
}

func errMissingField(field string) error {
	return &missingFieldError{field: field}
}
