package sync

// Request and response bodies are explicit per endpoint so shape mismatches
// surface at compile time instead of at the wire.

type createReminderRequest struct {
	Name            string   `json:"name"`
	Dosage          string   `json:"dosage,omitempty"`
	Time            []string `json:"time"`
	Days            []string `json:"days"`
	Frequency       string   `json:"frequency,omitempty"`
	StartDate       string   `json:"startDate,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	WhatsAppEnabled bool     `json:"whatsappEnabled"`
	PhoneNumber     string   `json:"phoneNumber,omitempty"`
}

type toggleReminderRequest struct {
	Enabled bool `json:"enabled"`
}

type whatsAppRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Enabled     bool   `json:"enabled"`
}

// errorResponse is the backend's error envelope; Message is optional.
type errorResponse struct {
	Message string `json:"message"`
}
