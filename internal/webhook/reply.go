package webhook

// Reply is the calendar answer extracted from a webhook response
type Reply struct {
	// Spoken is the short voice-friendly answer
	Spoken string `json:"spoken"`
	// WebResponse is the richer markdown-like text meant for display, if any
	WebResponse string `json:"web_response,omitempty"`
}

// DisplayText returns the text to show: the web response when present, the spoken answer otherwise
func (r *Reply) DisplayText() string {
	if r.WebResponse != "" {
		return r.WebResponse
	}
	return r.Spoken
}
