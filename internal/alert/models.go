package alert

// Channel is a distinct notification delivery mechanism.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelPush     Channel = "push"
)

// Channel selectors accepted by Send. "both" expands to sms+email, "all" to
// every channel the contact has an address for.
const (
	SelectorBoth = "both"
	SelectorAll  = "all"
)

// Contact is the dispatcher's view of an emergency contact. The contact set
// is provided by the caller; the dispatcher does not own its lifecycle.
type Contact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	ChatID       string `json:"chat_id,omitempty"`
	PushEndpoint string `json:"push_endpoint,omitempty"`
}

// ChannelResult records the outcome of one channel for one contact.
type ChannelResult struct {
	Success    bool   `json:"success"`
	ProviderID string `json:"provider_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AttemptResult is the per-contact outcome of a dispatch invocation.
type AttemptResult struct {
	ContactID      string                    `json:"contact_id"`
	ContactName    string                    `json:"contact_name"`
	ChannelResults map[Channel]ChannelResult `json:"channel_results"`
	AttemptsUsed   int                       `json:"attempts_used"`
	OverallSuccess bool                      `json:"overall_success"`
}

// Summary aggregates a dispatch invocation for logging and callers.
type Summary struct {
	TotalContacts int `json:"total_contacts"`
	Successful    int `json:"successful"`
	Failed        int `json:"failed"`
	TotalAttempts int `json:"total_attempts"`
}

// Summarize folds per-contact results into an aggregate.
func Summarize(results []AttemptResult) Summary {
	s := Summary{TotalContacts: len(results)}
	for _, r := range results {
		if r.OverallSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
		s.TotalAttempts += r.AttemptsUsed
	}
	return s
}
