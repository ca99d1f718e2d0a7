package response

// ChallengeResponse reports whether a challenge was attempted. It never
// reveals whether the identifier belongs to a registered channel.
type ChallengeResponse struct {
	Accepted          bool   `json:"accepted"`
	Delivered         *bool  `json:"delivered,omitempty"`
	RetryAfterSeconds *int   `json:"retry_after_seconds,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

type VerifyResponse struct {
	Verified     bool   `json:"verified"`
	Reason       string `json:"reason,omitempty"`
	FailureCount *int   `json:"failure_count,omitempty"`
}
