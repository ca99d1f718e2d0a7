package request

type RequestChallengeRequest struct {
	Channel    string `json:"channel" validate:"required,oneof=email sms"`
	Identifier string `json:"identifier" validate:"required,min=3,max=254"`
}

type VerifyChallengeRequest struct {
	Channel    string `json:"channel" validate:"required,oneof=email sms"`
	Identifier string `json:"identifier" validate:"required,min=3,max=254"`
	Code       string `json:"code" validate:"required,numeric,min=4,max=10"`
}
