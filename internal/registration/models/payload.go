package models

// FileURLs carries the uploaded document locations.
type FileURLs struct {
	JanAadhaar   string `json:"janAadhaar"`
	ProfilePhoto string `json:"profilePhoto"`
}

// BypassFlags records which optional steps the active configuration skipped.
type BypassFlags struct {
	PhoneVerification bool `json:"phoneVerification,omitempty"`
	Payment           bool `json:"payment,omitempty"`
}

// Payload is the finalize contract sent to the registration or payment
// collaborator.
type Payload struct {
	Phone        string            `json:"phone"`
	ReferralCode string            `json:"referralCode"`
	Personal     Personal          `json:"personal"`
	Addresses    Addresses         `json:"addresses"`
	Kinship      map[Slot]string   `json:"kinship"`
	FileURLs     FileURLs          `json:"fileUrls"`
	Plan         string            `json:"plan"`
	BypassFlags  *BypassFlags      `json:"bypassFlags,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Registration is the direct-registration collaborator's answer.
type Registration struct {
	MemberID string `json:"memberId"`
}

// PaymentHandoff is the payment collaborator's answer.
type PaymentHandoff struct {
	RedirectURL string `json:"redirectUrl"`
	OrderID     string `json:"orderId"`
}
