package submission

import (
	"membership/internal/registration/kinship"
	"membership/internal/registration/models"
)

// BuildPayload assembles the finalize contract from a validated draft with
// all files resolved. Kinship slots resolve to codes or custom text; the
// custom sentinel never leaves the process.
func BuildPayload(d models.Draft, topology models.Topology, paymentEnabled bool) models.Payload {
	p := models.Payload{
		Phone:     d.Phone,
		Personal:  d.Personal,
		Addresses: d.Addresses,
		Kinship:   kinship.ResolveAll(d.Kinship),
		Plan:      d.Plan,
	}
	if topology.Contains(models.StepReferral) {
		p.ReferralCode = d.ReferralCode
	}
	p.FileURLs.JanAadhaar, _, _ = d.Files.JanAadhaar.Resolved()
	p.FileURLs.ProfilePhoto, _, _ = d.Files.ProfilePhoto.Resolved()

	bypass := models.BypassFlags{
		PhoneVerification: !topology.Contains(models.StepVerify),
		Payment:           !paymentEnabled,
	}
	if bypass.PhoneVerification || bypass.Payment {
		p.BypassFlags = &bypass
	}
	return p
}
