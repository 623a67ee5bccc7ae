package handler

import (
	"strings"

	"membership/internal/registration/models"
	"membership/internal/registration/wizard"
	dErrors "membership/pkg/domain-errors"
)

// AdvanceRequest is the body of POST /registration/advance. Only the fields
// of the current step are read; the rest may be omitted.
type AdvanceRequest struct {
	Step         models.StepID    `json:"step"`
	Phone        *string          `json:"phone,omitempty"`
	OTP          string           `json:"otp,omitempty"`
	ReferralCode *string          `json:"referralCode,omitempty"`
	Personal     *models.Personal `json:"personal,omitempty"`
	Plan         *string          `json:"plan,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *AdvanceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !r.Step.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "step is required")
	}
	if len(r.OTP) > 12 {
		return dErrors.New(dErrors.CodeValidation, "otp is too long")
	}
	r.OTP = strings.TrimSpace(r.OTP)
	return nil
}

// Input converts the request into wizard step input.
func (r *AdvanceRequest) Input() wizard.StepInput {
	return wizard.StepInput{
		Phone:        r.Phone,
		ReferralCode: r.ReferralCode,
		Personal:     r.Personal,
		Plan:         r.Plan,
		OTP:          r.OTP,
	}
}

// AddressRequest is the body of PUT /registration/addresses/{kind}/{level}.
// Code is a reference code or "CUSTOM"; Text is the custom city or the
// village.
type AddressRequest struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Validate implements httputil.Validatable.
func (r *AddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Code = strings.TrimSpace(r.Code)
	r.Text = strings.TrimSpace(r.Text)
	if len(r.Text) > 200 {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 200 characters")
	}
	return nil
}

// Choice converts the request into a cascade selection.
func (r *AddressRequest) Choice() wizard.AddressChoice {
	if strings.EqualFold(r.Code, models.CustomSentinel) {
		return wizard.AddressChoice{Custom: true, Text: r.Text}
	}
	return wizard.AddressChoice{Code: r.Code, Text: r.Text}
}

// KinshipRequest is the body of PUT /registration/kinship/{slot}. Text, when
// present, replaces the slot's free text even if the slot is predefined.
type KinshipRequest struct {
	Code string  `json:"code"`
	Text *string `json:"text,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *KinshipRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Code = strings.TrimSpace(r.Code)
	if r.Text != nil && len(*r.Text) > 100 {
		return dErrors.New(dErrors.CodeValidation, "text must be at most 100 characters")
	}
	return nil
}

// Choice converts the request into a kinship update.
func (r *KinshipRequest) Choice() wizard.KinshipChoice {
	if strings.EqualFold(r.Code, models.CustomSentinel) {
		return wizard.KinshipChoice{Custom: true, Text: r.Text}
	}
	return wizard.KinshipChoice{Code: r.Code, Text: r.Text}
}

// PlanRequest is the body of PUT /registration/plan.
type PlanRequest struct {
	Plan string `json:"plan"`
}

// Validate implements httputil.Validatable.
func (r *PlanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Plan = strings.TrimSpace(r.Plan)
	if r.Plan == "" {
		return dErrors.New(dErrors.CodeValidation, "plan is required")
	}
	return nil
}
