package models

import (
	"strings"
	"time"
)

// Personal holds identity details entered on the personal step.
type Personal struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	DateOfBirth   string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender        string `json:"gender" validate:"required,oneof=male female other"`
	MaritalStatus string `json:"maritalStatus" validate:"required,oneof=single married divorced widowed"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
}

// Normalize trims whitespace and lowercases enumerations and email.
func (p *Personal) Normalize() {
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.MaritalStatus = strings.ToLower(strings.TrimSpace(p.MaritalStatus))
}

// Draft is the single source of truth for an in-progress registration.
type Draft struct {
	Step         StepID     `json:"step"`
	Phone        string     `json:"phone"`
	ReferralCode string     `json:"referralCode"`
	Personal     Personal   `json:"personal"`
	Addresses    Addresses  `json:"addresses"`
	Kinship      KinshipSet `json:"kinship"`
	Plan         string     `json:"plan"`
	Files        Files      `json:"fileRefs"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewDraft returns an empty draft positioned on the first step of t.
func NewDraft(t Topology) Draft {
	return Draft{Step: t.First()}
}

// Clone returns a copy that shares no mutable maps with d.
func (d Draft) Clone() Draft {
	out := d
	out.Kinship = d.Kinship.clone()
	return out
}

// Persistable returns the form of d that may be written to durable storage:
// pending raw files become empty refs.
func (d Draft) Persistable() Draft {
	out := d.Clone()
	out.Files.JanAadhaar = d.Files.JanAadhaar.Persistable()
	out.Files.ProfilePhoto = d.Files.ProfilePhoto.Persistable()
	return out
}

// ReturnStatus is the indicator carried on the payment provider's return URL.
type ReturnStatus string

const (
	ReturnNone    ReturnStatus = ""
	ReturnFailed  ReturnStatus = "failed"
	ReturnPending ReturnStatus = "pending"
)

// ParseReturnStatus maps a query value onto a known status; anything else
// is treated as a normal entry.
func ParseReturnStatus(v string) ReturnStatus {
	switch ReturnStatus(strings.ToLower(strings.TrimSpace(v))) {
	case ReturnFailed:
		return ReturnFailed
	case ReturnPending:
		return ReturnPending
	}
	return ReturnNone
}

// Notice is a non-fatal, user-visible message shown alongside the wizard.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NoticeFor returns the notice shown after returning with status.
func NoticeFor(status ReturnStatus) *Notice {
	switch status {
	case ReturnFailed:
		return &Notice{Kind: "payment_failed", Message: "Your payment did not go through. You can retry from this step."}
	case ReturnPending:
		return &Notice{Kind: "payment_pending", Message: "Your payment is still being confirmed. You can retry from this step if it does not complete."}
	}
	return nil
}
