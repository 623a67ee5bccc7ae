// Package ports declares the collaborator contracts the registration core
// consumes. Adapters live under internal/collaborators and internal/referencedata.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

import (
	"context"

	"membership/internal/registration/models"
)

// ReferenceData lists reference entries for a level. District and city
// lists need a parent code; an empty parent yields an empty list.
type ReferenceData interface {
	List(ctx context.Context, level models.Level, parentCode string) ([]models.ReferenceEntry, error)
}

// PhoneRegistry answers whether a phone number already belongs to a member.
type PhoneRegistry interface {
	PhoneExists(ctx context.Context, phone string) (bool, error)
}

// ReferralRegistry answers whether a referral code exists.
type ReferralRegistry interface {
	ReferralExists(ctx context.Context, code string) (bool, error)
}

// Verifier sends and checks one-time codes for phone verification.
type Verifier interface {
	Send(ctx context.Context, phone string) error
	Check(ctx context.Context, phone, code string) (bool, error)
}

// Uploader stores a raw file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, field models.FileField, file models.RawFile) (url string, err error)
}

// Registrar creates the member synchronously.
type Registrar interface {
	Register(ctx context.Context, payload models.Payload) (models.Registration, error)
}

// PaymentGateway starts a payment and returns where to send the user.
type PaymentGateway interface {
	Initiate(ctx context.Context, payload models.Payload) (models.PaymentHandoff, error)
}
