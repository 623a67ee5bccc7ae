package steps

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"membership/internal/registration/kinship"
	"membership/internal/registration/models"
)

const (
	dateLayout = "2006-01-02"
	minimumAge = 18
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate normalizes the fields owned by step and checks them locally. It
// is pure: no collaborator is contacted.
func (m *Machine) Validate(step models.StepID, d models.Draft, in Input) (models.Draft, error) {
	out := d.Clone()
	var fields []models.FieldError

	switch step {
	case models.StepPhone:
		out.Phone = models.NormalizePhone(out.Phone)
		if out.Phone == "" {
			fields = append(fields, models.FieldError{Field: "phone", Message: "is required"})
		} else if !models.ValidPhone(out.Phone) {
			fields = append(fields, models.FieldError{Field: "phone", Message: "must be a 10-digit mobile number"})
		}
	case models.StepVerify:
		if !models.ValidOTP(strings.TrimSpace(in.OTP)) {
			fields = append(fields, models.FieldError{Field: "otp", Message: "must be the 6-digit code we sent"})
		}
	case models.StepReferral:
		out.ReferralCode = models.NormalizeReferralCode(out.ReferralCode)
		if out.ReferralCode == "" {
			fields = append(fields, models.FieldError{Field: "referralCode", Message: "is required"})
		} else if !models.ValidReferralCode(out.ReferralCode) {
			fields = append(fields, models.FieldError{Field: "referralCode", Message: fmt.Sprintf("must be %d letters, digits or dashes", models.ReferralCodeLength)})
		}
	case models.StepPersonal:
		out.Personal.Normalize()
		fields = m.validatePersonal(out.Personal)
	case models.StepAddress:
		fields = validateAddresses(&out.Addresses)
	case models.StepKinship:
		fields = kinship.Validate(out.Kinship)
	case models.StepPlan:
		out.Plan = strings.TrimSpace(out.Plan)
		fields = m.validatePlan(out.Plan)
	default:
		return d, models.ErrStepMismatch
	}

	if len(fields) > 0 {
		return d, models.NewValidationError(step, fields...)
	}
	return out, nil
}

func (m *Machine) validatePersonal(p models.Personal) []models.FieldError {
	var fields []models.FieldError
	err := m.validate.Struct(p)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, models.FieldError{Field: fe.Field(), Message: messageFor(fe)})
		}
	}
	if p.DateOfBirth == "" {
		return fields
	}
	dob, err := time.Parse(dateLayout, p.DateOfBirth)
	if err != nil {
		return fields
	}
	today := m.clock().UTC()
	switch {
	case dob.After(today):
		fields = append(fields, models.FieldError{Field: "dateOfBirth", Message: "cannot be in the future"})
	case ageOn(dob, today) < minimumAge:
		fields = append(fields, models.FieldError{Field: "dateOfBirth", Message: fmt.Sprintf("applicant must be at least %d", minimumAge)})
	}
	return fields
}

func (m *Machine) validatePlan(plan string) []models.FieldError {
	if plan == "" {
		return []models.FieldError{{Field: "plan", Message: "select a plan"}}
	}
	if len(m.plans) == 0 {
		return nil
	}
	if _, ok := m.plans[plan]; !ok {
		return []models.FieldError{{Field: "plan", Message: "is not an available plan"}}
	}
	return nil
}

func validateAddresses(addrs *models.Addresses) []models.FieldError {
	var fields []models.FieldError
	for _, kind := range models.AddressKinds {
		a := addrs.Get(kind)
		a.Village = strings.TrimSpace(a.Village)
		a.City = strings.TrimSpace(a.City)
		prefix := "addresses." + string(kind) + "."
		if a.State == "" {
			fields = append(fields, models.FieldError{Field: prefix + "state", Message: "select a state"})
		}
		if a.District == "" {
			fields = append(fields, models.FieldError{Field: prefix + "district", Message: "select a district"})
		}
		if a.City == "" {
			fields = append(fields, models.FieldError{Field: prefix + "city", Message: "select or enter a city"})
		}
	}
	return fields
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	}
	return "is invalid"
}

func ageOn(dob, day time.Time) int {
	age := day.Year() - dob.Year()
	if day.Month() < dob.Month() || (day.Month() == dob.Month() && day.Day() < dob.Day()) {
		age--
	}
	return age
}
