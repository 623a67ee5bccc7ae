package steps_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"membership/internal/registration/models"
	"membership/internal/registration/ports/mocks"
	"membership/internal/registration/steps"
	dErrors "membership/pkg/domain-errors"
)

type MachineSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	phones    *mocks.MockPhoneRegistry
	referrals *mocks.MockReferralRegistry
	verifier  *mocks.MockVerifier
	today     time.Time
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.phones = mocks.NewMockPhoneRegistry(s.ctrl)
	s.referrals = mocks.NewMockReferralRegistry(s.ctrl)
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.today = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
}

func (s *MachineSuite) machine(flags models.Flags) *steps.Machine {
	return steps.New(flags, steps.Collaborators{
		Phones:    s.phones,
		Referrals: s.referrals,
		Verifier:  s.verifier,
	}, steps.WithClock(func() time.Time { return s.today }), steps.WithPlans("annual", "lifetime"))
}

func validPersonal() models.Personal {
	return models.Personal{
		Name:          "Asha Verma",
		Email:         "asha@example.com",
		DateOfBirth:   "1990-04-12",
		Gender:        "female",
		MaritalStatus: "single",
		Password:      "correct-horse",
	}
}

func validAddress() models.Address {
	return models.Address{State: "Rajasthan", StateCode: "RJ", District: "Jaipur", DistrictCode: "RJ-JP", City: "Sanganer", CityCode: "RJ-JP-SG"}
}

func (s *MachineSuite) TestPhoneSkipsVerificationWhenDisabled() {
	m := s.machine(models.Flags{Referral: true})
	s.phones.EXPECT().PhoneExists(gomock.Any(), "9998887770").Return(false, nil)

	d := models.NewDraft(m.Topology())
	d.Phone = "9998887770"
	next, out, err := m.Advance(s.ctx, models.StepPhone, d, steps.Input{})
	s.Require().NoError(err)
	s.Equal(models.StepReferral, next)
	s.Equal(models.StepReferral, out.Step)
	s.Equal(models.StepPhone, d.Step)
}

func (s *MachineSuite) TestPhoneRequestsCodeWhenVerificationEnabled() {
	m := s.machine(models.Flags{PhoneVerification: true})
	gomock.InOrder(
		s.phones.EXPECT().PhoneExists(gomock.Any(), "9876543210").Return(false, nil),
		s.verifier.EXPECT().Send(gomock.Any(), "9876543210").Return(nil),
	)

	d := models.NewDraft(m.Topology())
	d.Phone = "+91 98765-43210"
	next, out, err := m.Advance(s.ctx, models.StepPhone, d, steps.Input{})
	s.Require().NoError(err)
	s.Equal(models.StepVerify, next)
	s.Equal("9876543210", out.Phone)
}

func (s *MachineSuite) TestThrottledCodeSendKeepsItsCode() {
	m := s.machine(models.Flags{PhoneVerification: true})
	s.phones.EXPECT().PhoneExists(gomock.Any(), "9876543210").Return(false, nil)
	s.verifier.EXPECT().Send(gomock.Any(), "9876543210").
		Return(dErrors.New(dErrors.CodeRateLimited, "too many verification codes requested"))

	d := models.NewDraft(m.Topology())
	d.Phone = "9876543210"
	next, _, err := m.Advance(s.ctx, models.StepPhone, d, steps.Input{})
	s.Require().Error(err)
	s.Equal(models.StepPhone, next)
	s.Equal(dErrors.CodeRateLimited, dErrors.CodeOf(err))
	var nf *models.NetworkFailure
	s.False(errors.As(err, &nf))
}

func (s *MachineSuite) TestPhoneRejectedLocallyNeverCallsRegistry() {
	m := s.machine(models.Flags{})
	for _, phone := range []string{"", "12345", "5876543210", "98765432101"} {
		d := models.NewDraft(m.Topology())
		d.Phone = phone
		next, out, err := m.Advance(s.ctx, models.StepPhone, d, steps.Input{})
		var verr *models.ValidationError
		s.Require().ErrorAs(err, &verr, phone)
		s.Equal("phone", verr.Fields[0].Field)
		s.Equal(models.StepPhone, next)
		s.Equal(d, out)
	}
}

func (s *MachineSuite) TestPhoneAlreadyRegistered() {
	m := s.machine(models.Flags{PhoneVerification: true})
	s.phones.EXPECT().PhoneExists(gomock.Any(), "9876543210").Return(true, nil)

	d := models.NewDraft(m.Topology())
	d.Phone = "9876543210"
	next, _, err := m.Advance(s.ctx, models.StepPhone, d, steps.Input{})
	var failure *models.ExistenceCheckFailure
	s.Require().ErrorAs(err, &failure)
	s.Equal(models.CheckPhoneRegistered, failure.Kind)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(models.StepPhone, next)
}

func (s *MachineSuite) TestNetworkFailurePreservesPosition() {
	m := s.machine(models.Flags{})
	s.phones.EXPECT().PhoneExists(gomock.Any(), gomock.Any()).Return(false, errors.New("dial tcp: connection refused"))

	d := models.NewDraft(m.Topology())
	d.Phone = "9876543210"
	next, out, err := m.Advance(s.ctx, models.StepPhone, d, steps.Input{})
	var nf *models.NetworkFailure
	s.Require().ErrorAs(err, &nf)
	s.Equal("phone_uniqueness", nf.Op)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal(models.StepPhone, next)
	s.Equal(d, out)
}

func (s *MachineSuite) TestVerifyCode() {
	m := s.machine(models.Flags{PhoneVerification: true})
	d := models.NewDraft(m.Topology())
	d.Phone = "9876543210"
	d.Step = models.StepVerify

	s.Run("malformed code", func() {
		_, _, err := m.Advance(s.ctx, models.StepVerify, d, steps.Input{OTP: "12ab"})
		var verr *models.ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Equal("otp", verr.Fields[0].Field)
	})

	s.Run("rejected code", func() {
		s.verifier.EXPECT().Check(gomock.Any(), "9876543210", "123456").Return(false, nil)
		_, _, err := m.Advance(s.ctx, models.StepVerify, d, steps.Input{OTP: "123456"})
		var failure *models.ExistenceCheckFailure
		s.Require().ErrorAs(err, &failure)
		s.Equal(models.CheckOTPRejected, failure.Kind)
	})

	s.Run("approved code", func() {
		s.verifier.EXPECT().Check(gomock.Any(), "9876543210", "654321").Return(true, nil)
		next, _, err := m.Advance(s.ctx, models.StepVerify, d, steps.Input{OTP: "654321"})
		s.Require().NoError(err)
		s.Equal(models.StepPersonal, next)
	})
}

func (s *MachineSuite) TestReferralNormalizedAndRejectedWhenUnknown() {
	m := s.machine(models.Flags{Referral: true})
	s.referrals.EXPECT().ReferralExists(gomock.Any(), "AB12-3").Return(false, nil)

	d := models.NewDraft(m.Topology())
	d.Step = models.StepReferral
	d.ReferralCode = "ab12-3"
	next, out, err := m.Advance(s.ctx, models.StepReferral, d, steps.Input{})
	var failure *models.ExistenceCheckFailure
	s.Require().ErrorAs(err, &failure)
	s.Equal(models.CheckReferralNotFound, failure.Kind)
	s.Equal(models.StepReferral, next)
	s.Equal("ab12-3", out.ReferralCode)

	normalized, err := m.Validate(models.StepReferral, d, steps.Input{})
	s.Require().NoError(err)
	s.Equal("AB12-3", normalized.ReferralCode)
}

func (s *MachineSuite) TestReferralPattern() {
	m := s.machine(models.Flags{Referral: true})
	for _, code := range []string{"", "ABC", "ABCDEFG", "AB_123"} {
		d := models.NewDraft(m.Topology())
		d.ReferralCode = code
		_, err := m.Validate(models.StepReferral, d, steps.Input{})
		var verr *models.ValidationError
		s.Require().ErrorAs(err, &verr, code)
		s.Equal("referralCode", verr.Fields[0].Field)
	}
}

func (s *MachineSuite) TestPersonal() {
	m := s.machine(models.Flags{})

	s.Run("valid details are normalized", func() {
		d := models.NewDraft(m.Topology())
		d.Personal = validPersonal()
		d.Personal.Name = "  Asha   Verma "
		d.Personal.Email = " Asha@Example.com"
		next, out, err := m.Advance(s.ctx, models.StepPersonal, d, steps.Input{})
		s.Require().NoError(err)
		s.Equal(models.StepAddress, next)
		s.Equal("Asha Verma", out.Personal.Name)
		s.Equal("asha@example.com", out.Personal.Email)
	})

	s.Run("field errors are reported together", func() {
		d := models.NewDraft(m.Topology())
		d.Personal = models.Personal{Name: "A", Email: "nope", DateOfBirth: "12/04/1990", Gender: "x", Password: "short"}
		_, err := m.Validate(models.StepPersonal, d, steps.Input{})
		var verr *models.ValidationError
		s.Require().ErrorAs(err, &verr)
		got := map[string]string{}
		for _, f := range verr.Fields {
			got[f.Field] = f.Message
		}
		s.Contains(got, "name")
		s.Contains(got, "email")
		s.Contains(got, "dateOfBirth")
		s.Contains(got, "gender")
		s.Equal("is required", got["maritalStatus"])
		s.Contains(got, "password")
	})

	s.Run("future birth date", func() {
		d := models.NewDraft(m.Topology())
		d.Personal = validPersonal()
		d.Personal.DateOfBirth = "2027-01-01"
		_, err := m.Validate(models.StepPersonal, d, steps.Input{})
		var verr *models.ValidationError
		s.Require().ErrorAs(err, &verr)
		s.Equal("cannot be in the future", verr.Fields[0].Message)
	})

	s.Run("under age", func() {
		d := models.NewDraft(m.Topology())
		d.Personal = validPersonal()
		d.Personal.DateOfBirth = "2008-06-16"
		_, err := m.Validate(models.StepPersonal, d, steps.Input{})
		s.Error(err)

		d.Personal.DateOfBirth = "2008-06-15"
		_, err = m.Validate(models.StepPersonal, d, steps.Input{})
		s.NoError(err)
	})
}

func (s *MachineSuite) TestAddressesRequireNames() {
	m := s.machine(models.Flags{})
	d := models.NewDraft(m.Topology())
	d.Addresses.Occupation = validAddress()
	d.Addresses.Current = validAddress()
	d.Addresses.Parental = models.Address{State: "Rajasthan", StateCode: "RJ"}

	_, err := m.Validate(models.StepAddress, d, steps.Input{})
	var verr *models.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Len(verr.Fields, 2)
	s.Equal("addresses.parental.district", verr.Fields[0].Field)
	s.Equal("addresses.parental.city", verr.Fields[1].Field)

	d.Addresses.Parental = validAddress()
	next, _, err := m.Advance(s.ctx, models.StepAddress, d, steps.Input{})
	s.Require().NoError(err)
	s.Equal(models.StepKinship, next)
}

func (s *MachineSuite) TestKinshipRequiresSelf() {
	m := s.machine(models.Flags{})
	d := models.NewDraft(m.Topology())
	d.Kinship.Put(models.SlotSelf, models.Custom())

	_, err := m.Validate(models.StepKinship, d, steps.Input{})
	s.Error(err)

	d.Kinship.Custom = map[models.Slot]string{models.SlotSelf: "Bharadwaj"}
	next, _, err := m.Advance(s.ctx, models.StepKinship, d, steps.Input{})
	s.Require().NoError(err)
	s.Equal(models.StepPlan, next)
}

func (s *MachineSuite) TestTerminalStepOnlyValidates() {
	m := s.machine(models.Flags{})
	d := models.NewDraft(m.Topology())
	d.Plan = "annual"

	_, _, err := m.Advance(s.ctx, models.StepPlan, d, steps.Input{})
	s.ErrorIs(err, models.ErrSubmitRequired)

	_, err = m.Validate(models.StepPlan, d, steps.Input{})
	s.NoError(err)

	d.Plan = "monthly"
	_, err = m.Validate(models.StepPlan, d, steps.Input{})
	s.Error(err)
}

func (s *MachineSuite) TestStepOutsideTopology() {
	m := s.machine(models.Flags{})
	_, _, err := m.Advance(s.ctx, models.StepReferral, models.NewDraft(m.Topology()), steps.Input{})
	s.ErrorIs(err, models.ErrStepMismatch)
}

func (s *MachineSuite) TestAdvanceIsIdempotent() {
	m := s.machine(models.Flags{})
	d := models.NewDraft(m.Topology())
	d.Step = models.StepPersonal
	d.Personal = validPersonal()

	n1, d1, err1 := m.Advance(s.ctx, models.StepPersonal, d, steps.Input{})
	n2, d2, err2 := m.Advance(s.ctx, models.StepPersonal, d, steps.Input{})
	s.NoError(err1)
	s.NoError(err2)
	s.Equal(n1, n2)
	s.Equal(d1, d2)
}

func (s *MachineSuite) TestRetreat() {
	full := s.machine(models.Flags{PhoneVerification: true, Referral: true})
	s.Equal(models.StepPhone, full.Retreat(models.StepPhone))
	s.Equal(models.StepPhone, full.Retreat(models.StepVerify))
	s.Equal(models.StepReferral, full.Retreat(models.StepPersonal))

	bare := s.machine(models.Flags{})
	s.Equal(models.StepPhone, bare.Retreat(models.StepPersonal))
	s.Equal(models.StepKinship, bare.Retreat(models.StepPlan))
}
