//go:build e2e

package registration

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	StartService(referral bool, sessionLimit int) error
	ForgetSession() error
	GET(path string, headers map[string]string) error
	POST(path string, body interface{}) error
	PUT(path string, body interface{}) error
	DELETE(path string) error
	Upload(path, filename string, data []byte) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// Registry is the fake members registry behind the service.
type Registry interface {
	AddMember(phone string)
	AddReferral(code string)
	SetDown(down bool)
	Registered() []map[string]any
	Uploads() int
}

var stepNumbers = map[string]int{
	"phone":    1,
	"verify":   2,
	"referral": 3,
	"personal": 4,
	"address":  5,
	"kinship":  6,
	"plan":     7,
}

// Smallest byte strings the upload checks sniff as PNG and PDF.
var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
)

// RegisterSteps registers wizard step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext, registry Registry) {
	steps := &registrationSteps{tc: tc, registry: registry}

	// Service setup
	ctx.Step(`^the registration service is running$`, steps.serviceRunning)
	ctx.Step(`^the registration service is running with referral codes required$`, steps.serviceRunningWithReferral)
	ctx.Step(`^the registration service allows (\d+) new sessions per minute$`, steps.serviceRunningWithSessionLimit)
	ctx.Step(`^the phone "([^"]*)" already belongs to a member$`, steps.phoneBelongsToMember)
	ctx.Step(`^the referral code "([^"]*)" exists$`, steps.referralExists)
	ctx.Step(`^the members registry is unavailable$`, steps.registryDown)
	ctx.Step(`^the members registry is available again$`, steps.registryUp)

	// Wizard actions
	ctx.Step(`^I start a registration$`, steps.startRegistration)
	ctx.Step(`^I return from payment with status "([^"]*)"$`, steps.returnFromPayment)
	ctx.Step(`^I open the wizard in a new browser$`, steps.newBrowser)
	ctx.Step(`^I submit the phone "([^"]*)"$`, steps.submitPhone)
	ctx.Step(`^I submit the referral code "([^"]*)"$`, steps.submitReferral)
	ctx.Step(`^I submit my personal details$`, steps.submitPersonal)
	ctx.Step(`^I submit personal details born on "([^"]*)"$`, steps.submitPersonalBornOn)
	ctx.Step(`^I select "([^"]*)" as the (state|district|city) of my (occupation|current|parental) address$`, steps.selectAddress)
	ctx.Step(`^I enter the custom city "([^"]*)" for my (occupation|current|parental) address$`, steps.customCity)
	ctx.Step(`^I fill every address with "([^"]*)", "([^"]*)" and "([^"]*)"$`, steps.fillAddresses)
	ctx.Step(`^I continue from the (\w+) step$`, steps.continueFrom)
	ctx.Step(`^I go back$`, steps.goBack)
	ctx.Step(`^I choose the gotra "([^"]*)" for (self|mother|dadi|nani)$`, steps.chooseGotra)
	ctx.Step(`^I enter the custom gotra "([^"]*)" for (self|mother|dadi|nani)$`, steps.customGotra)
	ctx.Step(`^I choose the plan "([^"]*)"$`, steps.choosePlan)
	ctx.Step(`^I attach a (png|pdf|text) file as my (janAadhaar|profilePhoto)$`, steps.attachFile)
	ctx.Step(`^I remove my (janAadhaar|profilePhoto)$`, steps.removeFile)
	ctx.Step(`^I submit the registration$`, steps.submitRegistration)
	ctx.Step(`^I abandon the registration$`, steps.abandon)
	ctx.Step(`^I view my registration$`, steps.view)
	ctx.Step(`^I list "([^"]*)" reference data$`, steps.listReference)
	ctx.Step(`^I list "([^"]*)" reference data under "([^"]*)"$`, steps.listReferenceUnder)
	ctx.Step(`^I reach the plan step as "([^"]*)"$`, steps.reachPlanStep)

	// Assertions
	ctx.Step(`^I should be on the (\w+) step$`, steps.shouldBeOnStep)
	ctx.Step(`^the field "([^"]*)" should be reported as "([^"]*)"$`, steps.fieldReportedAs)
	ctx.Step(`^the failed check should be "([^"]*)"$`, steps.failedCheckShouldBe)
	ctx.Step(`^the members registry should have received (\d+) registrations?$`, steps.registryReceived)
	ctx.Step(`^the registered member should have phone "([^"]*)" and gotra "([^"]*)"$`, steps.registeredMemberHas)
	ctx.Step(`^the upload service should have received (\d+) files?$`, steps.uploadsReceived)
	ctx.Step(`^the draft should not expose the password$`, steps.passwordHidden)
}

type registrationSteps struct {
	tc       TestContext
	registry Registry
}

func (s *registrationSteps) serviceRunning(ctx context.Context) error {
	return s.tc.StartService(false, 0)
}

func (s *registrationSteps) serviceRunningWithReferral(ctx context.Context) error {
	return s.tc.StartService(true, 0)
}

func (s *registrationSteps) serviceRunningWithSessionLimit(ctx context.Context, limit int) error {
	return s.tc.StartService(false, limit)
}

func (s *registrationSteps) phoneBelongsToMember(ctx context.Context, phone string) error {
	s.registry.AddMember(phone)
	return nil
}

func (s *registrationSteps) referralExists(ctx context.Context, code string) error {
	s.registry.AddReferral(code)
	return nil
}

func (s *registrationSteps) registryDown(ctx context.Context) error {
	s.registry.SetDown(true)
	return nil
}

func (s *registrationSteps) registryUp(ctx context.Context) error {
	s.registry.SetDown(false)
	return nil
}

func (s *registrationSteps) startRegistration(ctx context.Context) error {
	return s.tc.POST("/registration/session", nil)
}

func (s *registrationSteps) returnFromPayment(ctx context.Context, status string) error {
	return s.tc.POST("/registration/session?status="+status, nil)
}

func (s *registrationSteps) newBrowser(ctx context.Context) error {
	return s.tc.ForgetSession()
}

func (s *registrationSteps) submitPhone(ctx context.Context, phone string) error {
	return s.tc.POST("/registration/advance", map[string]interface{}{
		"step":  stepNumbers["phone"],
		"phone": phone,
	})
}

func (s *registrationSteps) submitReferral(ctx context.Context, code string) error {
	return s.tc.POST("/registration/advance", map[string]interface{}{
		"step":         stepNumbers["referral"],
		"referralCode": code,
	})
}

func (s *registrationSteps) submitPersonal(ctx context.Context) error {
	return s.submitPersonalBornOn(ctx, "1990-05-17")
}

func (s *registrationSteps) submitPersonalBornOn(ctx context.Context, dob string) error {
	return s.tc.POST("/registration/advance", map[string]interface{}{
		"step": stepNumbers["personal"],
		"personal": map[string]string{
			"name":          "Asha Sharma",
			"email":         "asha.sharma@example.com",
			"dateOfBirth":   dob,
			"gender":        "female",
			"maritalStatus": "married",
			"password":      "correct-horse-battery",
		},
	})
}

func (s *registrationSteps) selectAddress(ctx context.Context, code, level, kind string) error {
	return s.tc.PUT("/registration/addresses/"+kind+"/"+level, map[string]string{"code": code})
}

func (s *registrationSteps) customCity(ctx context.Context, city, kind string) error {
	return s.tc.PUT("/registration/addresses/"+kind+"/city", map[string]string{"code": "CUSTOM", "text": city})
}

func (s *registrationSteps) fillAddresses(ctx context.Context, state, district, city string) error {
	for _, kind := range []string{"occupation", "current", "parental"} {
		for _, sel := range []struct{ level, code string }{{"state", state}, {"district", district}, {"city", city}} {
			if err := s.selectAddress(ctx, sel.code, sel.level, kind); err != nil {
				return err
			}
			if err := s.expectOK(); err != nil {
				return fmt.Errorf("%s %s: %w", kind, sel.level, err)
			}
		}
	}
	return nil
}

func (s *registrationSteps) continueFrom(ctx context.Context, step string) error {
	n, ok := stepNumbers[step]
	if !ok {
		return fmt.Errorf("unknown step %q", step)
	}
	return s.tc.POST("/registration/advance", map[string]interface{}{"step": n})
}

func (s *registrationSteps) goBack(ctx context.Context) error {
	return s.tc.POST("/registration/retreat", nil)
}

func (s *registrationSteps) chooseGotra(ctx context.Context, code, slot string) error {
	return s.tc.PUT("/registration/kinship/"+slot, map[string]string{"code": code})
}

func (s *registrationSteps) customGotra(ctx context.Context, text, slot string) error {
	return s.tc.PUT("/registration/kinship/"+slot, map[string]string{"code": "CUSTOM", "text": text})
}

func (s *registrationSteps) choosePlan(ctx context.Context, plan string) error {
	return s.tc.PUT("/registration/plan", map[string]string{"plan": plan})
}

func (s *registrationSteps) attachFile(ctx context.Context, kind, field string) error {
	var (
		name string
		data []byte
	)
	switch kind {
	case "png":
		name, data = field+".png", pngBytes
	case "pdf":
		name, data = field+".pdf", pdfBytes
	default:
		name, data = field+".txt", []byte("plain text is not a document")
	}
	return s.tc.Upload("/registration/files/"+field, name, data)
}

func (s *registrationSteps) removeFile(ctx context.Context, field string) error {
	return s.tc.DELETE("/registration/files/" + field)
}

func (s *registrationSteps) submitRegistration(ctx context.Context) error {
	return s.tc.POST("/registration/submit", nil)
}

func (s *registrationSteps) abandon(ctx context.Context) error {
	return s.tc.DELETE("/registration")
}

func (s *registrationSteps) view(ctx context.Context) error {
	return s.tc.GET("/registration", nil)
}

func (s *registrationSteps) listReference(ctx context.Context, level string) error {
	return s.tc.GET("/reference/"+level, nil)
}

func (s *registrationSteps) listReferenceUnder(ctx context.Context, level, parent string) error {
	return s.tc.GET("/reference/"+level+"?parent="+parent, nil)
}

// reachPlanStep walks a fresh session through every step before the plan.
func (s *registrationSteps) reachPlanStep(ctx context.Context, phone string) error {
	actions := []struct {
		name string
		run  func() error
	}{
		{"start", func() error { return s.startRegistration(ctx) }},
		{"phone", func() error { return s.submitPhone(ctx, phone) }},
		{"personal", func() error { return s.submitPersonal(ctx) }},
		{"addresses", func() error { return s.fillAddresses(ctx, "RJ", "RJ-JP", "RJ-JP-01") }},
		{"address", func() error { return s.continueFrom(ctx, "address") }},
		{"gotra", func() error { return s.chooseGotra(ctx, "G001", "self") }},
		{"kinship", func() error { return s.continueFrom(ctx, "kinship") }},
	}
	for _, a := range actions {
		if err := a.run(); err != nil {
			return fmt.Errorf("%s: %w", a.name, err)
		}
		if err := s.expectOK(); err != nil {
			return fmt.Errorf("%s: %w", a.name, err)
		}
	}
	return s.shouldBeOnStep(ctx, "plan")
}

func (s *registrationSteps) shouldBeOnStep(ctx context.Context, step string) error {
	want, ok := stepNumbers[step]
	if !ok {
		return fmt.Errorf("unknown step %q", step)
	}
	v, err := s.tc.GetResponseField("step")
	if err != nil {
		v, err = s.tc.GetResponseField("view.step")
		if err != nil {
			return err
		}
	}
	got, _ := v.(float64)
	if int(got) != want {
		return fmt.Errorf("expected to be on step %s (%d), got %v", step, want, v)
	}
	return nil
}

func (s *registrationSteps) fieldReportedAs(ctx context.Context, field, message string) error {
	v, err := s.tc.GetResponseField("details")
	if err != nil {
		return err
	}
	list, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("details is not a field list: %s", s.tc.GetLastResponseBody())
	}
	for _, item := range list {
		fe, _ := item.(map[string]interface{})
		if fe["field"] == field {
			if msg, _ := fe["message"].(string); strings.Contains(msg, message) {
				return nil
			}
			return fmt.Errorf("field %s reported as %q, want %q", field, fe["message"], message)
		}
	}
	return fmt.Errorf("field %s not reported: %s", field, s.tc.GetLastResponseBody())
}

func (s *registrationSteps) failedCheckShouldBe(ctx context.Context, check string) error {
	v, err := s.tc.GetResponseField("details.check")
	if err != nil {
		return err
	}
	if v != check {
		return fmt.Errorf("expected failed check %q, got %v", check, v)
	}
	return nil
}

func (s *registrationSteps) registryReceived(ctx context.Context, n int) error {
	if got := len(s.registry.Registered()); got != n {
		return fmt.Errorf("expected %d registrations, got %d", n, got)
	}
	return nil
}

func (s *registrationSteps) registeredMemberHas(ctx context.Context, phone, gotra string) error {
	registered := s.registry.Registered()
	if len(registered) == 0 {
		return fmt.Errorf("no registrations received")
	}
	last := registered[len(registered)-1]
	if last["phone"] != phone {
		return fmt.Errorf("expected phone %s, got %v", phone, last["phone"])
	}
	kinship, _ := last["kinship"].(map[string]interface{})
	if kinship["self"] != gotra {
		return fmt.Errorf("expected self gotra %s, got %v", gotra, kinship["self"])
	}
	return nil
}

func (s *registrationSteps) uploadsReceived(ctx context.Context, n int) error {
	if got := s.registry.Uploads(); got != n {
		return fmt.Errorf("expected %d uploads, got %d", n, got)
	}
	return nil
}

func (s *registrationSteps) passwordHidden(ctx context.Context) error {
	v, err := s.tc.GetResponseField("draft.personal.password")
	if err != nil {
		return err
	}
	if v != "" {
		return fmt.Errorf("password leaked into the view")
	}
	return nil
}

func (s *registrationSteps) expectOK() error {
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("status %d: %s", status, s.tc.GetLastResponseBody())
	}
	return nil
}
