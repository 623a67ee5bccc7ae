//go:build e2e

package e2e

import (
	"github.com/cucumber/godog"

	"membership/e2e/steps/common"
	"membership/e2e/steps/registration"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register wizard-specific steps
	registration.RegisterSteps(ctx, tc, tc.Registry)
}
