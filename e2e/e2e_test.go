//go:build e2e

package e2e

import (
	"context"
	"testing"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "membership-registration",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// InitializeScenario runs once per scenario, so each one gets its own
// service and registry.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := NewTestContext()
	RegisterSteps(ctx, tc)

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.Close()
		return c, nil
	})
}
