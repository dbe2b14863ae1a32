package e2e

import (
	"github.com/cucumber/godog"

	"certo/e2e/driver"
	"certo/e2e/steps/lifecycle"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *driver.TestContext) {
	lifecycle.RegisterSteps(ctx, tc)
}
