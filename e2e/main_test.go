package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"

	"certo/e2e/driver"
)

// TestFeatures runs the lifecycle features against a live server. It skips
// unless CERTO_E2E_BASE_URL points somewhere.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("CERTO_E2E_BASE_URL")
	if baseURL == "" {
		t.Skip("CERTO_E2E_BASE_URL not set, skipping e2e features")
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			RegisterSteps(ctx, driver.NewTestContext(baseURL))
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e feature suite failed")
	}
}
