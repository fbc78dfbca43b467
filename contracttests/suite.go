package contracttests

import (
	"github.com/sessionops/session-contract-tests/apiclient"
	"github.com/sessionops/session-contract-tests/config"
	"github.com/sessionops/session-contract-tests/framework"
	"github.com/sessionops/session-contract-tests/stubs"
)

// RunTestSuite runs the full contract test suite against the target service reachable
// through client. stub may be nil if the harness does not control the target's backends;
// tests that need to reprogram backend behavior are skipped in that case.
func RunTestSuite(
	client *apiclient.Client,
	stub *stubs.BackendStub,
	policies config.PolicyConfig,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, &environment{
			client:   client,
			stub:     stub,
			policies: policies,
		})

		t.Run("validation", DoValidationTests)
		t.Run("lifecycle", DoLifecycleTests)
		t.Run("authorization", DoAuthorizationTests)
		t.Run("transport", DoTransportTests)
		t.Run("backend dependencies", DoBackendDependencyTests)
		t.Run("concurrency", DoConcurrencyTests)
	})
}
