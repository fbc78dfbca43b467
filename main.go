package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sessionops/session-contract-tests/apiclient"
	"github.com/sessionops/session-contract-tests/config"
	"github.com/sessionops/session-contract-tests/contracttests"
	"github.com/sessionops/session-contract-tests/framework"
	"github.com/sessionops/session-contract-tests/loadtest"
	"github.com/sessionops/session-contract-tests/refserver"
	"github.com/sessionops/session-contract-tests/stubs"
)

const defaultPort = 8111
const targetReadyTimeout = time.Second * 10

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	cfg, err := config.Load(params.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %s\n", err)
		os.Exit(1)
	}
	if params.targetURL != "" {
		cfg.App.BaseURL = params.targetURL
	}
	if params.apiKey != "" {
		cfg.App.APIKey = params.apiKey
	}
	if params.loadUsers > 0 {
		cfg.Load.Users = params.loadUsers
	}
	if params.loadDuration > 0 {
		cfg.Load.DurationSeconds = params.loadDuration
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	// In self-test mode the harness comes up first and the reference target is
	// started against its stub endpoints; otherwise the harness waits for the
	// externally managed target.
	probeURL := cfg.App.BaseURL
	if params.selfTest {
		probeURL = ""
	}
	harness, err := framework.NewTestHarness(
		probeURL,
		params.host,
		params.port,
		targetReadyTimeout,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Harness error: %s\n", err)
		os.Exit(1)
	}

	var stub *stubs.BackendStub
	if !params.externalBackends {
		stub = stubs.NewBackendStub(harness, mainDebugLogger)
		fmt.Printf("Hosting backend stubs at %s\n", stub.BaseURL())
		if !params.selfTest && cfg.Mock.BaseURL != stub.BaseURL() {
			fmt.Printf("Note: the target must be configured to call its backends here, but mock.base_url says %s\n",
				cfg.Mock.BaseURL)
		}
	}

	if params.selfTest {
		if stub == nil {
			fmt.Fprintln(os.Stderr, "-selftest requires the built-in backend stubs")
			os.Exit(1)
		}
		targetURL, err := startReferenceTarget(cfg, stub)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not start reference server: %s\n", err)
			os.Exit(1)
		}
		cfg.App.BaseURL = targetURL
		fmt.Printf("Running against built-in reference server at %s\n", targetURL)
	}

	fmt.Println()
	framework.PrintFilterDescription(params.filters)

	client := apiclient.New(cfg.App.BaseURL, cfg.App.APIKey, cfg.App.Timeout(), mainDebugLogger)

	testLogger := framework.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	fmt.Println("Running test suite")
	results := contracttests.RunTestSuite(client, stub, cfg.Policies, params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To re-run only the failed tests:")
		fmt.Printf("  %s\n", rerunCommand(os.Args, results.FailedTestIDs()))
		os.Exit(1)
	}

	if params.runLoad {
		fmt.Println()
		fmt.Printf("Running load stage (%d users, %s)\n", cfg.Load.Users, cfg.Load.Duration())
		runner := loadtest.NewRunner(client, loadtest.Config{
			Users:             cfg.Load.Users,
			Duration:          cfg.Load.Duration(),
			ActionsPerSession: cfg.Load.ActionsPerSession,
		}, mainDebugLogger)
		report := runner.Run(context.Background())
		loadtest.PrintReport(os.Stdout, report)
	}
}

// startReferenceTarget serves the reference implementation on an ephemeral port, wired
// to the harness-hosted backend stubs.
func startReferenceTarget(cfg config.Config, stub *stubs.BackendStub) (string, error) {
	backends := refserver.NewHTTPBackends(stub.BaseURL(), cfg.App.Timeout())
	handler := refserver.NewHandler(
		refserver.NewMemoryStore(),
		backends,
		backends,
		cfg.App.APIKey,
		refserver.Options{
			Relogin:       cfg.Policies.Relogin,
			LogoutUnknown: cfg.Policies.LogoutUnknown,
		},
		framework.NullLogger(),
	)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	server := &http.Server{Handler: handler}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return fmt.Sprintf("http://%s", listener.Addr()), nil
}
