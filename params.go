package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/sessionops/session-contract-tests/framework"
)

type commandParams struct {
	targetURL        string
	apiKey           string
	configPath       string
	port             int
	host             string
	filters          framework.RegexFilters
	externalBackends bool
	selfTest         bool
	runLoad          bool
	loadUsers        int
	loadDuration     int
	debug            bool
	debugAll         bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.targetURL, "url", "", "target service URL (overrides app.base_url from the config file)")
	fs.StringVar(&c.apiKey, "api-key", "", "pre-shared API key (overrides app.api_key from the config file)")
	fs.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&c.host, "host", "localhost", "external hostname of the test harness")
	fs.IntVar(&c.port, "port", defaultPort, "port that the test harness will listen on")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.externalBackends, "external-backends", false,
		"do not host the auth/action backend stubs (skips the backend dependency tests)")
	fs.BoolVar(&c.selfTest, "selftest", false,
		"run the suite against the built-in reference server instead of a remote target")
	fs.BoolVar(&c.runLoad, "load", false, "run the load stage after the contract suite passes")
	fs.IntVar(&c.loadUsers, "load-users", 0, "number of virtual users for the load stage")
	fs.IntVar(&c.loadDuration, "load-duration", 0, "duration of the load stage in seconds")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.targetURL == "" && c.configPath == "" && !c.selfTest {
		fmt.Fprintln(os.Stderr, "either -url, -config, or -selftest is required")
		fs.Usage()
		return false
	}
	return true
}

// rerunCommand builds a shell command line that would re-run only the given tests.
func rerunCommand(originalArgs []string, failed []framework.TestID) string {
	var b commandBuilder
	for _, arg := range originalArgs {
		b.add(arg)
	}
	for _, id := range failed {
		b.add("-run", rerunPattern(id))
	}
	return b.String()
}

// rerunPattern builds a -run regex for one failed test. The filter is applied at every
// nesting level, so the pattern must also match each ancestor of the failed test, and
// any subtests below it.
func rerunPattern(id framework.TestID) string {
	var b strings.Builder
	b.WriteString("^")
	for i, part := range id.Path {
		if i > 0 {
			b.WriteString("(/")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("(/.*)?")
	for i := 1; i < len(id.Path); i++ {
		b.WriteString(")?")
	}
	b.WriteString("$")
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
