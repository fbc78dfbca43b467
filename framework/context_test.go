package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNames(results []TestResult) []string {
	var names []string
	for _, r := range results {
		names = append(names, r.TestID.String())
	}
	return names
}

func TestRunCollectsPassingAndFailingTests(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("passes", func(c *Context) {})
		c.Run("fails", func(c *Context) {
			c.Errorf("something went wrong: %d", 42)
		})
		c.Run("passes too", func(c *Context) {})
	})

	assert.False(t, results.OK())
	assert.Equal(t, []string{"passes", "fails", "passes too"}, runNames(results.Tests))
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "fails", results.Failures[0].TestID.String())
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Equal(t, "something went wrong: 42", results.Failures[0].Errors[0].Error())
}

func TestFailNowStopsTheTestButNotTheRun(t *testing.T) {
	reachedAfterFailNow := false
	ranNext := false
	results := Run(nil, nil, func(c *Context) {
		c.Run("aborts", func(c *Context) {
			c.Errorf("fatal condition")
			c.FailNow()
			reachedAfterFailNow = true
		})
		c.Run("still runs", func(c *Context) {
			ranNext = true
		})
	})

	assert.False(t, reachedAfterFailNow)
	assert.True(t, ranNext)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "aborts", results.Failures[0].TestID.String())
}

func TestFailNowWithoutErrorStillFails(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("silent failure", func(c *Context) {
			c.FailNow()
		})
	})
	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "no failure message")
}

func TestUnexpectedPanicBecomesFailure(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("panics", func(c *Context) {
			panic(errors.New("boom"))
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "boom")
}

func TestSkipMarksTestSkippedNotFailed(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("skipped", func(c *Context) {
			c.SkipWithReason("capability missing")
			c.Errorf("should not be reached")
		})
	})
	assert.True(t, results.OK())
	require.Len(t, results.Skips, 1)
	assert.Equal(t, "skipped", results.Skips[0].TestID.String())
	assert.True(t, results.Skips[0].Skipped)
}

func TestSubtestIDsAreHierarchical(t *testing.T) {
	var seen []string
	results := Run(nil, nil, func(c *Context) {
		c.Run("outer", func(c *Context) {
			c.Run("inner 1", func(c *Context) {
				seen = append(seen, c.ID().String())
			})
			c.Run("inner 2", func(c *Context) {
				seen = append(seen, c.ID().String())
			})
		})
	})
	assert.True(t, results.OK())
	assert.Equal(t, []string{"outer/inner 1", "outer/inner 2"}, seen)
}

func TestFilterSkipsExcludedTests(t *testing.T) {
	var ran []string
	filter := func(id TestID) bool { return id.String() != "excluded" }
	results := Run(filter, nil, func(c *Context) {
		c.Run("included", func(c *Context) { ran = append(ran, "included") })
		c.Run("excluded", func(c *Context) { ran = append(ran, "excluded") })
	})
	assert.Equal(t, []string{"included"}, ran)
	require.Len(t, results.Skips, 1)
	assert.Equal(t, "excluded", results.Skips[0].TestID.String())
}

func TestDebugOutputIsCapturedPerTest(t *testing.T) {
	logger := &capturingTestLogger{}
	Run(nil, logger, func(c *Context) {
		c.Run("with debug", func(c *Context) {
			c.Debug("interesting value: %d", 7)
		})
	})
	require.Len(t, logger.finished, 1)
	require.Len(t, logger.finished[0].output, 1)
	assert.Equal(t, "interesting value: 7", logger.finished[0].output[0].Message)
}

type finishedTest struct {
	id     TestID
	failed bool
	output CapturedOutput
}

type capturingTestLogger struct {
	finished []finishedTest
}

func (l *capturingTestLogger) TestStarted(TestID)         {}
func (l *capturingTestLogger) TestError(TestID, error)    {}
func (l *capturingTestLogger) TestSkipped(TestID, string) {}
func (l *capturingTestLogger) TestFinished(id TestID, failed bool, output CapturedOutput) {
	l.finished = append(l.finished, finishedTest{id: id, failed: failed, output: output})
}
