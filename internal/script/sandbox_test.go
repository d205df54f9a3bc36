package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questapi/quest/internal/core"
	"github.com/questapi/quest/internal/interpolate"
)

func newTestEC() *core.ExecutionContext {
	return &core.ExecutionContext{
		CollectionVariables: interpolate.NewVariableSet(),
		GlobalVariables:     interpolate.NewVariableSet(),
		Scope:               interpolate.NewScopeChain("coll-1"),
	}
}

func TestSandbox_RunRecordsPassingTest(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	res, err := sb.Run(context.Background(), ec, RequestPost, `
		quest.test("status is defined", function() {
			expect(1).to.equal(1);
		});
	`, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Tests, 1)
	assert.Equal(t, "status is defined", res.Tests[0].Name)
	assert.True(t, res.Tests[0].Passed)
	assert.False(t, res.Tests[0].Skipped)
}

func TestSandbox_RunRecordsFailingAssertion(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	res, err := sb.Run(context.Background(), ec, RequestPost, `
		quest.test("should fail", function() {
			expect(1).to.equal(2);
		});
	`, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Tests, 1)
	assert.False(t, res.Tests[0].Passed)
	assert.False(t, res.Tests[0].Skipped)
	assert.Contains(t, res.Tests[0].Error, "expected 1 to equal 2")
}

func TestSandbox_RunRecordsSkippedTest(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	res, err := sb.Run(context.Background(), ec, RequestPost, `
		quest.test("conditionally skipped", function() {
			quest.skip("not applicable");
		});
	`, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Tests, 1)
	assert.True(t, res.Tests[0].Skipped)
	assert.Equal(t, "not applicable", res.Tests[0].Error)
}

func TestSandbox_RunRecordsExplicitFail(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	res, err := sb.Run(context.Background(), ec, RequestPost, `
		quest.test("explicit fail", function() {
			quest.fail("bad state");
		});
	`, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Tests, 1)
	assert.False(t, res.Tests[0].Passed)
	assert.False(t, res.Tests[0].Skipped)
	assert.Equal(t, "bad state", res.Tests[0].Error)
}

func TestSandbox_RunSinkReceivesTestsInOrder(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	var seen []string
	sink := func(tr core.TestResult) { seen = append(seen, tr.Name) }

	_, err := sb.Run(context.Background(), ec, RequestPost, `
		quest.test("first", function() {});
		quest.test("second", function() {});
	`, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestSandbox_RunAbortCheckSkipsRemainingTests(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	res, err := sb.Run(context.Background(), ec, RequestPost, `
		quest.test("skipped due to abort", function() {});
	`, nil, func() bool { return true })
	require.NoError(t, err)
	require.Len(t, res.Tests, 1)
	assert.True(t, res.Tests[0].Skipped)
	assert.Contains(t, res.Tests[0].Error, "aborted")
}

func TestSandbox_RunSyntaxErrorIsReportedNotPanicked(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	res, err := sb.Run(context.Background(), ec, RequestPost, `this is not valid javascript {{{`, nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestSandbox_RunCapturesConsoleOutput(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	res, err := sb.Run(context.Background(), ec, RequestPre, `
		console.log("plain");
		console.error("boom");
	`, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.ConsoleOutput, 2)
	assert.Equal(t, "plain", res.ConsoleOutput[0])
	assert.Equal(t, "[ERROR] boom", res.ConsoleOutput[1])
}

func TestSandbox_RunVariablesSetAndGetRoundTrip(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	_, err := sb.Run(context.Background(), ec, RequestPre, `
		quest.variables.set("token", "abc123");
		quest.test("round trip", function() {
			expect(quest.variables.get("token")).to.equal("abc123");
		});
	`, nil, nil)
	require.NoError(t, err)

	v, ok := ec.Scope.Get("token")
	require.True(t, ok)
	assert.Equal(t, "abc123", v)
}

func TestSandbox_EvalConditionTruthyAndFalsy(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()
	ec.Scope.Set("enabled", "true")

	ok, err := sb.EvalCondition(context.Background(), ec, `quest.variables.get("enabled") === "true"`)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sb.EvalCondition(context.Background(), ec, `false`)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSandbox_EvalConditionDoesNotInstallAssertionHarness(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	ok, err := sb.EvalCondition(context.Background(), ec, `typeof quest.test === "undefined"`)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSandbox_RunSendRequestInvokesConfiguredSender(t *testing.T) {
	var gotConfig map[string]any
	sender := func(ctx context.Context, config map[string]any) (*core.Response, error) {
		gotConfig = config
		return &core.Response{Status: 200, Body: []byte(`{"ok":true}`)}, nil
	}
	sb := NewSandbox(sender)
	ec := newTestEC()

	_, err := sb.Run(context.Background(), ec, RequestPre, `
		var resp = quest.sendRequest({url: "https://example.com", method: "GET"});
		quest.test("adhoc status", function() {
			expect(resp.status).to.equal(200);
		});
	`, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, gotConfig)
	assert.Equal(t, "https://example.com", gotConfig["url"])
}

func TestSandbox_RunWaitHonorsContextCancellation(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sb.Run(ctx, ec, RequestPre, `quest.wait(1000);`, nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestSandbox_RunWaitCompletesForShortDuration(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	start := time.Now()
	res, err := sb.Run(context.Background(), ec, RequestPre, `quest.wait(5);`, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestSandbox_RunReusesSameRuntimeAcrossCalls(t *testing.T) {
	sb := NewSandbox(nil)
	ec := newTestEC()

	_, err := sb.Run(context.Background(), ec, RequestPre, `globalThis.__marker = 42;`, nil, nil)
	require.NoError(t, err)

	res, err := sb.Run(context.Background(), ec, RequestPre, `
		quest.test("marker persists", function() {
			expect(globalThis.__marker).to.equal(42);
		});
	`, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Tests, 1)
	assert.True(t, res.Tests[0].Passed)
}
