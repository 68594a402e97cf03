package match_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick/match"
	"github.com/viant/carrick/model"
)

func endpoint(repo model.RepoID, method model.HttpMethod, path string, line int) model.AbsoluteEndpoint {
	norm, _ := model.NormalizePath(path)
	return model.AbsoluteEndpoint{
		RepoID:      repo,
		Method:      method,
		Path:        norm,
		PathText:    path,
		HandlerSpan: model.Span{File: string(repo), StartLine: line},
	}
}

func call(repo model.RepoID, method model.HttpMethod, url string, line int) model.Call {
	return model.Call{
		RepoID:   repo,
		Method:   method,
		URL:      model.Literal(url),
		URLText:  url,
		CallSpan: model.Span{File: string(repo), StartLine: line},
	}
}

func TestClassifyMatchedCallLeavesNoIssue(t *testing.T) {
	m := match.NewMatcher(nil, nil)
	endpoints := []model.AbsoluteEndpoint{endpoint("svc", model.GET, "/users/:id", 1)}
	calls := []model.Call{call("web", model.GET, "/users/123", 1)}
	issues := m.Classify(context.Background(), endpoints, calls)
	assert.Empty(t, issues)
}

func TestClassifyMethodMismatch(t *testing.T) {
	m := match.NewMatcher(nil, nil)
	endpoints := []model.AbsoluteEndpoint{endpoint("svc", model.GET, "/users/:id", 1)}
	calls := []model.Call{call("web", model.POST, "/users/123", 1)}
	issues := m.Classify(context.Background(), endpoints, calls)
	// A method-mismatched call is not a match, so the endpoint is also
	// reported orphaned; issues sort by repo, putting "svc" before "web".
	require.Len(t, issues, 2)
	assert.Equal(t, model.IssueOrphanEndpoint, issues[0].Kind)
	assert.Equal(t, model.IssueMethodMismatch, issues[1].Kind)
}

func TestClassifyMissingEndpoint(t *testing.T) {
	m := match.NewMatcher(nil, nil)
	calls := []model.Call{call("web", model.GET, "/orders/123", 1)}
	issues := m.Classify(context.Background(), nil, calls)
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueMissingEndpoint, issues[0].Kind)
}

func TestClassifyOrphanEndpoint(t *testing.T) {
	m := match.NewMatcher(nil, nil)
	endpoints := []model.AbsoluteEndpoint{endpoint("svc", model.GET, "/users/:id", 1)}
	issues := m.Classify(context.Background(), endpoints, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueOrphanEndpoint, issues[0].Kind)
}

func TestClassifyAmbiguousCall(t *testing.T) {
	m := match.NewMatcher(nil, nil)
	endpoints := []model.AbsoluteEndpoint{
		endpoint("svc1", model.GET, "/users/:id", 1),
		endpoint("svc2", model.GET, "/users/:id", 1),
	}
	calls := []model.Call{call("web", model.GET, "/users/123", 1)}
	issues := m.Classify(context.Background(), endpoints, calls)
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueAmbiguousCall, issues[0].Kind)
}

func TestClassifyUnresolvedCallForUnknownURL(t *testing.T) {
	m := match.NewMatcher(nil, nil)
	calls := []model.Call{{
		RepoID:   "web",
		Method:   model.GET,
		URL:      model.Unknown{Reason: "dynamic"},
		CallSpan: model.Span{File: "web", StartLine: 1},
	}}
	issues := m.Classify(context.Background(), nil, calls)
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueUnresolvedCall, issues[0].Kind)
}

func TestClassifyEnvVarPrefixedURLMatchesOnPath(t *testing.T) {
	m := match.NewMatcher(map[string]model.RepoID{"API_BASE": "svc"}, nil)
	endpoints := []model.AbsoluteEndpoint{endpoint("svc", model.GET, "/orders/:id", 1)}
	calls := []model.Call{{
		RepoID: "web",
		Method: model.GET,
		URL: model.NewTemplate(
			model.EnvVar{Name: "API_BASE"},
			model.Literal("/orders/42"),
		),
		URLText:  "${API_BASE}/orders/42",
		CallSpan: model.Span{File: "web", StartLine: 1},
	}}
	issues := m.Classify(context.Background(), endpoints, calls)
	assert.Empty(t, issues)
}

func TestClassifyEnvVarPrefixedURLRestrictsToMappedRepo(t *testing.T) {
	// Two repos expose the same path/method; the env var maps to svc1 only,
	// so the call must resolve deterministically to svc1 rather than being
	// reported ambiguous against svc2's endpoint too.
	m := match.NewMatcher(map[string]model.RepoID{"API_BASE": "svc1"}, nil)
	endpoints := []model.AbsoluteEndpoint{
		endpoint("svc1", model.GET, "/orders/:id", 1),
		endpoint("svc2", model.GET, "/orders/:id", 1),
	}
	calls := []model.Call{{
		RepoID: "web",
		Method: model.GET,
		URL: model.NewTemplate(
			model.EnvVar{Name: "API_BASE"},
			model.Literal("/orders/42"),
		),
		URLText:  "${API_BASE}/orders/42",
		CallSpan: model.Span{File: "web", StartLine: 1},
	}}
	issues := m.Classify(context.Background(), endpoints, calls)
	// No AmbiguousCall: the only issue is svc2's endpoint, which no call
	// matched, reported as orphaned.
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueOrphanEndpoint, issues[0].Kind)
	assert.Equal(t, model.RepoID("svc2"), issues[0].RepoID)
}

func TestClassifyEnvVarPrefixedURLWithEmptyEnvMapIsAmbiguous(t *testing.T) {
	// spec §8 scenario 4: an unmapped env var prefix can't be confirmed to
	// target any one repo, so even a single structural match is ambiguous.
	m := match.NewMatcher(nil, nil)
	endpoints := []model.AbsoluteEndpoint{endpoint("svc", model.GET, "/orders/:id", 1)}
	calls := []model.Call{{
		RepoID: "web",
		Method: model.GET,
		URL: model.NewTemplate(
			model.EnvVar{Name: "API_BASE"},
			model.Literal("/orders/42"),
		),
		URLText:  "${API_BASE}/orders/42",
		CallSpan: model.Span{File: "web", StartLine: 1},
	}}
	issues := m.Classify(context.Background(), endpoints, calls)
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueAmbiguousCall, issues[0].Kind)
	assert.Len(t, issues[0].Candidates, 1)
}

func TestClassifyEnvTingedEndpointMatchesEnvPrefixedCall(t *testing.T) {
	// An endpoint reached through an env-tinged mount prefix (e.g.
	// app.use(process.env.API_PREFIX, router)) keeps that prefix
	// symbolically; it must still match a call whose URL carries the same
	// EnvVar, even though the endpoint's own Path never resolved to a
	// literal shape.
	endpointPath := model.NewTemplate(model.EnvVar{Name: "API_PREFIX"}, model.Literal("/orders/:id"))
	endpoints := []model.AbsoluteEndpoint{{
		RepoID:      "svc",
		Method:      model.GET,
		PathUnknown: true,
		PathText:    endpointPath.String(),
		PathValue:   endpointPath,
		HandlerSpan: model.Span{File: "svc", StartLine: 1},
	}}
	m := match.NewMatcher(map[string]model.RepoID{"API_PREFIX": "svc"}, nil)
	calls := []model.Call{{
		RepoID: "web",
		Method: model.GET,
		URL: model.NewTemplate(
			model.EnvVar{Name: "API_PREFIX"},
			model.Literal("/orders/42"),
		),
		URLText:  "${API_PREFIX}/orders/42",
		CallSpan: model.Span{File: "web", StartLine: 1},
	}}
	issues := m.Classify(context.Background(), endpoints, calls)
	assert.Empty(t, issues)
}

func TestClassifyOracleErrorDowngradesToInfo(t *testing.T) {
	oracle := func(ctx context.Context, endpointTypes, callTypes []model.TypeRef) ([]match.TypeIssue, error) {
		return nil, assert.AnError
	}
	m := match.NewMatcher(nil, oracle)
	endpoints := []model.AbsoluteEndpoint{
		func() model.AbsoluteEndpoint {
			e := endpoint("svc", model.GET, "/users/:id", 1)
			e.RequestType = "User"
			return e
		}(),
	}
	calls := []model.Call{
		func() model.Call {
			c := call("web", model.GET, "/users/123", 1)
			c.ResponseType = "User"
			return c
		}(),
	}
	issues := m.Classify(context.Background(), endpoints, calls)
	require.Len(t, issues, 1)
	assert.Equal(t, model.IssueUnresolvedCall, issues[0].Kind)
	assert.Equal(t, model.SeverityInfo, issues[0].Severity)
}
