// Package match implements the Cross-repo Matcher (spec §4.7): it merges
// the endpoint sets and call sets materialized across every analyzed
// repository, classifies each Call against the merged index, and emits
// the orphan-endpoint diagnostic.
package match

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/viant/carrick/model"
	"golang.org/x/sync/errgroup"
)

// TypeOracle is the embedding host's injected callback (spec §6): given
// the matched endpoint's and call's type-reference strings, it returns
// shape-mismatch verdicts. An oracle error downgrades to an
// `oracle-unavailable` informational Issue rather than aborting the run
// (spec §7).
type TypeOracle func(ctx context.Context, endpointTypes, callTypes []model.TypeRef) ([]TypeIssue, error)

// TypeIssue is one shape-mismatch verdict the oracle returns for a
// matched (endpoint, call) pair.
type TypeIssue struct {
	Kind    model.IssueKind // IssueBodyShapeMismatch or IssueResponseShapeMismatch
	Message string
}

// Matcher classifies calls against a merged endpoint index.
type Matcher struct {
	EnvMap map[string]model.RepoID
	Oracle TypeOracle
}

// NewMatcher builds a Matcher; envMap and oracle may be nil (wildcard
// env mapping, no oracle forwarding, respectively).
func NewMatcher(envMap map[string]model.RepoID, oracle TypeOracle) *Matcher {
	return &Matcher{EnvMap: envMap, Oracle: oracle}
}

// Classify implements §4.7's full contract: build endpoints_by_path,
// classify every call concurrently over that immutable index (§5's
// second parallel boundary), then emit OrphanEndpoint for every endpoint
// with zero matched calls. Results are sorted by (repo_id, file, span)
// per §4.7's determinism requirement.
func (m *Matcher) Classify(ctx context.Context, endpoints []model.AbsoluteEndpoint, calls []model.Call) []model.Issue {
	index := buildIndex(endpoints)
	matchedCount := make([]int32, len(endpoints))
	indexPos := make(map[string]int, len(endpoints))
	for i, e := range endpoints {
		indexPos[endpointKey(e)] = i
	}

	issuesByCall := make([][]model.Issue, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range calls {
		i, c := i, c
		g.Go(func() error {
			issues, matched := m.classifyCall(gctx, c, index)
			issuesByCall[i] = issues
			for _, e := range matched {
				if pos, ok := indexPos[endpointKey(e)]; ok {
					atomic.AddInt32(&matchedCount[pos], 1)
				}
			}
			return nil
		})
	}
	// classification is pure and cannot fail; errgroup.Wait only
	// surfaces ctx cancellation, which the caller already controls.
	_ = g.Wait()

	var issues []model.Issue
	for _, is := range issuesByCall {
		issues = append(issues, is...)
	}
	for i, e := range endpoints {
		if matchedCount[i] == 0 {
			issue := model.NewIssue(model.IssueOrphanEndpoint, e.RepoID, e.HandlerSpan,
				"endpoint has no matched calls across any analyzed repository")
			endpoint := e
			issue.Endpoint = &endpoint
			issues = append(issues, issue)
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].RepoID != issues[j].RepoID {
			return issues[i].RepoID < issues[j].RepoID
		}
		return issues[i].Span.Less(issues[j].Span)
	})
	return issues
}

// matchIndex holds both lookup structures classifyCall probes: bySegCount
// for ordinary literal-path endpoints, and byEnv for endpoints whose path
// carries an unresolved EnvVar prefix (spec §4.6's "retained symbolically
// for §4.7") bucketed by (env name, suffix segment count) so they can
// still be matched against an EnvVar-prefixed call.
type matchIndex struct {
	bySegCount map[int][]model.AbsoluteEndpoint
	byEnv      map[string]map[int][]envEndpoint
}

// envEndpoint pairs an env-tinged endpoint with the NormalizedPath of the
// literal suffix following its EnvVar prefix, precomputed once at index
// build time rather than re-derived on every candidate probe.
type envEndpoint struct {
	endpoint model.AbsoluteEndpoint
	suffix   model.NormalizedPath
}

// buildIndex buckets literal-path endpoints by segment count rather than
// by exact Path.Key(): a registered route's :param segments must match
// any concrete call segment at that position
// (model.NormalizedPath.MatchesCall), which a literal string key
// comparison cannot express. Endpoints whose path is EnvVar-tinged are
// bucketed separately by env name in byEnv instead of being dropped.
func buildIndex(endpoints []model.AbsoluteEndpoint) matchIndex {
	idx := matchIndex{
		bySegCount: make(map[int][]model.AbsoluteEndpoint),
		byEnv:      make(map[string]map[int][]envEndpoint),
	}
	for _, e := range endpoints {
		if !e.PathUnknown {
			n := len(e.Path.Segments)
			idx.bySegCount[n] = append(idx.bySegCount[n], e)
			continue
		}
		envName, suffix, ok := splitEnvPrefix(e.PathValue)
		if !ok {
			continue
		}
		if idx.byEnv[envName] == nil {
			idx.byEnv[envName] = make(map[int][]envEndpoint)
		}
		n := len(suffix.Segments)
		idx.byEnv[envName][n] = append(idx.byEnv[envName][n], envEndpoint{endpoint: e, suffix: suffix})
	}
	return idx
}

func endpointKey(e model.AbsoluteEndpoint) string {
	return string(e.RepoID) + "|" + string(e.Method) + "|" + e.Path.Key() + "|" + e.HandlerSpan.String()
}

// classifyCall implements §4.7's per-call classification steps 1-3 (step
// 4, the type-oracle forwarding, is applied to each Matched pair found).
func (m *Matcher) classifyCall(ctx context.Context, c model.Call, index matchIndex) ([]model.Issue, []model.AbsoluteEndpoint) {
	cs, ok := m.candidatePaths(c)
	if !ok {
		issue := model.NewIssue(model.IssueUnresolvedCall, c.RepoID, c.CallSpan,
			"call URL could not be resolved to any candidate path")
		issue.Call = &c
		return []model.Issue{issue}, nil
	}

	var matched []model.AbsoluteEndpoint
	var methodMismatches []model.AbsoluteEndpoint
	seen := map[string]bool{}
	classify := func(e model.AbsoluteEndpoint) {
		key := endpointKey(e)
		if seen[key] {
			return
		}
		seen[key] = true
		if e.Method == c.Method || e.Method == model.ANY || c.Method == model.ANY {
			matched = append(matched, e)
		} else {
			methodMismatches = append(methodMismatches, e)
		}
	}
	for _, candidate := range cs.paths {
		for _, e := range index.bySegCount[len(candidate.Segments)] {
			if cs.repoFilter != "" && e.RepoID != cs.repoFilter {
				continue
			}
			if !e.Path.MatchesCall(candidate) {
				continue
			}
			classify(e)
		}
		// cs.envName is set when the call's URL itself carries an
		// unresolved EnvVar prefix; match it symbolically against any
		// endpoint whose path carries the same EnvVar prefix, per spec
		// §4.6's "retained symbolically for §4.7".
		if cs.envName != "" {
			for _, ee := range index.byEnv[cs.envName][len(candidate.Segments)] {
				if cs.repoFilter != "" && ee.endpoint.RepoID != cs.repoFilter {
					continue
				}
				if !ee.suffix.MatchesCall(candidate) {
					continue
				}
				classify(ee.endpoint)
			}
		}
	}

	// spec §8 scenario 4: an EnvVar prefix with no repo mapping cannot be
	// confirmed to target any one repo, so even a single structural match
	// is reported ambiguous rather than Matched/MethodMismatch.
	if cs.wildcard {
		if candidates := append(append([]model.AbsoluteEndpoint{}, matched...), methodMismatches...); len(candidates) > 0 {
			issue := model.NewIssue(model.IssueAmbiguousCall, c.RepoID, c.CallSpan,
				"call's env-var prefix has no repo mapping; cannot confirm which repo's matching endpoint it targets")
			issue.Call = &c
			issue.Candidates = candidates
			return []model.Issue{issue}, candidates
		}
	}

	switch {
	case len(matched) > 1:
		issue := model.NewIssue(model.IssueAmbiguousCall, c.RepoID, c.CallSpan,
			"call matched more than one candidate endpoint")
		issue.Call = &c
		issue.Candidates = matched
		return []model.Issue{issue}, matched
	case len(matched) == 1:
		var issues []model.Issue
		typeIssues, oracleErr := m.forwardToOracle(ctx, c, matched[0])
		if oracleErr != nil {
			issue := model.NewIssue(model.IssueUnresolvedCall, c.RepoID, c.CallSpan,
				"type oracle unavailable: "+oracleErr.Error())
			issue.Severity = model.SeverityInfo
			issue.Call = &c
			issues = append(issues, issue)
		}
		for _, ti := range typeIssues {
			issue := model.NewIssue(ti.Kind, c.RepoID, c.CallSpan, ti.Message)
			issue.Call = &c
			endpoint := matched[0]
			issue.Endpoint = &endpoint
			issues = append(issues, issue)
		}
		return issues, matched
	case len(methodMismatches) > 0:
		issue := model.NewIssue(model.IssueMethodMismatch, c.RepoID, c.CallSpan,
			"call's path matched an endpoint under a different method")
		issue.Call = &c
		issue.Candidates = methodMismatches
		return []model.Issue{issue}, nil
	default:
		issue := model.NewIssue(model.IssueMissingEndpoint, c.RepoID, c.CallSpan,
			"no endpoint found for call's path")
		issue.Call = &c
		return []model.Issue{issue}, nil
	}
}

// candidateSet is the result of rendering a call's URL into the path(s)
// it could hit, per §4.7 step 1. repoFilter, when non-empty, restricts
// matching to that repo's endpoints (an EnvVar mapped to a known repo).
// wildcard marks an EnvVar prefix with no mapping: the call's target
// repo can't be confirmed, so classifyCall reports any structural match
// as ambiguous rather than Matched/MethodMismatch (spec §8 scenario 4).
// envName, when non-empty, is the call URL's own EnvVar prefix name, used
// to also probe matchIndex.byEnv for endpoints carrying the same prefix.
type candidateSet struct {
	paths      []model.NormalizedPath
	repoFilter model.RepoID
	wildcard   bool
	envName    string
}

// candidatePaths implements §4.7 step 1: a fully-literal URL yields one
// candidate restricted to no repo; an EnvVar-prefixed URL yields either
// a single candidate restricted to the mapped repo, or a wildcard
// candidate when the env var has no mapping; an Unknown URL yields none.
func (m *Matcher) candidatePaths(c model.Call) (candidateSet, bool) {
	if lit, ok := model.IsLiteral(c.URL); ok {
		norm, ok := model.NormalizePath(pathOnly(string(lit)))
		if !ok {
			return candidateSet{}, false
		}
		return candidateSet{paths: []model.NormalizedPath{norm}}, true
	}
	envName, norm, ok := splitEnvPrefix(c.URL)
	if !ok {
		return candidateSet{}, false
	}
	if repo, mapped := m.EnvMap[envName]; mapped {
		return candidateSet{paths: []model.NormalizedPath{norm}, repoFilter: repo, envName: envName}, true
	}
	// no mapping for this env var: the call could target any repo, so
	// classifyCall must treat any structural match as ambiguous rather
	// than silently picking one (spec §8 scenario 4).
	return candidateSet{paths: []model.NormalizedPath{norm}, wildcard: true, envName: envName}, true
}

// splitEnvPrefix recognizes the "EnvVar followed by a literal remainder"
// shape both a Call.URL and an AbsoluteEndpoint.PathValue can take (an
// EnvVar base URL or an env-tinged mount prefix), returning the env var's
// name and the normalized path of everything after it. Shared by
// candidatePaths (call side) and buildIndex (endpoint side) so both
// halves of spec §4.7 step 1's EnvVar matching agree on what counts as
// "the same symbolic prefix".
func splitEnvPrefix(v model.PartialValue) (string, model.NormalizedPath, bool) {
	tmpl, ok := v.(model.Template)
	if !ok || len(tmpl.Parts) == 0 {
		return "", model.NormalizedPath{}, false
	}
	env, ok := tmpl.Parts[0].(model.EnvVar)
	if !ok {
		return "", model.NormalizedPath{}, false
	}
	rest := model.NewTemplate(tmpl.Parts[1:]...)
	restLit, ok := model.IsLiteral(rest)
	if !ok {
		return "", model.NormalizedPath{}, false
	}
	norm, ok := model.NormalizePath(pathOnly(string(restLit)))
	if !ok {
		return "", model.NormalizedPath{}, false
	}
	return env.Name, norm, true
}

// pathOnly strips a scheme+host prefix so "${BASE}/users/123" style
// templates and bare "/users/123" calls normalize the same way.
func pathOnly(url string) string {
	if idx := indexOfPathStart(url); idx >= 0 {
		return url[idx:]
	}
	return url
}

func indexOfPathStart(url string) int {
	for i := 0; i < len(url); i++ {
		if url[i] == '/' {
			if i == 0 {
				return 0
			}
			// skip the "//" of "scheme://host" once we've seen "://"
			if url[i-1] == ':' || (i >= 2 && url[i-1] == '/' && url[i-2] == ':') {
				continue
			}
			return i
		}
	}
	return -1
}

// forwardToOracle implements §4.7 step 4, forwarding only when both
// sides carry at least one type annotation; a nil error with no issues
// means the oracle looked and found nothing wrong.
func (m *Matcher) forwardToOracle(ctx context.Context, c model.Call, e model.AbsoluteEndpoint) ([]TypeIssue, error) {
	if m.Oracle == nil {
		return nil, nil
	}
	if (c.RequestType == "" && c.ResponseType == "") || (e.RequestType == "" && e.ResponseType == "") {
		return nil, nil
	}
	return m.Oracle(ctx, []model.TypeRef{e.RequestType, e.ResponseType}, []model.TypeRef{c.RequestType, c.ResponseType})
}
