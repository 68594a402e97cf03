package model

// TypeRef is an opaque type-reference string captured from a request or
// response type annotation (spec §4.3); forwarded verbatim to the
// external type oracle.
type TypeRef string

// AbsoluteEndpoint is the result of materializing a router graph (spec
// §3.1, §4.6).
type AbsoluteEndpoint struct {
	RepoID      RepoID     `json:"repoId" yaml:"repoId"`
	Method      HttpMethod `json:"method" yaml:"method"`
	Path        NormalizedPath `json:"path" yaml:"path"`
	// PathUnknown marks an endpoint whose path could not be fully
	// resolved to a literal shape (Unknown/EnvVar tinged); Path is then
	// the best-effort (possibly empty) normalization and PathText holds
	// the symbolic rendering for diagnostics (spec §4.6).
	PathUnknown bool   `json:"pathUnknown,omitempty" yaml:"pathUnknown,omitempty"`
	PathText    string `json:"pathText" yaml:"pathText"`
	// PathValue is the materializer's accumulated prefix PartialValue
	// before the Path/PathUnknown split, mirroring Call.URL's treatment.
	// An Unknown/EnvVar-tinged mount prefix (e.g. from
	// app.use(process.env.API_PREFIX, router)) is retained here so §4.7's
	// matcher can still symbolically compare it against an EnvVar-prefixed
	// call instead of only seeing the rendered PathText string.
	PathValue PartialValue `json:"-" yaml:"-"`

	HandlerSpan Span    `json:"handlerSpan" yaml:"handlerSpan"`
	OriginChain []Span  `json:"originChain,omitempty" yaml:"originChain,omitempty"`
	Fingerprint uint64  `json:"fingerprint" yaml:"fingerprint"`

	RequestType  TypeRef `json:"requestType,omitempty" yaml:"requestType,omitempty"`
	ResponseType TypeRef `json:"responseType,omitempty" yaml:"responseType,omitempty"`
}

// Call is a client-side HTTP invocation discovered statically (spec §3.1).
type Call struct {
	RepoID   RepoID       `json:"repoId" yaml:"repoId"`
	Method   HttpMethod   `json:"method" yaml:"method"`
	URL      PartialValue `json:"-" yaml:"-"`
	URLText  string       `json:"url" yaml:"url"`
	CallSpan Span         `json:"callSpan" yaml:"callSpan"`

	RequestType  TypeRef `json:"requestType,omitempty" yaml:"requestType,omitempty"`
	ResponseType TypeRef `json:"responseType,omitempty" yaml:"responseType,omitempty"`

	Fingerprint uint64 `json:"fingerprint" yaml:"fingerprint"`
}
