// Package framework implements the Framework Recognizer (spec §4.3): it
// scans a SourceUnit's syntax tree for router-creation sites,
// endpoint-registration sites, mount sites, and HTTP client call sites,
// classifying each against a small configured signature table rather
// than hard-coding one framework's shape (spec §9: "adding a framework
// means extending the table, not subclassing").
package framework

import "github.com/viant/carrick/model"

// ArgKind describes what a signature expects to find at a given
// argument position of a matched call expression.
type ArgKind string

const (
	ArgPath    ArgKind = "path"    // the endpoint/mount path expression
	ArgHandler ArgKind = "handler" // a handler/middleware/child-router argument
	ArgInit    ArgKind = "init"    // fetch-style options object (method, etc.)
	ArgConfig  ArgKind = "config"  // axios-style config object
)

// ArgShape pins one positional argument of a recognized call to a role.
type ArgShape struct {
	Position int     `yaml:"position"`
	Kind     ArgKind `yaml:"kind"`
}

// SiteKind classifies what a matched Signature produces.
type SiteKind string

const (
	SiteRouterFactory SiteKind = "router-factory"
	SiteHTTPClient    SiteKind = "http-client"
)

// Signature is one entry of the recognizer's data-driven config (spec
// §9). Callee matches the textual callee of a call_expression: either a
// bare identifier (`express`, `fetch`, `got`) or a `receiver.method`
// shape (`express.Router`, `Router.create`). Verbs, when non-empty, makes
// Callee name the receiver alone (`axios`) and restricts matching to calls
// whose method name is one of these HTTP verbs (used for client-shape
// signatures like axios.<verb>(...)).
// PackageRange, when non-empty, names a package.json dependency version
// range for the Signature; MatchesPackageVersion checks an installed
// version against it (golang.org/x/mod/semver comparison against the
// version's ^-stripped form). The Recognizer does not consult
// PackageRange: it matches signatures by callee name only.
type Signature struct {
	Name          string         `yaml:"name"`
	Callee        string         `yaml:"callee"`
	Kind          SiteKind       `yaml:"kind"`
	Verbs         []string       `yaml:"verbs,omitempty"`
	Args          []ArgShape     `yaml:"args,omitempty"`
	Package       string         `yaml:"package,omitempty"`
	PackageRange  string         `yaml:"packageRange,omitempty"`
	// DefaultMethod is used when no verb/init/config can be read from
	// the call (fetch() defaults to GET per spec §4.3).
	DefaultMethod model.HttpMethod `yaml:"defaultMethod,omitempty"`
}

// Signatures is a loadable/overridable signature table (spec §9:
// "extending support means adding a Signature, not a code path").
type Signatures []Signature

// DefaultSignatures returns the common web-framework set spec.md §6
// calls out as the engine's baseline: router factories and HTTP client
// shapes, expressed as data rather than per-framework code paths.
func DefaultSignatures() []Signature {
	return []Signature{
		{Name: "express", Callee: "express", Kind: SiteRouterFactory},
		{Name: "express.Router", Callee: "express.Router", Kind: SiteRouterFactory},
		{Name: "Router", Callee: "Router", Kind: SiteRouterFactory},
		{Name: "Router.create", Callee: "Router.create", Kind: SiteRouterFactory},
		{Name: "fastify", Callee: "fastify", Kind: SiteRouterFactory},
		{Name: "koa-router", Callee: "koaRouter", Kind: SiteRouterFactory},
		{Name: "koa-router-ctor", Callee: "KoaRouter", Kind: SiteRouterFactory},

		{
			Name:          "fetch",
			Callee:        "fetch",
			Kind:          SiteHTTPClient,
			Args:          []ArgShape{{Position: 0, Kind: ArgPath}, {Position: 1, Kind: ArgInit}},
			DefaultMethod: model.GET,
		},
		{
			Name:   "axios.verb",
			Callee: "axios",
			Kind:   SiteHTTPClient,
			Verbs:  []string{"get", "post", "put", "patch", "delete", "head", "options"},
			Args:   []ArgShape{{Position: 0, Kind: ArgPath}},
		},
		{
			Name:          "axios.config",
			Callee:        "axios",
			Kind:          SiteHTTPClient,
			Args:          []ArgShape{{Position: 0, Kind: ArgConfig}},
			DefaultMethod: model.GET,
		},
		{
			Name:          "got",
			Callee:        "got",
			Kind:          SiteHTTPClient,
			Args:          []ArgShape{{Position: 0, Kind: ArgPath}, {Position: 1, Kind: ArgInit}},
			DefaultMethod: model.GET,
		},
		{
			Name:          "node-fetch",
			Callee:        "nodeFetch",
			Kind:          SiteHTTPClient,
			Args:          []ArgShape{{Position: 0, Kind: ArgPath}, {Position: 1, Kind: ArgInit}},
			DefaultMethod: model.GET,
		},
		{
			Name:          "superagent",
			Callee:        "superagent",
			Kind:          SiteHTTPClient,
			Verbs:         []string{"get", "post", "put", "patch", "delete"},
			Args:          []ArgShape{{Position: 0, Kind: ArgPath}},
			DefaultMethod: model.GET,
		},
	}
}

// routerVerbs is the set of method names recognized on a resolved
// router receiver (spec §4.3's endpoint-site rule); "all" and "use"
// are handled separately since they don't map 1:1 onto an HttpMethod.
var routerVerbs = map[string]model.HttpMethod{
	"get":     model.GET,
	"post":    model.POST,
	"put":     model.PUT,
	"patch":   model.PATCH,
	"delete":  model.DELETE,
	"options": model.OPTIONS,
	"head":    model.HEAD,
}
