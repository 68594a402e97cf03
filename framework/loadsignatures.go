package framework

import (
	"io"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// LoadSignatures reads a Signatures table from r, the same "config is
// just a struct with yaml tags" pattern inspector/graph.Config and
// analyzer/info.Identity already use (spec §9 extensibility, SPEC_FULL
// Ambient Stack). It does not merge with DefaultSignatures: callers that
// want both concatenate the two slices themselves.
func LoadSignatures(r io.Reader) (Signatures, error) {
	var sigs Signatures
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&sigs); err != nil && err != io.EOF {
		return nil, err
	}
	return sigs, nil
}

// MarshalYAML round-trips a Signatures table back to yaml for audit/diff.
func (s Signatures) MarshalYAML() (interface{}, error) {
	return []Signature(s), nil
}

// MatchesPackageVersion reports whether sig's PackageRange is satisfied
// by installedVersion (a package.json dependency version, with any
// leading "^"/"~" stripped before the semver comparison). A Signature
// with no PackageRange always matches, preserving the name-only
// behavior DefaultSignatures relies on.
func (sig Signature) MatchesPackageVersion(installedVersion string) bool {
	if sig.PackageRange == "" {
		return true
	}
	v := "v" + strings.TrimLeft(installedVersion, "^~=")
	if !semver.IsValid(v) {
		return false
	}
	lo, hi, ok := rangeBounds(sig.PackageRange)
	if !ok {
		return false
	}
	if lo != "" && semver.Compare(v, lo) < 0 {
		return false
	}
	if hi != "" && semver.Compare(v, hi) >= 0 {
		return false
	}
	return true
}

// rangeBounds parses a "^4" / "4.x" style caret range into a [lo, hi)
// semver bound: "^4" becomes ["v4.0.0", "v5.0.0").
func rangeBounds(raw string) (lo, hi string, ok bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "^")
	major := strings.SplitN(trimmed, ".", 2)[0]
	if major == "" {
		return "", "", false
	}
	lo = "v" + major + ".0.0"
	if !semver.IsValid(lo) {
		return "", "", false
	}
	hi = "v" + incrementMajor(major) + ".0.0"
	return lo, hi, true
}

func incrementMajor(major string) string {
	digits := []byte(major)
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return string(digits)
		}
		digits[i] = '0'
	}
	return "1" + string(digits)
}
