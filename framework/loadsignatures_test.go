package framework_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/viant/carrick/framework"
	"github.com/viant/carrick/model"
)

func TestLoadSignaturesParsesYAML(t *testing.T) {
	doc := `
- name: express4
  callee: express
  kind: router-factory
  package: express
  packageRange: "^4"
- name: fetch
  callee: fetch
  kind: http-client
  defaultMethod: GET
  args:
    - position: 0
      kind: path
`
	sigs, err := framework.LoadSignatures(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, "express4", sigs[0].Name)
	assert.Equal(t, "^4", sigs[0].PackageRange)
	assert.Equal(t, model.GET, sigs[1].DefaultMethod)
	assert.Equal(t, framework.ArgPath, sigs[1].Args[0].Kind)
}

func TestLoadSignaturesEmptyReaderYieldsNoSignatures(t *testing.T) {
	sigs, err := framework.LoadSignatures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestSignaturesMarshalYAMLRoundTrips(t *testing.T) {
	sigs := framework.Signatures{
		{Name: "express", Callee: "express", Kind: framework.SiteRouterFactory, Package: "express", PackageRange: "^4"},
	}
	var buf bytes.Buffer
	require.NoError(t, yaml.NewEncoder(&buf).Encode(sigs))

	reloaded, err := framework.LoadSignatures(&buf)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, sigs[0], reloaded[0])
}

func TestMatchesPackageVersionWithinCaretRange(t *testing.T) {
	sig := framework.Signature{PackageRange: "^4"}
	assert.True(t, sig.MatchesPackageVersion("4.18.2"))
	assert.True(t, sig.MatchesPackageVersion("^4.2.0"))
	assert.False(t, sig.MatchesPackageVersion("3.21.0"))
	assert.False(t, sig.MatchesPackageVersion("5.0.0"))
}

func TestMatchesPackageVersionNoRangeAlwaysMatches(t *testing.T) {
	sig := framework.Signature{}
	assert.True(t, sig.MatchesPackageVersion("0.0.1"))
	assert.True(t, sig.MatchesPackageVersion(""))
}

func TestMatchesPackageVersionRejectsInvalidVersion(t *testing.T) {
	sig := framework.Signature{PackageRange: "^4"}
	assert.False(t, sig.MatchesPackageVersion("not-a-version"))
}
