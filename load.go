package carrick

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viant/afs"

	"github.com/viant/carrick/model"
)

// ParseFunc turns raw source bytes into an opaque syntax tree (spec §1:
// the core never parses for itself). Callers typically supply a
// closure over a *sitter.Parser configured for the right JS/TS/TSX
// grammar.
type ParseFunc func(source []byte) (any, error)

// LoadSourceUnit reads path through fs and parses it into a SourceUnit,
// the convenience an embedding host or test fixture reaches for instead
// of hand-building model.SourceUnit values, mirroring
// analyzer.Analyzer.analyzePackage's afs.Service.DownloadWithURL read
// path. fs may be nil, in which case afs.New() is used.
func LoadSourceUnit(ctx context.Context, fs afs.Service, repo model.RepoID, path string, parse ParseFunc) (*model.SourceUnit, error) {
	if fs == nil {
		fs = afs.New()
	}
	source, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read source unit %q", path)
	}
	tree, err := parse(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse source unit %q", path)
	}
	return &model.SourceUnit{
		ID:     model.NewUnitID(repo, path),
		Repo:   repo,
		Path:   path,
		Tree:   tree,
		Source: source,
	}, nil
}
