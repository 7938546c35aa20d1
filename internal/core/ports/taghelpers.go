package ports

import (
	"context"

	"go.trai.ch/loom/internal/core/domain"
)

// TagHelperProvider supplies the workspace-wide tag-helper set together with
// a version stamp representing it. The stamp changes iff the set changes.
//
//go:generate go run go.uber.org/mock/mockgen -source=taghelpers.go -destination=mocks/mock_taghelpers.go -package=mocks
type TagHelperProvider interface {
	TagHelpers(ctx context.Context) ([]domain.TagHelper, domain.VersionStamp, error)
}
