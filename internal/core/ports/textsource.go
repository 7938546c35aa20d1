package ports

import (
	"context"

	"go.trai.ch/loom/internal/core/domain"
)

// TextSource supplies a document's text and the version stamp the text was
// observed at. Load may be lazy and expensive (disk, editor buffer); the
// document state memoizes the first successful result, so implementations
// need not cache. Load must return the same version for unchanged content.
//
//go:generate go run go.uber.org/mock/mockgen -source=textsource.go -destination=mocks/mock_textsource.go -package=mocks
type TextSource interface {
	Load(ctx context.Context) (string, domain.VersionStamp, error)
}
