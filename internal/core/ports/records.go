package ports

import "go.trai.ch/loom/internal/core/domain"

// CompileRecordStore persists compile records across runs. Open binds the
// store to a project root and must be called before Get or Put.
//
//go:generate go run go.uber.org/mock/mockgen -source=records.go -destination=mocks/mock_records.go -package=mocks
type CompileRecordStore interface {
	Open(root string) error
	Get(target string) (*domain.CompileRecord, error)
	Put(record domain.CompileRecord) error
}
