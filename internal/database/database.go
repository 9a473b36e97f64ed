package database

import (
	"errors"

	"github.com/leca/ci-smoke/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Database defines the persistence interface for run history.
type Database interface {
	// CreateRun stores a run and all of its results atomically.
	CreateRun(run *model.Run) error
	// GetRun loads a run with its results in execution order.
	GetRun(id string) (*model.Run, error)
	// ListRuns returns the most recent runs first, results included.
	ListRuns(limit int) ([]*model.Run, error)
	// PruneRuns keeps the newest keep runs and deletes the rest.
	PruneRuns(keep int) (int, error)

	Close() error
}
