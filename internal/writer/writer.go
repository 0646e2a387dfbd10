// Package writer defines the relational sink the transform stage streams
// into, plus the Postgres and CSV implementations.
package writer

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
)

// Record is one enriched row, projected positionally onto its dataset's
// column list.
type Record interface {
	Values() []any
}

// Batch is a group of records from a single dataset. Batches delivered to a
// Writer never mix datasets.
type Batch struct {
	Dataset catalog.Dataset
	Records []Record
}

// Writer receives enriched batches one dataset at a time. Calls follow a
// strict sequence: BeginDataset, any number of WriteBatch, EndDataset,
// repeated per dataset, then a single Commit (or Abort on failure).
// Implementations serialize calls with an internal mutex, so concurrent
// producers may share one Writer without their own locking.
type Writer interface {
	BeginDataset(ctx context.Context, ds catalog.Dataset) error
	WriteBatch(ctx context.Context, batch Batch) (written int, failed int, err error)
	EndDataset(ctx context.Context) error
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// writerState tracks the call sequence so misuse fails loudly instead of
// corrupting a sink.
type writerState int

const (
	stateIdle writerState = iota
	stateStreaming
	stateDone
)

func (s writerState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateStreaming:
		return "streaming"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// sequence is embedded by the concrete writers to share the state checks.
// Its mutex serializes the writer's public methods; each method locks it on
// entry so callers never need external synchronization.
type sequence struct {
	mu      sync.Mutex
	state   writerState
	dataset catalog.Dataset
}

func (s *sequence) begin(ds catalog.Dataset) error {
	if s.state != stateIdle {
		return errors.Errorf("begin dataset in state %s", s.state)
	}
	s.state = stateStreaming
	s.dataset = ds
	return nil
}

func (s *sequence) write(ds catalog.Dataset) error {
	if s.state != stateStreaming {
		return errors.Errorf("write batch in state %s", s.state)
	}
	if ds != s.dataset {
		return errors.Errorf("batch for %s inside %s stream", ds, s.dataset)
	}
	return nil
}

func (s *sequence) end() error {
	if s.state != stateStreaming {
		return errors.Errorf("end dataset in state %s", s.state)
	}
	s.state = stateIdle
	return nil
}

func (s *sequence) finish() error {
	if s.state != stateIdle {
		return errors.Errorf("commit in state %s", s.state)
	}
	s.state = stateDone
	return nil
}
