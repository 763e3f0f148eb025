package store

import (
	"context"

	"payboard/internal/core"
)

// Ports for the record sequence.
type (
	// RecordReader exposes a read-only snapshot of the sequence.
	RecordReader interface {
		// Records returns the sequence in insertion order.
		Records(ctx context.Context) ([]core.Record, error)
	}

	// RecordAppender adds one record at the end of the sequence.
	RecordAppender interface {
		// Append returns the new sequence; previously returned snapshots
		// are left untouched.
		Append(ctx context.Context, r core.Record) ([]core.Record, error)
	}

	RecordStore interface {
		RecordReader
		RecordAppender
	}
)
