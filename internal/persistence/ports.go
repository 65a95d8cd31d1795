package persistence

import (
	"context"

	"duebook/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordLoader reads the full record set back from storage.
	RecordLoader interface {
		// Load returns the stored records in their saved order. A store that
		// does not exist yet yields no records and no error.
		Load(ctx context.Context) ([]core.Record, error)
	}

	// RecordSaver overwrites storage with a full snapshot.
	RecordSaver interface {
		Save(ctx context.Context, records []core.Record) error
	}

	Repository interface {
		RecordLoader
		RecordSaver
	}
)
