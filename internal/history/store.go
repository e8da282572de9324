// Package history persists pipeline run records so past verdicts can be
// listed, re-fetched, and exported.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MaksimPopov64/ocr-drw/internal/common"
	"github.com/MaksimPopov64/ocr-drw/internal/pipeline"
)

// Store is the verdict history backend.
type Store interface {
	Save(ctx context.Context, rec pipeline.Record) error
	Get(ctx context.Context, id string) (pipeline.Record, error)
	List(ctx context.Context, limit, offset int) ([]pipeline.Record, error)
	Close() error
}

// Open selects a backend by driver name.
func Open(ctx context.Context, cfg common.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		s, err := OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, common.WrapError(err, "sqlite history")
		}
		return s, nil
	case "postgres":
		s, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, common.WrapError(err, "postgres history")
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// Evidence blobs are stored as JSON columns; the row layout stays stable
// while the evidence shapes evolve.

func marshalEvidence(rec pipeline.Record) (structure, marks, decision []byte, err error) {
	if structure, err = json.Marshal(rec.Structure); err != nil {
		return nil, nil, nil, err
	}
	if marks, err = json.Marshal(rec.Marks); err != nil {
		return nil, nil, nil, err
	}
	if decision, err = json.Marshal(rec.Decision); err != nil {
		return nil, nil, nil, err
	}
	return structure, marks, decision, nil
}

func unmarshalEvidence(rec *pipeline.Record, structure, marks, decision []byte) error {
	if len(structure) > 0 {
		if err := json.Unmarshal(structure, &rec.Structure); err != nil {
			return err
		}
	}
	if len(marks) > 0 {
		if err := json.Unmarshal(marks, &rec.Marks); err != nil {
			return err
		}
	}
	if len(decision) > 0 {
		if err := json.Unmarshal(decision, &rec.Decision); err != nil {
			return err
		}
	}
	return nil
}
