// Package store persists routing runs so they can be listed, inspected and
// re-rendered later.
//
// Three backends implement [Store]:
//   - [FileStore] keeps one JSON file per run under the XDG data directory
//   - [MongoStore] keeps runs in a MongoDB collection for the API server
//   - [MemoryStore] keeps runs in process, for tests and ephemeral servers
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/routing"
	"github.com/matzehuels/ductrouter/pkg/scenario"
)

// Run is one stored routing run.
type Run struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CreatedAt    time.Time       `json:"created_at"`
	ScenarioHash string          `json:"scenario_hash"`
	Terminals    int             `json:"terminals"`
	Routed       int             `json:"routed"`
	Failed       int             `json:"failed"`
	Result       json.RawMessage `json:"result"`
}

// NewRun assigns a fresh ID and snapshots res.
func NewRun(name, scenarioHash string, res *routing.Result) (*Run, error) {
	data, err := scenario.MarshalResult(res)
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedAt:    time.Now().UTC(),
		ScenarioHash: scenarioHash,
		Terminals:    len(res.Routes),
		Routed:       len(res.Succeeded()),
		Failed:       len(res.Failed()),
		Result:       data,
	}, nil
}

// Decode returns the stored routing result.
func (r *Run) Decode() (*routing.Result, error) {
	return scenario.UnmarshalResult(r.Result)
}

// Store saves and retrieves runs.
type Store interface {
	// Save stores run, replacing any run with the same ID.
	Save(ctx context.Context, run *Run) error

	// Get returns the run with the given ID or an errors.ErrCodeRunNotFound error.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit runs, newest first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*Run, error)

	Close(ctx context.Context) error
}

// ValidateID checks that id is a run UUID. IDs become file names and
// database keys, so nothing else is accepted.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid run id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
}
