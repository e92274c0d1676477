// Package checkpoint persists the audit pipeline's per-stage results so an
// interrupted run resumes from the last completed stage.
package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/internal/model"
)

// Stage names, in pipeline order. They are also the snapshot's JSON keys.
const (
	StageContext          = "context"
	StageKeywordRecords   = "keywordRecords"
	StageEnrichedKeywords = "enrichedKeywords"
	StageAudit            = "audit"
	StageEnrichedAudit    = "enrichedAudit"
)

// StageNames lists every stage in pipeline order.
var StageNames = []string{
	StageContext,
	StageKeywordRecords,
	StageEnrichedKeywords,
	StageAudit,
	StageEnrichedAudit,
}

// ErrCorrupt is returned when stored data is not a snapshot.
var ErrCorrupt = eris.New("checkpoint: corrupt snapshot")

// Store loads and saves one run's snapshot. Load returns an empty snapshot
// when nothing has been saved yet. Save replaces the whole snapshot.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context) error
}

// Stage holds a stage's output, or nothing when the stage has not run.
type Stage[T any] struct {
	val T
	ok  bool
}

// Some returns a computed stage holding v.
func Some[T any](v T) Stage[T] {
	return Stage[T]{val: v, ok: true}
}

// Get returns the stage output and whether the stage has been computed.
func (s Stage[T]) Get() (T, bool) {
	return s.val, s.ok
}

// Set records v as the stage output.
func (s *Stage[T]) Set(v T) {
	s.val, s.ok = v, true
}

// IsZero reports whether the stage is absent.
func (s Stage[T]) IsZero() bool {
	return !s.ok
}

func (s Stage[T]) MarshalJSON() ([]byte, error) {
	if !s.ok {
		return []byte("null"), nil
	}
	data, err := json.Marshal(s.val)
	if err != nil {
		return nil, err
	}
	// A computed stage with no rows must stay present.
	if bytes.Equal(data, []byte("null")) && reflect.ValueOf(s.val).Kind() == reflect.Slice {
		return []byte("[]"), nil
	}
	return data, nil
}

func (s *Stage[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Stage[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.Set(v)
	return nil
}

// Snapshot is the persisted state of one run. An absent key means the stage
// has not been computed.
type Snapshot struct {
	Context          Stage[model.PipelineContext]    `json:"context,omitzero"`
	KeywordRecords   Stage[[]model.KeywordRecord]    `json:"keywordRecords,omitzero"`
	EnrichedKeywords Stage[[]model.EnrichedKeyword]  `json:"enrichedKeywords,omitzero"`
	Audit            Stage[[]model.AuditRow]         `json:"audit,omitzero"`
	EnrichedAudit    Stage[[]model.EnrichedAuditRow] `json:"enrichedAudit,omitzero"`
}

// Completed returns the names of the stages present, in pipeline order.
func (s *Snapshot) Completed() []string {
	present := map[string]bool{
		StageContext:          !s.Context.IsZero(),
		StageKeywordRecords:   !s.KeywordRecords.IsZero(),
		StageEnrichedKeywords: !s.EnrichedKeywords.IsZero(),
		StageAudit:            !s.Audit.IsZero(),
		StageEnrichedAudit:    !s.EnrichedAudit.IsZero(),
	}
	var out []string
	for _, name := range StageNames {
		if present[name] {
			out = append(out, name)
		}
	}
	return out
}

// Encode serializes snap as an indented JSON object.
func Encode(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "checkpoint: encode")
	}
	return data, nil
}

// Decode parses a stored snapshot. Data that is not a JSON object, carries a
// key that is not a stage name, or holds a stage value of the wrong shape is
// rejected with ErrCorrupt.
func Decode(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(ErrCorrupt, "checkpoint: not a JSON object: %v", err)
	}
	if raw == nil {
		return nil, eris.Wrap(ErrCorrupt, "checkpoint: null document")
	}

	snap := &Snapshot{}
	slots := map[string]any{
		StageContext:          &snap.Context,
		StageKeywordRecords:   &snap.KeywordRecords,
		StageEnrichedKeywords: &snap.EnrichedKeywords,
		StageAudit:            &snap.Audit,
		StageEnrichedAudit:    &snap.EnrichedAudit,
	}
	for key, value := range raw {
		slot, ok := slots[key]
		if !ok {
			return nil, eris.Wrapf(ErrCorrupt, "checkpoint: unknown key %q", key)
		}
		if err := json.Unmarshal(value, slot); err != nil {
			return nil, eris.Wrapf(ErrCorrupt, "checkpoint: stage %s: %v", key, err)
		}
	}
	return snap, nil
}
