package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/model"
)

func testContext() model.PipelineContext {
	return model.PipelineContext{
		BrandInfo: model.BrandInfo{Name: "Kids&Us", Domain: "kidsandus.es", Sector: "academias", Language: "es"},
		Brands: []model.Brand{
			{Name: "Kids&Us", Domain: "kidsandus.es"},
			{Name: "EF Education First", ShortName: "EF", Domain: "ef.com", IsCompetitor: true},
		},
	}
}

func testEnrichedAudit() []model.EnrichedAuditRow {
	kids := model.VisibilityRecord{Name: "Kids&Us", InContent: true}
	ef := model.VisibilityRecord{Name: "EF", InContent: true}
	return []model.EnrichedAuditRow{
		{
			AuditRow:   model.AuditRow{Keyword: "academia", Provider: model.ProviderPerplexity, Result: model.SearchResult{Answer: "Kids&Us y EF"}},
			Mentions:   []string{"Kids&Us", "EF"},
			Visibility: map[string]model.VisibilityRecord{"Kids&Us": kids, "EF": ef},
		},
		{
			AuditRow:   model.AuditRow{Keyword: "academia", Provider: model.ProviderGemini, Result: model.SearchResult{Answer: "EF"}},
			Mentions:   []string{"EF"},
			Visibility: map[string]model.VisibilityRecord{"EF": ef},
		},
	}
}

// savedStore returns a file store holding the given snapshot.
func savedStore(t *testing.T, snap *checkpoint.Snapshot) *checkpoint.FileStore {
	t.Helper()
	st := checkpoint.NewFileStore(filepath.Join(t.TempDir(), "checkpoint.json"))
	require.NoError(t, st.Save(context.Background(), snap))
	return st
}

func completeSnapshot() *checkpoint.Snapshot {
	return &checkpoint.Snapshot{
		Context:          checkpoint.Some(testContext()),
		KeywordRecords:   checkpoint.Some([]model.KeywordRecord{{Keyword: "academia", Origin: model.KeywordOriginSeed}}),
		EnrichedKeywords: checkpoint.Some([]model.EnrichedKeyword{{KeywordRecord: model.KeywordRecord{Keyword: "academia"}, Prompt: "¿academia?"}}),
		Audit:            checkpoint.Some([]model.AuditRow{{Keyword: "academia"}, {Keyword: "academia"}}),
		EnrichedAudit:    checkpoint.Some(testEnrichedAudit()),
	}
}
