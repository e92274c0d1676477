package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/visibility-cli/internal/model"
)

func testBrands() []model.Brand {
	return []model.Brand{
		{Name: "Kids&Us", Domain: "kidsandus.es"},
		{Name: "EF Education First", ShortName: "EF", Domain: "ef.com", IsCompetitor: true},
	}
}

func row(p model.Provider, keyword, answer string, vis map[string]model.VisibilityRecord, mentions ...string) model.EnrichedAuditRow {
	return model.EnrichedAuditRow{
		AuditRow: model.AuditRow{
			Keyword:  keyword,
			Prompt:   "¿" + keyword + "?",
			Provider: p,
			Result:   model.SearchResult{Answer: answer},
		},
		Mentions:   mentions,
		Visibility: vis,
	}
}

func testRows() []model.EnrichedAuditRow {
	kids := model.VisibilityRecord{Name: "Kids&Us", InContent: true, Citations: []string{"https://kidsandus.es/"}}
	ef := model.VisibilityRecord{Name: "EF", InContent: true}
	return []model.EnrichedAuditRow{
		row(model.ProviderPerplexity, "academia", "Kids&Us y EF", map[string]model.VisibilityRecord{"Kids&Us": kids, "EF": ef}, "Kids&Us", "EF"),
		row(model.ProviderGemini, "academia", "EF", map[string]model.VisibilityRecord{"EF": ef}, "EF"),
		row(model.ProviderPerplexity, "bebés", "Kids&Us", map[string]model.VisibilityRecord{"Kids&Us": kids}, "Kids&Us"),
		row(model.ProviderGemini, "bebés", "", nil),
	}
}

func stat(t *testing.T, s Summary, name string) model.VisibilityStats {
	t.Helper()
	for _, st := range s.Stats {
		if st.Name == name {
			return st
		}
	}
	t.Fatalf("no stats for %s in %s", name, s.Provider)
	return model.VisibilityStats{}
}

func TestBuild_OverallThenProviders(t *testing.T) {
	got := Build(testBrands(), testRows(), true)
	require.Len(t, got, 3)

	assert.Equal(t, AllProviders, got[0].Provider)
	assert.Equal(t, 4, got[0].Rows)
	assert.Equal(t, 3, got[0].Answered)
	assert.Equal(t, 2, stat(t, got[0], "Kids&Us").Answer)
	assert.Equal(t, 2, stat(t, got[0], "EF").Answer)
	assert.Equal(t, 1, stat(t, got[0], "Kids&Us").UniqueCitations)

	assert.Equal(t, "perplexity", got[1].Provider)
	assert.Equal(t, 2, stat(t, got[1], "Kids&Us").Answer)
	assert.Equal(t, 1, stat(t, got[1], "EF").Answer)

	assert.Equal(t, "gemini", got[2].Provider)
	assert.Equal(t, 2, got[2].Rows)
	assert.Equal(t, 1, got[2].Answered)
	assert.Zero(t, stat(t, got[2], "Kids&Us").Answer)
}

func TestBuild_Empty(t *testing.T) {
	got := Build(testBrands(), nil, false)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Rows)
	assert.Zero(t, got[0].Share(stat(t, got[0], "EF")))
}

func TestSummary_Share(t *testing.T) {
	s := Summary{Answered: 4}
	assert.InDelta(t, 0.75, s.Share(model.VisibilityStats{Answer: 3}), 1e-9)
}

func TestWriteXLSX(t *testing.T) {
	pc := model.PipelineContext{
		BrandInfo: model.BrandInfo{Name: "Kids&Us", Domain: "kidsandus.es"},
		Brands:    testBrands(),
	}
	rows := testRows()
	rows[0].Result.Answer = strings.Repeat("a", maxCellLen+10)
	path := filepath.Join(t.TempDir(), "visibility.xlsx")

	require.NoError(t, WriteXLSX(path, pc, Build(pc.Brands, rows, true), rows))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 4)
	assert.Equal(t, "Summary", f.Sheets[0].Name)
	assert.Equal(t, "perplexity", f.Sheets[1].Name)
	assert.Equal(t, "gemini", f.Sheets[2].Name)
	assert.Equal(t, "Rows", f.Sheets[3].Name)

	summary := f.Sheets[0]
	assert.Equal(t, "Kids&Us", summary.Rows[0].Cells[1].String())
	assert.Equal(t, statsHeader[0], summary.Rows[5].Cells[0].String())
	assert.Equal(t, "Kids&Us", summary.Rows[6].Cells[0].String())
	assert.Equal(t, "no", summary.Rows[6].Cells[1].String())
	assert.Equal(t, "EF", summary.Rows[7].Cells[0].String())
	assert.Equal(t, "yes", summary.Rows[7].Cells[1].String())

	data := f.Sheets[3]
	require.Len(t, data.Rows, len(rows)+1)
	assert.Equal(t, rowsHeader[0], data.Rows[0].Cells[0].String())
	first := data.Rows[1]
	assert.Equal(t, "perplexity", first.Cells[0].String())
	assert.Equal(t, "Kids&Us, EF", first.Cells[5].String())
	assert.Equal(t, "yes", first.Cells[6].String())
	assert.Equal(t, "Kids&Us", first.Cells[7].String())
	assert.Len(t, first.Cells[9].String(), maxCellLen)
	assert.Equal(t, "no", data.Rows[2].Cells[6].String())
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c", sheetName("a/b?c"))
	assert.Equal(t, "unknown", sheetName(""))
	assert.Len(t, sheetName(strings.Repeat("x", 40)), 31)
}
