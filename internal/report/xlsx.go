package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/visibility-cli/internal/model"
)

// Excel rejects cells longer than this.
const maxCellLen = 32767

const (
	sheetSummary = "Summary"
	sheetRows    = "Rows"
)

var statsHeader = []string{
	"Brand", "Competitor", "Answers", "Share",
	"Citations", "Unique citations", "References", "Unique references",
}

var rowsHeader = []string{
	"Provider", "Keyword", "Persona", "Funnel stage", "Prompt",
	"Mentions", "Brand mentioned", "Top mention", "Sources", "Answer",
}

// WriteXLSX writes the summaries and rows to path. The first summary fills
// the Summary sheet, each further summary gets a sheet named after its
// provider, and Rows lists every audit row.
func WriteXLSX(path string, pc model.PipelineContext, summaries []Summary, rows []model.EnrichedAuditRow) error {
	f := xlsx.NewFile()

	for i, s := range summaries {
		name := s.Provider
		if i == 0 {
			name = sheetSummary
		}
		sheet, err := f.AddSheet(sheetName(name))
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", name)
		}
		writeSummary(sheet, pc, s)
	}

	sheet, err := f.AddSheet(sheetRows)
	if err != nil {
		return eris.Wrap(err, "report: add rows sheet")
	}
	own, _ := pc.Brand()
	writeRows(sheet, own.Label(), rows)

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeSummary(sheet *xlsx.Sheet, pc model.PipelineContext, s Summary) {
	addStrings(sheet, "Brand", pc.BrandInfo.Name)
	addStrings(sheet, "Domain", pc.BrandInfo.Domain)
	addStrings(sheet, "Provider", s.Provider)
	row := sheet.AddRow()
	row.AddCell().SetString("Rows")
	row.AddCell().SetInt(s.Rows)
	row = sheet.AddRow()
	row.AddCell().SetString("Answered")
	row.AddCell().SetInt(s.Answered)

	addStrings(sheet, statsHeader...)
	for _, st := range s.Stats {
		row := sheet.AddRow()
		row.AddCell().SetString(st.Name)
		row.AddCell().SetString(yesNo(st.IsCompetitor))
		row.AddCell().SetInt(st.Answer)
		row.AddCell().SetFloat(s.Share(st))
		row.AddCell().SetInt(st.Citations)
		row.AddCell().SetInt(st.UniqueCitations)
		row.AddCell().SetInt(st.References)
		row.AddCell().SetInt(st.UniqueReferences)
	}
}

func writeRows(sheet *xlsx.Sheet, own string, rows []model.EnrichedAuditRow) {
	addStrings(sheet, rowsHeader...)
	for _, r := range rows {
		top := ""
		if len(r.Mentions) > 0 {
			top = r.Mentions[0]
		}
		_, mentioned := r.Visibility[own]
		row := sheet.AddRow()
		row.AddCell().SetString(string(r.Provider))
		row.AddCell().SetString(r.Keyword)
		row.AddCell().SetString(r.Persona)
		row.AddCell().SetString(r.Funnel)
		row.AddCell().SetString(clip(r.Prompt))
		row.AddCell().SetString(strings.Join(r.Mentions, ", "))
		row.AddCell().SetString(yesNo(mentioned))
		row.AddCell().SetString(top)
		row.AddCell().SetInt(len(r.Result.Sources))
		row.AddCell().SetString(clip(r.Result.Answer))
	}
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func clip(s string) string {
	if len(s) <= maxCellLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxCellLen], "")
}

// sheetName fits a name to Excel's 31-character limit and strips the
// characters Excel forbids.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "unknown"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
