package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "Team Health", Build(testSurvey(), scenarioResponses())); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != SheetOverview || sheets[1] != SheetRatings || sheets[2] != SheetText {
		t.Fatalf("sheets = %v", sheets)
	}

	title, err := f.GetCellValue(SheetOverview, "A1")
	if err != nil || title != "Team Health" {
		t.Fatalf("title = %q, %v", title, err)
	}
	count, _ := f.GetCellValue(SheetOverview, "B3")
	if count != "18" {
		t.Fatalf("responses = %q, want 18", count)
	}

	ratings, err := f.GetRows(SheetRatings)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	// header, 2 categories, 3 subcategories, 6 rating questions
	if len(ratings) != 12 {
		t.Fatalf("rating rows = %d, want 12", len(ratings))
	}
	if ratings[1][0] != "Category" || ratings[1][1] != "Category 1" || ratings[1][4] != "12" {
		t.Fatalf("first category row = %v", ratings[1])
	}

	text, err := f.GetRows(SheetText)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(text) != 7 || text[1][1] != "Text 1" || text[4][1] != "Text 2" {
		t.Fatalf("text rows = %v", text)
	}
}
