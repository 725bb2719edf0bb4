package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

const (
	SheetOverview = "Overview"
	SheetRatings  = "Ratings"
	SheetText     = "Text"
)

// WriteXLSX renders a generated report as a workbook with one sheet for
// the overall rating, one for the category tree and one for text answers.
func WriteXLSX(w io.Writer, title string, r *model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetRatings, SheetText} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("style: %w", err)
	}

	if err := writeOverview(f, bold, title, r.Rating); err != nil {
		return err
	}
	if err := writeRatings(f, bold, r); err != nil {
		return err
	}
	if err := writeText(f, bold, r.TextQuestions); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, bold int, title string, stats model.RatingStats) error {
	rows := [][]interface{}{
		{title},
		{},
		{"Responses", stats.Count},
		{"Average", averageCell(stats.Average)},
		{},
		{"Rating", "Count"},
	}
	for _, freq := range stats.Frequencies {
		rows = append(rows, []interface{}{freq.Value(), freq.Count()})
	}
	if err := setRows(f, SheetOverview, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetOverview, "A1", "A1", bold); err != nil {
		return err
	}
	return f.SetCellStyle(SheetOverview, "A6", "B6", bold)
}

func writeRatings(f *excelize.File, bold int, r *model.Report) error {
	header := []interface{}{"Level", "Category", "Subcategory", "Question", "Count", "Average"}
	for _, freq := range r.Rating.Frequencies {
		header = append(header, strconv.Itoa(freq.Value()))
	}
	rows := [][]interface{}{header}

	for _, c := range r.Categories {
		rows = append(rows, statsRow("Category", c.Title, "", "", c.Rating))
		for _, sc := range c.Subcategories {
			rows = append(rows, statsRow("Subcategory", c.Title, sc.Title, "", sc.Rating))
			for _, q := range sc.Questions {
				rows = append(rows, statsRow("Question", c.Title, sc.Title, q.Prompt, q.Rating))
			}
		}
	}
	if err := setRows(f, SheetRatings, rows); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetRatings, "A1", last, bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetRatings, "B", "D", 32)
}

func writeText(f *excelize.File, bold int, questions []model.TextQuestion) error {
	rows := [][]interface{}{{"Question", "Response"}}
	for _, q := range questions {
		for _, answer := range q.Responses {
			rows = append(rows, []interface{}{q.Prompt, answer})
		}
	}
	if err := setRows(f, SheetText, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetText, "A1", "B1", bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetText, "A", "B", 48)
}

func statsRow(level, category, subcategory, question string, stats model.RatingStats) []interface{} {
	row := []interface{}{level, category, subcategory, question, stats.Count, averageCell(stats.Average)}
	for _, freq := range stats.Frequencies {
		row = append(row, freq.Count())
	}
	return row
}

func averageCell(avg *float64) interface{} {
	if avg == nil {
		return ""
	}
	return *avg
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
