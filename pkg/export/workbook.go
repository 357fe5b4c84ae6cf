package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rhuss/paydesk/pkg/api"
)

// ContentType is the media type of a rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet holding the records.
const SheetName = "Records"

// Headers are the column titles of the records sheet, in column order.
var Headers = []string{
	"Id",
	"Created At",
	"Updated At",
	"Last Updated By",
	"First Name",
	"Last Name",
	"MI",
	"Course",
	"Year Level",
	"Payment For",
	"Amount",
	"Received By",
}

const timeLayout = "2006-01-02 15:04:05"

// Render writes a workbook with one header row and one row per record.
func Render(w io.Writer, records []*api.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	if err := setRow(f, 1, headerRow()); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i, r := range records {
		if err := setRow(f, i+2, recordRow(r)); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "A", "L", 18); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("export: row %d: %w", row, err)
	}
	return nil
}

func headerRow() []any {
	row := make([]any, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	return row
}

func recordRow(r *api.Record) []any {
	return []any{
		strconv.FormatInt(r.ID, 10),
		r.CreatedAt.UTC().Format(timeLayout),
		r.UpdatedAt.UTC().Format(timeLayout),
		r.LastUpdatedBy,
		r.FirstName,
		r.LastName,
		r.MI,
		r.Course,
		r.YearLevel,
		r.PaymentFor,
		r.Amount,
		r.ReceivedBy,
	}
}
