package employee

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Employees"

var exportColumns = []struct {
	title string
	width float64
	value func(Employee) interface{}
}{
	{"ID", 8, func(e Employee) interface{} { return e.ID }},
	{"Full name", 28, func(e Employee) interface{} { return e.FullName }},
	{"Email", 32, func(e Employee) interface{} { return e.Email }},
	{"Phone", 16, func(e Employee) interface{} { return e.Phone }},
	{"Job title", 24, func(e Employee) interface{} { return e.JobTitle }},
	{"Department", 22, func(e Employee) interface{} { return e.DepartmentName }},
	{"Organ", 22, func(e Employee) interface{} { return e.OrganName }},
	{"Location", 20, func(e Employee) interface{} { return e.LocationName }},
	{"Country", 16, func(e Employee) interface{} { return e.CountryName }},
	{"Hired", 12, func(e Employee) interface{} {
		if e.HiredAt == nil {
			return ""
		}
		return e.HiredAt.Format("2006-01-02")
	}},
	{"Status", 10, func(e Employee) interface{} { return e.Status }},
}

func writeWorkbook(w io.Writer, employees []Employee) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, col := range exportColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, name+"1", col.title); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(exportColumns))
	if err := f.SetCellStyle(exportSheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for r, e := range employees {
		for c, col := range exportColumns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(exportSheet, cell, col.value(e)); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
