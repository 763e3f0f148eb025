package view

import (
	"strconv"

	"payboard/internal/core"
)

// NoResults is the placeholder text of an empty table.
const NoResults = "No results."

// tableKeys lists the visible columns. Processing is not one of them.
var tableKeys = []core.StatusKey{core.StatusSuccess, core.StatusFailed, core.StatusPending}

type (
	Column struct {
		Key    core.StatusKey
		Header string
	}

	Row struct {
		Month string
		Cells []string
	}

	// TableView is a row-per-record table. When the sequence is empty Rows
	// holds a single placeholder row whose only cell spans every column.
	TableView struct {
		Columns []Column
		Rows    []Row
		Empty   bool
		Colspan int
	}
)

// Table renders one row per record with the success, failed and pending
// columns, in that order.
func Table(records []core.Record) TableView {
	t := TableView{
		Columns: make([]Column, 0, len(tableKeys)),
		Colspan: len(tableKeys),
	}
	for _, k := range tableKeys {
		t.Columns = append(t.Columns, Column{Key: k, Header: mustStatus(k).Label})
	}
	if len(records) == 0 {
		t.Empty = true
		t.Rows = []Row{{Cells: []string{NoResults}}}
		return t
	}
	t.Rows = make([]Row, 0, len(records))
	for _, r := range records {
		row := Row{Month: r.Month, Cells: make([]string, 0, len(tableKeys))}
		for _, k := range tableKeys {
			row.Cells = append(row.Cells, strconv.FormatInt(r.Count(k), 10))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Headers returns the column headers in display order.
func (t TableView) Headers() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Header)
	}
	return out
}
