package ovsdb

// RowChange classifies one row diff. The classification is a pure function
// of which halves are present, so it is derived, not stored.
const (
	RowInsert = RowChange("insert")
	RowModify = RowChange("modify")
	RowDelete = RowChange("delete")
)

type RowChange string

// RowDiff is the old/new pair for one row uuid in one table. At least one
// half is always present. Columns present in New carry the authoritative new
// values. Columns present only in Old were cleared in the transition. Columns
// absent from both were not touched this cycle.
type RowDiff struct {
	Old RowPart
	New RowPart
}

func (self RowDiff) Kind() RowChange {
	if self.Old == nil {
		return RowInsert
	}
	if self.New == nil {
		return RowDelete
	}
	return RowModify
}

// TableDiff maps row uuid to its diff, for one table, for one update cycle.
type TableDiff map[string]RowDiff

// TableSpecs maps table name to the column specs the caller models.
type TableSpecs map[string]ColumnSpecs

// TableUpdates is the unit delivered by one monitor result or one update
// notification: table name to table diff. Successive values are meaningful
// in receipt order only. Each decode is independent, and folding them into
// persistent table state is the caller's job.
type TableUpdates map[string]TableDiff

// DecodeTableUpdates decodes one monitor result or update notification body.
// Tables absent from `tables` are skipped, so monitoring a superset of the
// modeled tables is fine.
func DecodeTableUpdates(v any, tables TableSpecs) (TableUpdates, error) {
	body, ok := v.(map[string]any)
	if !ok {
		return nil, newDecodeError(ErrTypeMismatch, "table updates is %T, expected an object", v)
	}

	updates := TableUpdates{}
	for table, rows := range body {
		columns, ok := tables[table]
		if !ok {
			continue
		}
		tableDiff, err := decodeTableDiff(rows, table, columns)
		if err != nil {
			return nil, err
		}
		updates[table] = tableDiff
	}
	return updates, nil
}

func decodeTableDiff(v any, table string, columns ColumnSpecs) (TableDiff, error) {
	rows, ok := v.(map[string]any)
	if !ok {
		err := newDecodeError(ErrTypeMismatch, "table diff is %T, expected an object", v)
		return nil, annotateDecodeError(err, table, "", "")
	}

	tableDiff := TableDiff{}
	for rowUuid, halves := range rows {
		rowDiff, err := decodeRowDiff(halves, table, rowUuid, columns)
		if err != nil {
			return nil, err
		}
		tableDiff[rowUuid] = rowDiff
	}
	return tableDiff, nil
}

func decodeRowDiff(v any, table string, rowUuid string, columns ColumnSpecs) (RowDiff, error) {
	halves, ok := v.(map[string]any)
	if !ok {
		err := newDecodeError(ErrTypeMismatch, "row diff is %T, expected an object", v)
		return RowDiff{}, annotateDecodeError(err, table, "", rowUuid)
	}

	rowDiff := RowDiff{}
	if old, ok := halves["old"]; ok {
		part, err := DecodeRowPart(old, table, columns)
		if err != nil {
			return RowDiff{}, annotateDecodeError(err, table, "", rowUuid)
		}
		rowDiff.Old = part
	}
	if new_, ok := halves["new"]; ok {
		part, err := DecodeRowPart(new_, table, columns)
		if err != nil {
			return RowDiff{}, annotateDecodeError(err, table, "", rowUuid)
		}
		rowDiff.New = part
	}
	if rowDiff.Old == nil && rowDiff.New == nil {
		err := newDecodeError(ErrMissingRowDiff, "row diff has neither old nor new")
		return RowDiff{}, annotateDecodeError(err, table, "", rowUuid)
	}
	return rowDiff, nil
}
