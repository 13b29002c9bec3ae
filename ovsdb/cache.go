package ovsdb

import (
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

// Cache is a materialized view of the monitored tables, built by folding
// successive TableUpdates in receipt order. The decode path stays stateless.
// This is the consumer side, packaged once so every caller does not rewrite
// the same fold.
type Cache struct {
	mutex sync.Mutex
	tables map[string]map[string]RowPart
}

func NewCache() *Cache {
	return &Cache{
		tables: map[string]map[string]RowPart{},
	}
}

// Apply folds one update cycle into the cached state. Inserts add the row,
// deletes remove it, and modifies merge: columns in the new half overwrite,
// columns only in the old half were cleared and drop out of the cached row.
func (self *Cache) Apply(updates TableUpdates) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	for table, tableDiff := range updates {
		rows, ok := self.tables[table]
		if !ok {
			rows = map[string]RowPart{}
			self.tables[table] = rows
		}
		for rowUuid, rowDiff := range tableDiff {
			switch rowDiff.Kind() {
			case RowInsert:
				rows[rowUuid] = maps.Clone(rowDiff.New)
			case RowDelete:
				delete(rows, rowUuid)
			case RowModify:
				row, ok := rows[rowUuid]
				if !ok {
					// a modify for a row never inserted.
					// keep what the diff carries.
					row = RowPart{}
				} else {
					row = maps.Clone(row)
				}
				for column := range rowDiff.Old {
					if !rowDiff.New.Has(column) {
						delete(row, column)
					}
				}
				for column, value := range rowDiff.New {
					row[column] = value
				}
				rows[rowUuid] = row
			}
		}
	}
}

// Tables lists the cached table names, sorted.
func (self *Cache) Tables() []string {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	tables := maps.Keys(self.tables)
	slices.Sort(tables)
	return tables
}

// Row returns one cached row. The returned part is shared. Treat it as
// read only.
func (self *Cache) Row(table string, rowUuid string) (RowPart, bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	row, ok := self.tables[table][rowUuid]
	return row, ok
}

// Rows snapshots one table, row uuid to row part.
func (self *Cache) Rows(table string) map[string]RowPart {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return maps.Clone(self.tables[table])
}

func (self *Cache) Len(table string) int {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	return len(self.tables[table])
}
