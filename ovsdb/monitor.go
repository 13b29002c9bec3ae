package ovsdb

import (
	"slices"

	"github.com/oklog/ulid/v2"

	"golang.org/x/exp/maps"
)

// Monitor describes one standing subscription: which database, which tables
// and columns, and the key that correlates update notifications back to this
// subscription. It builds the `monitor` request params and decodes both the
// immediate result and later notifications through the same diff model.
//
// A monitor holds no row state. The immediate result is an insert of
// everything currently present, and notifications are further diffs. Both
// are folded by the caller, e.g. into a Cache.
type Monitor struct {
	database string
	monitorId string
	tables TableSpecs
}

// NewMonitor uses the database name as the monitor id, which is the common
// convention when one connection monitors each database at most once.
func NewMonitor(database string, tables TableSpecs) *Monitor {
	return NewMonitorWithId(database, database, tables)
}

// NewMonitorWithGeneratedId draws a unique monitor id, for connections that
// monitor the same database more than once.
func NewMonitorWithGeneratedId(database string, tables TableSpecs) *Monitor {
	return NewMonitorWithId(database, ulid.Make().String(), tables)
}

func NewMonitorWithId(database string, monitorId string, tables TableSpecs) *Monitor {
	return &Monitor{
		database: database,
		monitorId: monitorId,
		tables: tables,
	}
}

func (self *Monitor) Database() string {
	return self.database
}

func (self *Monitor) MonitorId() string {
	return self.monitorId
}

func (self *Monitor) Tables() TableSpecs {
	return self.tables
}

// RequestParams builds the params of the `monitor` method call:
// [database, monitor id, {table: {"columns": [...]}}]. Column order is
// sorted so the request is stable across runs.
func (self *Monitor) RequestParams() []any {
	requests := map[string]any{}
	for table, columns := range self.tables {
		names := maps.Keys(columns)
		slices.Sort(names)
		requests[table] = map[string]any{
			"columns": names,
		}
	}
	return []any{self.database, self.monitorId, requests}
}

// InitialResult decodes the result of the `monitor` call itself.
func (self *Monitor) InitialResult(v any) (TableUpdates, error) {
	return DecodeTableUpdates(v, self.tables)
}

// Notification decodes the params of an `update` notification,
// [monitor id, table updates]. A notification keyed for a different
// subscription is rejected, not decoded. One connection can carry updates
// for several monitored databases, and routing them by key is what keeps a
// hardware_vtep monitor from consuming Open_vSwitch updates.
func (self *Monitor) Notification(params any) (TableUpdates, error) {
	pair, ok := params.([]any)
	if !ok {
		return nil, newDecodeError(ErrTypeMismatch, "update params is %T, expected an array", params)
	}
	if len(pair) != 2 {
		return nil, newDecodeError(ErrInvalidLength, "update params has %d elements, expected 2", len(pair))
	}
	monitorId, ok := pair[0].(string)
	if !ok {
		return nil, newDecodeError(ErrTypeMismatch, "update key is %T, expected a string", pair[0])
	}
	if monitorId != self.monitorId {
		return nil, newDecodeError(ErrUnknownSubscription, "update for %q, monitoring %q", monitorId, self.monitorId)
	}
	return DecodeTableUpdates(pair[1], self.tables)
}
