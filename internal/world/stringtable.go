package world

import (
	"errors"
	"fmt"
)

// Well-known string tables.
const (
	TableModelPrecache = "modelprecache"
	TableSoundPrecache = "soundprecache"
)

// ErrStringTablesLocked is returned when a new string is added while the
// tables are locked.
var ErrStringTablesLocked = errors.New("string tables are locked")

// StringTable is an append-only list of strings shared with clients.
type StringTable struct {
	name    string
	strings []string
	index   map[string]int
}

// Name returns the table name.
func (t *StringTable) Name() string { return t.name }

// Len returns the number of strings in the table.
func (t *StringTable) Len() int { return len(t.strings) }

// StringTables holds every table and the shared lock. Once the map has
// finished loading the tables are locked; code that spawns entities later
// must unlock them around the spawn.
type StringTables struct {
	locked bool
	tables map[string]*StringTable
}

// NewStringTables creates unlocked, empty precache tables.
func NewStringTables() *StringTables {
	st := &StringTables{tables: make(map[string]*StringTable)}
	st.table(TableModelPrecache)
	st.table(TableSoundPrecache)
	return st
}

// Lock sets the lock state and returns the previous one.
func (s *StringTables) Lock(lock bool) bool {
	prev := s.locked
	s.locked = lock
	return prev
}

// IsLocked reports the current lock state.
func (s *StringTables) IsLocked() bool { return s.locked }

// AddString adds str to the table and returns its index. Strings already
// present are found even while locked.
func (s *StringTables) AddString(table, str string) (int, error) {
	t := s.table(table)
	if idx, ok := t.index[str]; ok {
		return idx, nil
	}
	if s.locked {
		return -1, fmt.Errorf("adding %q to %s: %w", str, table, ErrStringTablesLocked)
	}
	t.strings = append(t.strings, str)
	t.index[str] = len(t.strings) - 1
	return len(t.strings) - 1, nil
}

// Find returns the index of str in table.
func (s *StringTables) Find(table, str string) (int, bool) {
	t, ok := s.tables[table]
	if !ok {
		return -1, false
	}
	idx, ok := t.index[str]
	return idx, ok
}

// Table returns the named table, creating it if needed.
func (s *StringTables) Table(name string) *StringTable {
	return s.table(name)
}

func (s *StringTables) table(name string) *StringTable {
	t, ok := s.tables[name]
	if !ok {
		t = &StringTable{name: name, index: make(map[string]int)}
		s.tables[name] = t
	}
	return t
}
