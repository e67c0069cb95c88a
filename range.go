package ssengine

import "iter"

// RangeAddress represents a range of cells within a single worksheet
type RangeAddress struct {
	WorksheetID uint32
	StartRow    uint32
	StartColumn uint32
	EndRow      uint32
	EndColumn   uint32
}

// namedRangeEntry holds everything tracked about one named range under a
// single ID: its current name, its address once defined, and how many
// formulas/owners currently reference it. A range with refs==0 and no
// address is garbage and gets evicted rather than kept around forever.
type namedRangeEntry struct {
	name    string
	address RangeAddress
	defined bool
	refs    int
}

// NamedRangeTable manages named ranges with ID tracking for efficient
// renaming, and supports both defined and forward-referenced (not yet
// defined) named ranges with reference counting.
type NamedRangeTable struct {
	byID   map[uint32]*namedRangeEntry
	byName map[string]uint32
	nextID uint32
}

// NewNamedRangeTable creates a new named range table
func NewNamedRangeTable() *NamedRangeTable {
	return &NamedRangeTable{
		byID:   make(map[uint32]*namedRangeEntry),
		byName: make(map[string]uint32),
		nextID: 1, // start at 1, reserve 0 for no range
	}
}

// InternNamedRange adds a reference to a named range (defined or not) and
// returns its ID, creating an undefined entry if the name is new.
func (nrt *NamedRangeTable) InternNamedRange(name string) uint32 {
	if id, exists := nrt.byName[name]; exists {
		nrt.byID[id].refs++
		return id
	}

	id := nrt.nextID
	nrt.nextID++
	nrt.byName[name] = id
	nrt.byID[id] = &namedRangeEntry{name: name, refs: 1}
	return id
}

// DefineNamedRange defines or redefines a named range with an address. If
// the range was previously undefined, it transitions to defined state.
// Returns the ID of the named range.
func (nrt *NamedRangeTable) DefineNamedRange(name string, address RangeAddress) uint32 {
	if id, exists := nrt.byName[name]; exists {
		entry := nrt.byID[id]
		entry.address = address
		entry.defined = true
		entry.refs++
		return id
	}

	id := nrt.nextID
	nrt.nextID++
	nrt.byName[name] = id
	nrt.byID[id] = &namedRangeEntry{name: name, address: address, defined: true, refs: 1}
	return id
}

// UndefineNamedRange removes the definition of a named range. If the range
// still has references, it transitions to undefined state; if it has none,
// it's evicted completely. Returns true if the range was removed outright.
func (nrt *NamedRangeTable) UndefineNamedRange(name string) bool {
	id, exists := nrt.byName[name]
	if !exists {
		return false
	}

	entry := nrt.byID[id]
	entry.defined = false
	entry.address = RangeAddress{}

	if entry.refs > 0 {
		return false
	}

	nrt.evict(id)
	return true
}

// evict removes a range completely from both tracking maps.
func (nrt *NamedRangeTable) evict(id uint32) {
	entry, exists := nrt.byID[id]
	if !exists {
		return
	}
	delete(nrt.byName, entry.name)
	delete(nrt.byID, id)
}

// AddReference increments the reference count for a named range ID
func (nrt *NamedRangeTable) AddReference(id uint32) bool {
	entry, exists := nrt.byID[id]
	if !exists {
		return false
	}
	entry.refs++
	return true
}

// RemoveReference decrements the reference count for a named range ID. If
// the count reaches 0 and the range is undefined, it's evicted. Returns
// true if the range was removed.
func (nrt *NamedRangeTable) RemoveReference(id uint32) bool {
	entry, exists := nrt.byID[id]
	if !exists {
		return false
	}

	entry.refs--
	if entry.refs <= 0 && !entry.defined {
		nrt.evict(id)
		return true
	}
	return false
}

// GetRangeAddress returns the address of a defined named range
func (nrt *NamedRangeTable) GetRangeAddress(id uint32) (RangeAddress, bool) {
	entry, exists := nrt.byID[id]
	if !exists || !entry.defined {
		return RangeAddress{}, false
	}
	return entry.address, true
}

// IsRangeDefined checks if a named range has a definition
func (nrt *NamedRangeTable) IsRangeDefined(id uint32) bool {
	entry, exists := nrt.byID[id]
	return exists && entry.defined
}

// GetNamedRangeID returns the ID for a named range
func (nrt *NamedRangeTable) GetNamedRangeID(name string) (uint32, bool) {
	id, exists := nrt.byName[name]
	return id, exists
}

// GetNamedRangeName returns the name for a named range ID
func (nrt *NamedRangeTable) GetNamedRangeName(id uint32) (string, bool) {
	entry, exists := nrt.byID[id]
	if !exists {
		return "", false
	}
	return entry.name, true
}

// Contains checks if a named range exists (defined or undefined)
func (nrt *NamedRangeTable) Contains(name string) bool {
	_, exists := nrt.byName[name]
	return exists
}

// GetReferenceCount returns the reference count for a named range ID
func (nrt *NamedRangeTable) GetReferenceCount(id uint32) int {
	entry, exists := nrt.byID[id]
	if !exists {
		return 0
	}
	return entry.refs
}

// GetAllDefinedRanges returns all defined named ranges
func (nrt *NamedRangeTable) GetAllDefinedRanges() map[string]RangeAddress {
	result := make(map[string]RangeAddress)
	for _, entry := range nrt.byID {
		if entry.defined {
			result[entry.name] = entry.address
		}
	}
	return result
}

// GetAllUndefinedRanges returns all undefined (referenced but not defined)
// named ranges
func (nrt *NamedRangeTable) GetAllUndefinedRanges() []string {
	result := make([]string, 0)
	for _, entry := range nrt.byID {
		if !entry.defined {
			result = append(result, entry.name)
		}
	}
	return result
}

// Count returns the total number of named ranges (defined and undefined)
func (nrt *NamedRangeTable) Count() int {
	return len(nrt.byID)
}

// CountDefined returns the number of defined named ranges
func (nrt *NamedRangeTable) CountDefined() int {
	count := 0
	for _, entry := range nrt.byID {
		if entry.defined {
			count++
		}
	}
	return count
}

// CountUndefined returns the number of undefined named ranges
func (nrt *NamedRangeTable) CountUndefined() int {
	return len(nrt.byID) - nrt.CountDefined()
}

// TotalReferences returns the total number of references across all
// named ranges
func (nrt *NamedRangeTable) TotalReferences() int {
	total := 0
	for _, entry := range nrt.byID {
		total += entry.refs
	}
	return total
}

// Clear removes all named ranges from the table
func (nrt *NamedRangeTable) Clear() {
	nrt.byID = make(map[uint32]*namedRangeEntry)
	nrt.byName = make(map[string]uint32)
	nrt.nextID = 1
}

// Range represents a lazy range type for memory-efficient formula evaluation
type Range interface {
	GetBounds() RangeAddress
	Iterate() iter.Seq[*Cell]
	IterateValues() iter.Seq[Primitive]
}

// CellRange implements Range for lazy cell iteration
type CellRange struct {
	worksheetID uint32
	startRow    uint32
	startCol    uint32
	endRow      uint32
	endCol      uint32
	worksheet   *Worksheet
	storage     *Storage
}

// GetBounds returns the range boundaries
func (r *CellRange) GetBounds() RangeAddress {
	return RangeAddress{
		WorksheetID: r.worksheetID,
		StartRow:    r.startRow,
		StartColumn: r.startCol,
		EndRow:      r.endRow,
		EndColumn:   r.endCol,
	}
}

// Iterate returns an iterator over all cells in the range, row-major,
// synthesizing an empty Cell for any address that has never been written.
func (r *CellRange) Iterate() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		if r.worksheet == nil {
			return
		}

		for row := r.startRow; row <= r.endRow; row++ {
			for col := r.startCol; col <= r.endCol; col++ {
				cell := r.worksheet.GetCell(row, col)
				if cell == nil {
					cell = &Cell{
						Type:  CellValueTypeEmpty,
						Row:   row,
						Col:   col,
						Value: nil,
					}
				}
				if !yield(cell) {
					return
				}
			}
		}
	}
}

// IterateValues returns an iterator over cell values in the range
func (r *CellRange) IterateValues() iter.Seq[Primitive] {
	return func(yield func(Primitive) bool) {
		for cell := range r.Iterate() {
			if !yield(cell.Value) {
				return
			}
		}
	}
}

// Rows returns the number of rows the range spans.
func (r *CellRange) Rows() int {
	return int(r.endRow-r.startRow) + 1
}

// Cols returns the number of columns the range spans.
func (r *CellRange) Cols() int {
	return int(r.endCol-r.startCol) + 1
}

// ValueAt returns the cell value at (rowOffset, colOffset) relative to the
// top-left of the range, or nil if out of bounds - used by lookup functions
// that need positional, not just sequential, access into a range.
func (r *CellRange) ValueAt(rowOffset, colOffset int) Primitive {
	if rowOffset < 0 || colOffset < 0 || rowOffset >= r.Rows() || colOffset >= r.Cols() {
		return nil
	}
	if r.worksheet == nil {
		return nil
	}
	cell := r.worksheet.GetCell(r.startRow+uint32(rowOffset), r.startCol+uint32(colOffset))
	if cell == nil {
		return nil
	}
	return cell.Value
}

// ValuesAsGrid materializes the range as a row-major slice of slices -
// convenient for lookup functions that need random access rather than a
// single streaming pass.
func (r *CellRange) ValuesAsGrid() [][]Primitive {
	rows := r.Rows()
	cols := r.Cols()
	grid := make([][]Primitive, rows)
	for i := 0; i < rows; i++ {
		grid[i] = make([]Primitive, cols)
		for j := 0; j < cols; j++ {
			grid[i][j] = r.ValueAt(i, j)
		}
	}
	return grid
}
