package ssengine

// Storage bundles the tables a workbook needs to hold its worksheets, named
// ranges, interned strings and formulas, and the dependency graph wiring
// them together. A Spreadsheet owns exactly one Storage for its lifetime.
type Storage struct {
	worksheets      *WorksheetTable
	namedRanges     *NamedRangeTable
	strings         *StringTable
	formulas        *FormulaTable
	dependencyGraph *DependencyGraph
}

// NewStorage wires up a fresh, empty set of workbook tables.
func NewStorage() *Storage {
	return &Storage{
		worksheets:      NewWorksheetTable(),
		namedRanges:     NewNamedRangeTable(),
		strings:         NewStringTable(),
		formulas:        NewFormulaTable(),
		dependencyGraph: NewDependencyGraph(),
	}
}
