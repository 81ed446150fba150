package types

// Statement is one parameterized SQL statement with its bound arguments.
// Table names the statement's target for error reporting; it is never
// interpolated into SQL.
type Statement struct {
	SQL   string `json:"sql"`
	Args  []any  `json:"args"`
	Table string `json:"table"`
}

// Batch is an ordered sequence of statements. A Batch carries no atomicity
// guarantee of its own: atomicity is a property of how it is executed
// (one transaction via the executor, or independently committed units on
// the sequential cascade path).
type Batch []Statement
