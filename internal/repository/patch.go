package repository

import "strings"

// Patch is an ordered set of column assignments for a partial UPDATE.
// Only columns explicitly Set are written; everything else is left as is.
// Column names come from handler code, never from request input.
type Patch struct {
	cols []string
	args []any
}

// Set records col = v.  Setting the same column twice keeps the last value.
func (p *Patch) Set(col string, v any) {
	for i, c := range p.cols {
		if c == col {
			p.args[i] = v
			return
		}
	}
	p.cols = append(p.cols, col)
	p.args = append(p.args, v)
}

// Has reports whether col has been set.
func (p Patch) Has(col string) bool {
	for _, c := range p.cols {
		if c == col {
			return true
		}
	}
	return false
}

// Get returns the value recorded for col.
func (p Patch) Get(col string) (any, bool) {
	for i, c := range p.cols {
		if c == col {
			return p.args[i], true
		}
	}
	return nil, false
}

// Empty reports whether no column has been set.
func (p Patch) Empty() bool { return len(p.cols) == 0 }

// Len returns the number of assignments.
func (p Patch) Len() int { return len(p.cols) }

// setClause renders "a = ?, b = ?" and the matching arguments.
func (p Patch) setClause() (string, []any) {
	parts := make([]string, len(p.cols))
	for i, c := range p.cols {
		parts[i] = c + " = ?"
	}
	args := make([]any, len(p.args))
	copy(args, p.args)
	return strings.Join(parts, ", "), args
}

// updateStatement builds "UPDATE table SET ..., updated_at = CURRENT_TIMESTAMP WHERE id = ?".
func (p Patch) updateStatement(table string, id uint64) (string, []any) {
	set, args := p.setClause()
	q := "UPDATE " + table + " SET " + set + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	return q, append(args, id)
}
