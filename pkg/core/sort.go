package core

// SortDirection is the direction of the active sort.
type SortDirection string

// Sort directions. SortNone means rows are shown in storage order.
const (
	SortNone       SortDirection = ""
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// SortState is the (column, direction) pair driving the table order.
// An empty Column means no sort is active.
type SortState struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// Active reports whether a sort column and direction are set.
func (s SortState) Active() bool {
	return s.Column != "" && s.Direction != SortNone
}
