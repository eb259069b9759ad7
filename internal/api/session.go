package api

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/ratetable/pkg/core"
)

const (
	sessionName          = "ratetable"
	sessionSortColumn    = "sort_column"
	sessionSortDirection = "sort_direction"
)

// sortFromSession reads the browser's sort state. A missing or unreadable
// session yields the unsorted state.
func sortFromSession(store sessions.Store, r *http.Request) core.SortState {
	if store == nil {
		return core.SortState{}
	}
	session, err := store.Get(r, sessionName)
	if err != nil {
		return core.SortState{}
	}
	col, _ := session.Values[sessionSortColumn].(string)
	dir, _ := session.Values[sessionSortDirection].(string)
	return core.SortState{Column: col, Direction: core.SortDirection(dir)}
}

// saveSort stores the sort state in the browser's session cookie.
func saveSort(store sessions.Store, w http.ResponseWriter, r *http.Request, state core.SortState) error {
	if store == nil {
		return nil
	}
	session, _ := store.Get(r, sessionName)
	session.Values[sessionSortColumn] = state.Column
	session.Values[sessionSortDirection] = string(state.Direction)
	return session.Save(r, w)
}

// sortFromQuery overrides the session state when the request names a sort
// column explicitly: ?sort=<key>&dir=asc|desc.
func sortFromQuery(r *http.Request, fallback core.SortState) core.SortState {
	q := r.URL.Query()
	if !q.Has("sort") {
		return fallback
	}
	state := core.SortState{Column: q.Get("sort"), Direction: core.SortAscending}
	if q.Get("dir") == string(core.SortDescending) {
		state.Direction = core.SortDescending
	}
	if state.Column == "" {
		return core.SortState{}
	}
	return state
}
