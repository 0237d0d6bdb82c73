package listing

// State is the user's current position in a list view. Any change to the
// query or a filter moves back to page 1, so a narrowed result never lands
// on a page past its end.
type State struct {
	Query    string
	Filters  map[string]string
	Page     int
	PageSize int
}

func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{Filters: map[string]string{}, Page: 1, PageSize: pageSize}
}

func (s *State) SetQuery(query string) {
	s.Query = query
	s.Page = 1
}

func (s *State) SetFilter(name, value string) {
	if s.Filters == nil {
		s.Filters = map[string]string{}
	}
	s.Filters[name] = value
	s.Page = 1
}

func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}
