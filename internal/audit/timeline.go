package audit

import "time"

// TimelineFilters narrows the access log listing.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Module   string
	Decision string
	Page     int
	PageSize int
}

// TimelineRow is one access log entry.
type TimelineRow struct {
	ID       string
	At       time.Time
	ActorID  int64
	Module   string
	Action   string
	TargetID string
	Decision string
	Reason   string
}

// PagingInfo carries pagination metadata for the timeline view.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// FiltersViewModel holds filter values for the template.
type FiltersViewModel struct {
	From     time.Time
	To       time.Time
	Actor    string
	Module   string
	Decision string
}

// ViewModel bundles timeline data for rendering.
type ViewModel struct {
	Filters FiltersViewModel
	Rows    []TimelineRow
	Paging  PagingInfo
}
