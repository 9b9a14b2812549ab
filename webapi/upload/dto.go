package upload

// HistoryQuery is the query string of the history listing.
type HistoryQuery struct {
	Page     int `query:"page" validate:"min=1"`
	PageSize int `query:"page_size" validate:"min=1,max=100"`
}

const (
	defaultPage     = 1
	defaultPageSize = 20
)
