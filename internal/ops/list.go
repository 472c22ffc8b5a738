package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/record"
	"github.com/hpungsan/yougpt/internal/summary"
	"github.com/hpungsan/yougpt/internal/video"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	VideoID        string // optional filter; a full link is accepted too
	Format         string // optional filter
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []record.Item `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// List retrieves summary history, newest first, with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	filter := db.ListFilter{IncludeDeleted: input.IncludeDeleted}

	if v := strings.TrimSpace(input.VideoID); v != "" {
		if !video.IsValidID(v) {
			id, err := video.ExtractID(v)
			if err != nil {
				return nil, err
			}
			v = id
		}
		filter.VideoID = v
	}
	if strings.TrimSpace(input.Format) != "" {
		f, err := summary.ParseFormat(input.Format)
		if err != nil {
			return nil, err
		}
		filter.Format = f.String()
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)
	filter.Limit = limit
	filter.Offset = offset

	items, total, err := db.List(ctx, database, filter)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if items == nil {
		items = []record.Item{}
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
