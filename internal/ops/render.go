package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/errors"
	"github.com/hpungsan/yougpt/internal/export"
)

// RenderInput contains parameters for the Render operation.
type RenderInput struct {
	ID   string
	Kind string // txt or pdf
}

// RenderOutput is a stored summary serialized for download.
type RenderOutput struct {
	Data        []byte
	Filename    string
	ContentType string
	Kind        export.Kind
}

// Render serializes an active summary as a text or PDF file in memory.
func Render(ctx context.Context, database *sql.DB, input RenderInput) (*RenderOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	kind, err := export.ParseKind(input.Kind)
	if err != nil {
		return nil, err
	}

	s, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}

	data, err := export.Render(kind, s.SummaryText)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &RenderOutput{
		Data:        data,
		Filename:    export.Filename(storedFormat(s), kind),
		ContentType: kind.ContentType(),
		Kind:        kind,
	}, nil
}
