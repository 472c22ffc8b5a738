package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/yougpt/internal/db"
	"github.com/hpungsan/yougpt/internal/errors"
)

// PruneOutput contains the result of the Prune operation.
type PruneOutput struct {
	Pruned int   `json:"pruned"`
	Cutoff int64 `json:"cutoff"`
}

// Prune soft-deletes summaries created more than days ago.
func Prune(ctx context.Context, database *sql.DB, days int) (*PruneOutput, error) {
	if days <= 0 {
		return nil, errors.NewInvalidRequest("retention days must be positive")
	}

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	n, err := db.SoftDeleteOlderThan(ctx, database, cutoff)
	if err != nil {
		return nil, err
	}
	return &PruneOutput{Pruned: n, Cutoff: cutoff}, nil
}
