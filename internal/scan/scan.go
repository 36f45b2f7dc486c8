// Package scan produces file records from a source repository.
//
// Scanners page through the source and hand back enhanced records: every
// record leaves here with a category, a sharing status, and the best
// available content hash already filled in.
package scan

import (
	"context"

	"dupescan/internal/types"
)

// Page is one page of scan results. An empty NextToken means the scan is
// complete.
type Page struct {
	Records   []types.FileRecord
	NextToken string
}

// Scanner lists records from a source repository, one page at a time.
// Pass the previous page's NextToken to continue; pass "" to start over.
type Scanner interface {
	List(ctx context.Context, token string, pageSize int) (*Page, error)
}

// All drains a scanner. maxCount 0 means unlimited.
func All(ctx context.Context, s Scanner, pageSize, maxCount int) ([]types.FileRecord, error) {
	var records []types.FileRecord
	token := ""
	for {
		page, err := s.List(ctx, token, pageSize)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if maxCount > 0 && len(records) >= maxCount {
			return records[:maxCount], nil
		}
		if page.NextToken == "" {
			return records, nil
		}
		token = page.NextToken
	}
}
