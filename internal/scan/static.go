package scan

import (
	"context"
	"fmt"
	"strconv"

	"dupescan/internal/types"
)

// Static serves a fixed record set with real pagination. Used for tests,
// dry runs, and replaying exported scans.
type Static struct {
	records []types.FileRecord
}

// NewStatic copies the given records into a scanner.
func NewStatic(records []types.FileRecord) *Static {
	copied := make([]types.FileRecord, len(records))
	copy(copied, records)
	return &Static{records: copied}
}

func (s *Static) List(_ context.Context, token string, pageSize int) (*Page, error) {
	offset := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(s.records) {
			return nil, &types.ScanError{Source: "static", Err: fmt.Errorf("bad continuation token %q", token)}
		}
		offset = n
	}
	if pageSize < 1 {
		pageSize = len(s.records)
	}

	end := offset + pageSize
	if end > len(s.records) {
		end = len(s.records)
	}

	page := &Page{Records: make([]types.FileRecord, end-offset)}
	copy(page.Records, s.records[offset:end])
	for i := range page.Records {
		Enhance(&page.Records[i])
	}
	if end < len(s.records) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}
