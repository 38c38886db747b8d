package tags

import (
	"context"
)

// PageLimit is the page size requested from /mina-tags.
const PageLimit = 100

// PageFetcher fetches one page of tags. An empty cursor asks for the first
// page.
type PageFetcher interface {
	FetchPage(ctx context.Context, limit int, cursor string) (*PageResponse, error)
}

// Walker drains every page of /mina-tags into one collection.
type Walker struct {
	Fetcher PageFetcher
	Limit   int

	// OnPage, when set, is called after each page with its item count.
	OnPage func(items int)
}

func NewWalker(f PageFetcher) *Walker {
	return &Walker{Fetcher: f, Limit: PageLimit}
}

// FetchAll walks pages strictly in cursor order. Any page failure fails
// the whole walk and no partial result is returned.
func (w *Walker) FetchAll(ctx context.Context) ([]Tag, error) {
	limit := w.Limit
	if limit <= 0 {
		limit = PageLimit
	}

	all := make([]Tag, 0)
	cursor := ""
	for {
		res, err := w.Fetcher.FetchPage(ctx, limit, cursor)
		if err != nil {
			// Returned as-is: the message is what the page shows the user.
			return nil, err
		}
		all = append(all, NormalizeAll(res.Items)...)
		if w.OnPage != nil {
			w.OnPage(len(res.Items))
		}

		if !res.HasMore || res.LastEvaluatedKey == "" {
			return all, nil
		}
		cursor = res.LastEvaluatedKey
	}
}
