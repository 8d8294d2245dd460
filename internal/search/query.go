package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// searchedFields are matched by keyword queries.
var searchedFields = []string{"title", "author", "category", "description"}

// Match returns the IDs of books matching keyword in any searched field.
// Scores are ignored: callers use the result as a membership filter and keep
// their own ordering. An empty keyword matches nothing.
func (s *BookIndex) Match(ctx context.Context, keyword string) (map[string]struct{}, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return map[string]struct{}{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if total == 0 {
		return map[string]struct{}{}, nil
	}

	req := bleve.NewSearchRequestOptions(buildKeywordQuery(keyword), int(total), 0, false)

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make(map[string]struct{}, len(res.Hits))
	for _, hit := range res.Hits {
		ids[hit.ID] = struct{}{}
	}
	return ids, nil
}

// buildKeywordQuery matches all keyword terms within one field, in any of the
// searched fields. A lowercase prefix on the title covers partially typed words.
func buildKeywordQuery(keyword string) query.Query {
	queries := make([]query.Query, 0, len(searchedFields)+1)

	for _, field := range searchedFields {
		mq := bleve.NewMatchQuery(keyword)
		mq.SetField(field)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		queries = append(queries, mq)
	}

	if !strings.ContainsAny(keyword, " \t") && len(keyword) >= 2 {
		pq := bleve.NewPrefixQuery(strings.ToLower(keyword))
		pq.SetField("title")
		queries = append(queries, pq)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

// allIDs lists every indexed document ID.
func (s *BookIndex) allIDs(ctx context.Context) ([]string, error) {
	total, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(total), 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
