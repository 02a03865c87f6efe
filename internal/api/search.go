package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hideoutdb/searchd/internal/errors"
	"github.com/hideoutdb/searchd/internal/index"
)

const (
	minTermLength = 3
	maxTermLength = 100
)

// searchResponse is the wire shape of a successful query.
type searchResponse struct {
	Count int              `json:"count"`
	Data  []index.Document `json:"data"`
}

// searchParams are the decoded query string parameters.
type searchParams struct {
	term        string
	docType     string
	kinds       []string
	limit       int
	conjunction bool
	fuzzy       bool
}

// handleSearch answers ranked and fuzzy catalog queries. Responses are
// cached per index generation, so a rebuild invalidates every cached entry
// at once.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseSearchParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	key := params.cacheKey(s.searcher.Generation())
	if cached, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	opts := index.QueryOptions{
		Limit:       params.limit,
		Conjunction: params.conjunction,
		Type:        index.DocType(params.docType),
		Kinds:       params.kinds,
	}

	var docs []index.Document
	if params.fuzzy {
		docs, err = s.searcher.QueryFuzzy(r.Context(), params.term, opts)
	} else {
		docs, err = s.searcher.Query(r.Context(), params.term, opts)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if docs == nil {
		docs = []index.Document{}
	}
	resp := searchResponse{Count: len(docs), Data: docs}
	s.cache.Add(key, resp)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseSearchParams(r *http.Request) (searchParams, error) {
	q := r.URL.Query()
	params := searchParams{
		term:        strings.TrimSpace(q.Get("q")),
		docType:     strings.TrimSpace(q.Get("type")),
		conjunction: isTruthy(q.Get("conjunction")),
		fuzzy:       isTruthy(q.Get("fuzzy")),
	}

	if n := utf8.RuneCountInString(params.term); n < minTermLength {
		return params, errors.New(errors.ErrCodeTermTooShort,
			fmt.Sprintf("query term must be at least %d characters", minTermLength), nil)
	} else if n > maxTermLength {
		return params, errors.New(errors.ErrCodeTermTooLong,
			fmt.Sprintf("query term must be at most %d characters", maxTermLength), nil)
	}

	if kind := q.Get("kind"); kind != "" {
		for _, k := range strings.Split(kind, ",") {
			if k = strings.TrimSpace(k); k != "" {
				params.kinds = append(params.kinds, strings.ToLower(k))
			}
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return params, errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("invalid limit %q", raw), err)
		}
		params.limit = limit
	}
	if params.limit > s.cfg.Search.MaxLimit {
		params.limit = s.cfg.Search.MaxLimit
	}

	return params, nil
}

// cacheKey folds the index generation into the key so stale entries die
// with the corpus that produced them.
func (p searchParams) cacheKey(generation uint64) string {
	return fmt.Sprintf("%d|%s|%s|%s|%d|%t|%t",
		generation, p.term, p.docType, strings.Join(p.kinds, ","),
		p.limit, p.conjunction, p.fuzzy)
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
