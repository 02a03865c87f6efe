// Package index owns the full-text catalog index: schema, analyzers, the
// document write path, and query construction.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/gofrs/flock"

	"github.com/hideoutdb/searchd/internal/errors"
)

const (
	// nameBoost ranks name matches above description matches.
	nameBoost = 2.0

	// DefaultLimit is the result count used when the caller does not set one.
	DefaultLimit = 30
)

// Options configures an Engine.
type Options struct {
	// Dir is the on-disk index location. Empty means in-memory.
	Dir string
	// Language fixes the analyzer language for the engine's lifetime.
	Language Language
	// Ngram controls the name analyzer.
	Ngram NgramOptions
}

// QueryOptions bound and filter a query.
type QueryOptions struct {
	// Limit caps the number of returned results.
	Limit int
	// Conjunction requires all query terms to match instead of any.
	Conjunction bool
	// Type restricts results to one doc type. Empty means all types.
	Type DocType
	// Kinds restricts results to documents with any of these kinds.
	Kinds []string
}

// Engine owns one bleve index instance and the schema bound to it.
// The corpus is a single generation at a time: WriteAll replaces it
// wholesale, queries in flight keep seeing the previous generation until the
// batch completes.
type Engine struct {
	mu    sync.RWMutex
	index bleve.Index
	dir   string
	lock  *flock.Flock

	closed     bool
	generation atomic.Uint64
}

// New creates or opens an index engine.
func New(opts Options) (*Engine, error) {
	if opts.Language == "" {
		opts.Language = LanguageEnglish
	}
	if opts.Ngram.Min == 0 {
		opts.Ngram = DefaultNgramOptions()
	}

	im, err := buildMapping(opts.Language, opts.Ngram)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInternal, "index mapping", err)
	}

	e := &Engine{dir: opts.Dir}

	if opts.Dir == "" {
		idx, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInternal, "in-memory index", err)
		}
		e.index = idx
		return e, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Dir), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexWrite, err)
	}

	// Only one process may drive a bleve index directory.
	e.lock = flock.New(opts.Dir + ".lock")
	locked, err := e.lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexLocked, err)
	}
	if !locked {
		return nil, errors.New(errors.ErrCodeIndexLocked,
			fmt.Sprintf("index dir %s is locked by another process", opts.Dir), nil)
	}

	idx, err := openOrCreate(opts.Dir, im)
	if err != nil {
		_ = e.lock.Unlock()
		return nil, err
	}
	e.index = idx

	return e, nil
}

// openOrCreate opens an existing index dir, recreating it from scratch when
// it is corrupt. The index carries no durability contract: it is rebuilt
// from upstream on the next refresh anyway.
func openOrCreate(dir string, im *mapping.IndexMappingImpl) (bleve.Index, error) {
	if err := validateIntegrity(dir); err != nil {
		slog.Warn("index corrupted, clearing",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		if err := os.RemoveAll(dir); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexCorrupt, err)
		}
	}

	idx, err := bleve.Open(dir)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(dir, im)
	} else if err != nil && isCorruptionError(err) {
		slog.Warn("index open failed, recreating",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexCorrupt, rmErr)
		}
		idx, err = bleve.New(dir, im)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	return idx, nil
}

// validateIntegrity checks the on-disk metadata before opening.
func validateIntegrity(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil // will be created
	}

	metaPath := filepath.Join(dir, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError checks if an error indicates bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if err == bleve.ErrorIndexMetaCorrupt {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt")
}

// buildMapping declares the stored/indexed fields and binds each to its
// analyzer and ranking role.
func buildMapping(lang Language, ngram NgramOptions) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := registerAnalyzers(im, lang, ngram); err != nil {
		return nil, err
	}

	name := bleve.NewTextFieldMapping()
	name.Analyzer = NameAnalyzerName
	name.Store = true
	name.IncludeInAll = false
	name.IncludeTermVectors = false

	description := bleve.NewTextFieldMapping()
	description.Analyzer = DescriptionAnalyzerName
	description.Store = true
	description.IncludeInAll = false
	description.IncludeTermVectors = false

	kind := bleve.NewKeywordFieldMapping()
	kind.Store = true
	kind.IncludeInAll = false

	docType := bleve.NewKeywordFieldMapping()
	docType.Store = true
	docType.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", name)
	doc.AddFieldMappingsAt("description", description)
	doc.AddFieldMappingsAt("kind", kind)
	doc.AddFieldMappingsAt("type", docType)

	im.DefaultMapping = doc
	im.DefaultAnalyzer = ExactAnalyzerName

	return im, nil
}

// WriteAll atomically replaces the entire corpus with docs. All deletes and
// adds go through one batch: either the whole new generation becomes
// visible or the previous one stays intact.
func (e *Engine) WriteAll(ctx context.Context, docs []Document) error {
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.New(errors.ErrCodeIndexClosed, "index is closed", nil)
	}

	existing, err := e.allIDs(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexWrite, err)
	}

	batch := e.index.NewBatch()
	for _, id := range existing {
		batch.Delete(id)
	}
	for _, d := range docs {
		if err := batch.Index(d.ID, toBleveDoc(d)); err != nil {
			return errors.New(errors.ErrCodeIndexWrite,
				fmt.Sprintf("batch document %s", d.ID), err)
		}
	}

	if err := e.index.Batch(batch); err != nil {
		return errors.Wrap(errors.ErrCodeIndexWrite, err)
	}

	e.generation.Add(1)

	return nil
}

// allIDs returns every document ID in the current generation.
// Caller must hold e.mu.
func (e *Engine) allIDs(ctx context.Context) ([]string, error) {
	count, err := e.index.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// HealthCheck validates on-disk consistency and requires at least one
// searchable document. Called by the freshness controller after every write
// and independently by the health endpoint.
func (e *Engine) HealthCheck() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return errors.New(errors.ErrCodeIndexClosed, "index is closed", nil)
	}

	if e.dir != "" {
		if err := validateIntegrity(e.dir); err != nil {
			return errors.New(errors.ErrCodeIndexCorrupt, err.Error(), err)
		}
	}

	count, err := e.index.DocCount()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexCorrupt, err)
	}
	if count == 0 {
		return errors.New(errors.ErrCodeIndexEmpty, "no searchable segments", nil)
	}

	return nil
}

// Query runs a ranked free-text query: name matches boosted over description
// matches, optionally restricted by doc type and kind.
func (e *Engine) Query(ctx context.Context, term string, opts QueryOptions) ([]Document, error) {
	if err := normalizeOptions(&opts); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "empty query term", nil)
	}

	name := bleve.NewMatchQuery(term)
	name.SetField("name")
	name.SetBoost(nameBoost)

	description := bleve.NewMatchQuery(term)
	description.SetField("description")

	if opts.Conjunction {
		name.SetOperator(query.MatchQueryOperatorAnd)
		description.SetOperator(query.MatchQueryOperatorAnd)
	}

	text := bleve.NewDisjunctionQuery(name, description)

	return e.run(ctx, withFilters(text, opts), opts.Limit)
}

// QueryFuzzy matches the name field only, tolerating one edit. It bypasses
// the analyzed-match path entirely and compares the raw lowercased term
// against indexed name tokens.
func (e *Engine) QueryFuzzy(ctx context.Context, term string, opts QueryOptions) ([]Document, error) {
	if err := normalizeOptions(&opts); err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "empty query term", nil)
	}

	fuzzy := bleve.NewFuzzyQuery(term)
	fuzzy.SetField("name")
	fuzzy.SetFuzziness(1)

	return e.run(ctx, withFilters(fuzzy, opts), opts.Limit)
}

// withFilters AND-combines the ranked clause with the exact-match type and
// kind restrictions. Kinds are OR-combined among themselves.
func withFilters(ranked query.Query, opts QueryOptions) query.Query {
	clauses := []query.Query{ranked}

	if opts.Type != "" {
		tq := bleve.NewTermQuery(string(opts.Type))
		tq.SetField("type")
		clauses = append(clauses, tq)
	}

	if len(opts.Kinds) > 0 {
		kinds := bleve.NewDisjunctionQuery()
		for _, k := range opts.Kinds {
			kq := bleve.NewTermQuery(k)
			kq.SetField("kind")
			kinds.AddQuery(kq)
		}
		clauses = append(clauses, kinds)
	}

	if len(clauses) == 1 {
		return ranked
	}
	return bleve.NewConjunctionQuery(clauses...)
}

func normalizeOptions(opts *QueryOptions) error {
	if opts.Limit == 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Limit < 0 {
		return errors.New(errors.ErrCodeInvalidQuery,
			fmt.Sprintf("negative limit %d", opts.Limit), nil)
	}
	if opts.Type != "" {
		if _, err := ParseDocType(string(opts.Type)); err != nil {
			return err
		}
	}
	return nil
}

// run executes q and decodes stored fields back into documents.
func (e *Engine) run(ctx context.Context, q query.Query, limit int) ([]Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, errors.New(errors.ErrCodeIndexClosed, "index is closed", nil)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"name", "description", "kind", "type"}

	res, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSearchFailed, err)
	}

	docs := make([]Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, err := docFromFields(hit.ID, hit.Fields)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// docFromFields rebuilds a Document from stored fields.
func docFromFields(id string, fields map[string]interface{}) (Document, error) {
	doc := Document{ID: id}

	typeLit, _ := fields["type"].(string)
	docType, err := decodeDocType(typeLit)
	if err != nil {
		return Document{}, err
	}
	doc.Type = docType

	switch names := fields["name"].(type) {
	case string:
		doc.Name = names
	case []interface{}:
		// Short name is indexed first, full name last.
		if len(names) > 1 {
			doc.ShortName, _ = names[0].(string)
		}
		if len(names) > 0 {
			doc.Name, _ = names[len(names)-1].(string)
		}
	}

	doc.Description, _ = fields["description"].(string)
	doc.Kind, _ = fields["kind"].(string)

	return doc, nil
}

// Generation returns the corpus generation, incremented on every successful
// WriteAll. Readers can use it to detect replacement.
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

// DocCount returns the number of documents in the current generation.
func (e *Engine) DocCount() (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, errors.New(errors.ErrCodeIndexClosed, "index is closed", nil)
	}
	return e.index.DocCount()
}

// Close releases the index and the directory lock.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.index != nil {
		err = e.index.Close()
	}
	if e.lock != nil {
		if unlockErr := e.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}
