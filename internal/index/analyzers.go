package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/edgengram"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/ngram"
	"github.com/blevesearch/bleve/v2/analysis/token/snowball"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/analysis/tokenmap"
	"github.com/blevesearch/bleve/v2/mapping"
)

const (
	// NameAnalyzerName is the analyzer for the name field: whole-value
	// lowercased character n-grams, so short names match on substrings
	// and survive typos.
	NameAnalyzerName = "name_ngram"

	// DescriptionAnalyzerName is the analyzer for the description field:
	// word tokens, length-capped, lowercased, stop-filtered, stemmed.
	DescriptionAnalyzerName = "description_stem"

	// ExactAnalyzerName is the identity analyzer for controlled-vocabulary
	// fields (kind, type). Filtered, never ranked.
	ExactAnalyzerName = keyword.Name

	stopTokenMapName   = "stop_words"
	stopFilterName     = "stop_filter"
	ngramFilterName    = "name_ngram_filter"
	longTokenFilter    = "max_token_length"
	stemmerFilterName  = "lang_stemmer"
	maxTokenLength     = 40
)

// Language selects stop words and stemming. The set is fixed per engine
// instance; unknown languages index without stop-word removal or stemming.
type Language string

const (
	LanguageEnglish Language = "english"
)

// snowballLanguages are the languages the snowball stemmer accepts.
var snowballLanguages = map[Language]bool{
	"english": true, "french": true, "german": true, "spanish": true,
	"italian": true, "portuguese": true, "dutch": true, "russian": true,
	"swedish": true, "norwegian": true, "danish": true, "finnish": true,
	"hungarian": true, "romanian": true, "turkish": true,
}

// stopWords returns the static stop-word table for lang. Unknown languages
// get an empty set (pass-through), not an error.
func stopWords(lang Language) []string {
	if lang == LanguageEnglish {
		return englishStopWords
	}
	return nil
}

// englishStopWords is the 100 most common English words (OEC rank list).
var englishStopWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i", "it",
	"for", "not", "on", "with", "he", "as", "you", "do", "at", "this",
	"but", "his", "by", "from", "they", "we", "say", "her", "she", "or",
	"an", "will", "my", "one", "all", "would", "there", "their", "what",
	"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
	"when", "make", "can", "like", "time", "no", "just", "him", "know",
	"take", "people", "into", "year", "your", "good", "some", "could",
	"them", "see", "other", "than", "then", "now", "look", "only", "come",
	"its", "over", "think", "also", "back", "after", "use", "two", "how",
	"our", "work", "first", "well", "way", "even", "new", "want",
	"because", "any", "these", "give", "day", "most", "us",
}

// NgramOptions controls the name analyzer's n-gram emission.
type NgramOptions struct {
	// Min and Max bound the emitted n-gram lengths.
	Min int
	Max int
	// Prefix anchors n-grams to the token start (edge n-grams).
	Prefix bool
}

// DefaultNgramOptions matches the indexed name shape queries are tuned for.
func DefaultNgramOptions() NgramOptions {
	return NgramOptions{Min: 3, Max: 4}
}

// registerAnalyzers installs the three analyzer pipelines on m. Analyzer
// choice is a pure function of (field, language); the language is fixed for
// the lifetime of the index.
func registerAnalyzers(m *mapping.IndexMappingImpl, lang Language, opts NgramOptions) error {
	words := stopWords(lang)
	tokens := make([]interface{}, len(words))
	for i, w := range words {
		tokens[i] = w
	}

	err := m.AddCustomTokenMap(stopTokenMapName, map[string]interface{}{
		"type":   tokenmap.Name,
		"tokens": tokens,
	})
	if err != nil {
		return fmt.Errorf("token map: %w", err)
	}

	err = m.AddCustomTokenFilter(stopFilterName, map[string]interface{}{
		"type":           stop.Name,
		"stop_token_map": stopTokenMapName,
	})
	if err != nil {
		return fmt.Errorf("stop filter: %w", err)
	}

	ngramConfig := map[string]interface{}{
		"type": ngram.Name,
		"min":  float64(opts.Min),
		"max":  float64(opts.Max),
	}
	if opts.Prefix {
		ngramConfig = map[string]interface{}{
			"type": edgengram.Name,
			"edge": "front",
			"min":  float64(opts.Min),
			"max":  float64(opts.Max),
		}
	}
	if err := m.AddCustomTokenFilter(ngramFilterName, ngramConfig); err != nil {
		return fmt.Errorf("ngram filter: %w", err)
	}

	err = m.AddCustomTokenFilter(longTokenFilter, map[string]interface{}{
		"type": length.Name,
		"min":  float64(1),
		"max":  float64(maxTokenLength),
	})
	if err != nil {
		return fmt.Errorf("length filter: %w", err)
	}

	// The name pipeline n-grams the whole value, then drops grams that
	// collide with stop words.
	err = m.AddCustomAnalyzer(NameAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": single.Name,
		"token_filters": []string{
			lowercase.Name,
			ngramFilterName,
			stopFilterName,
		},
	})
	if err != nil {
		return fmt.Errorf("name analyzer: %w", err)
	}

	descFilters := []string{
		longTokenFilter,
		lowercase.Name,
		stopFilterName,
	}
	if snowballLanguages[lang] {
		err = m.AddCustomTokenFilter(stemmerFilterName, map[string]interface{}{
			"type":     snowball.Name,
			"language": string(lang),
		})
		if err != nil {
			return fmt.Errorf("stemmer filter: %w", err)
		}
		descFilters = append(descFilters, stemmerFilterName)
	}

	err = m.AddCustomAnalyzer(DescriptionAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": descFilters,
	})
	if err != nil {
		return fmt.Errorf("description analyzer: %w", err)
	}

	return nil
}
