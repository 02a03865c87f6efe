package upstream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hideoutdb/searchd/internal/index"
)

// Item is one catalog entry as published by the upstream API.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"shortName"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// Document converts the item into its indexable form.
func (i Item) Document() index.Document {
	return index.Document{
		ID:          i.ID,
		Name:        i.Name,
		ShortName:   i.ShortName,
		Description: i.Description,
		Kind:        i.Kind,
		Type:        index.DocTypeItem,
	}
}

// CatalogStats is the upstream catalog summary used for staleness checks.
type CatalogStats struct {
	Total    int64    `json:"total"`
	Modified UnixTime `json:"modified"`
}

// itemList is the wire shape of the full item listing.
type itemList struct {
	Total int64  `json:"total"`
	Items []Item `json:"items"`
}

// UnixTime decodes a timestamp published either as Unix seconds or as an
// RFC3339 string.
type UnixTime struct {
	time.Time
}

func (t *UnixTime) UnmarshalJSON(data []byte) error {
	var secs int64
	if err := json.Unmarshal(data, &secs); err == nil {
		t.Time = time.Unix(secs, 0).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("modified timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("modified timestamp: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}
