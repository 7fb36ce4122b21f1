package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// DocumentType is the kind of semantic document
type DocumentType string

const (
	DocumentTypeArticle DocumentType = "article_analysis"
	DocumentTypeSummary DocumentType = "daily_summary"
)

// Document is a unit of text stored in the semantic index.
// A source document is split into chunks that share its dedup key.
type Document struct {
	ID         int64           `json:"id"`
	RID        uuid.UUID       `json:"rid"`
	Type       DocumentType    `json:"type"`
	NewsID     *int64          `json:"news_id,omitempty"`
	Date       *time.Time      `json:"date,omitempty"`
	Commodity  string          `json:"commodity,omitempty"`
	Content    string          `json:"content"`
	ChunkIndex int             `json:"chunk_index"`
	ChunkCount int             `json:"chunk_count,omitempty"` // chunks of the source document
	Metadata   Metadata        `json:"metadata,omitempty"`
	Embedding  pgvector.Vector `json:"-"`
	Similarity float64         `json:"similarity,omitempty"` // only set by search
	CreatedAt  time.Time       `json:"created_at"`
}

// DedupKey returns the identity of the source document, or "" when
// the fields that make it up are missing.
func (d *Document) DedupKey() string {
	switch d.Type {
	case DocumentTypeArticle:
		if d.NewsID == nil {
			return ""
		}
		return fmt.Sprintf("article_%d_%s", *d.NewsID, d.Commodity)
	case DocumentTypeSummary:
		if d.Date == nil {
			return ""
		}
		return fmt.Sprintf("summary_%s_%s", d.Date.Format(DateLayout), d.Commodity)
	}
	return ""
}

// Metadata keys written alongside each stored chunk
const (
	MetaType      = "type"
	MetaNewsID    = "news_id"
	MetaDate      = "date"
	MetaCommodity = "commodity"
	MetaChunks    = "chunk_count"
)

// DocumentMetadata merges the identifying fields into the document metadata
func (d *Document) DocumentMetadata() Metadata {
	m := Metadata{}
	for k, v := range d.Metadata {
		m[k] = v
	}
	m[MetaType] = string(d.Type)
	if d.Commodity != "" {
		m[MetaCommodity] = d.Commodity
	}
	if d.NewsID != nil {
		m[MetaNewsID] = *d.NewsID
	}
	if d.Date != nil {
		m[MetaDate] = d.Date.Format(DateLayout)
	}
	if d.ChunkCount > 0 {
		m[MetaChunks] = d.ChunkCount
	}
	return m
}

// DedupKeyFromMetadata rebuilds the dedup key of a stored chunk
func DedupKeyFromMetadata(m Metadata) string {
	d := &Document{
		Type:      DocumentType(m.GetString(MetaType)),
		Commodity: m.GetString(MetaCommodity),
	}
	if id, ok := m.GetInt64(MetaNewsID); ok {
		d.NewsID = &id
	}
	if s := m.GetString(MetaDate); s != "" {
		if date, err := ParseDay(s); err == nil {
			d.Date = &date
		}
	}
	return d.DedupKey()
}
