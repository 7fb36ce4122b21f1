package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/agrimarket/helper"
)

// Vector index types supported by pgvector
const (
	IndexTypeHNSW    = "hnsw"
	IndexTypeIVFFlat = "ivfflat"
)

// IndexParams tunes the vector index. Zero values fall back to the pgvector defaults.
type IndexParams struct {
	M              int `json:"m" mapstructure:"m"`                             // hnsw
	EfConstruction int `json:"ef_construction" mapstructure:"ef_construction"` // hnsw
	Lists          int `json:"lists" mapstructure:"lists"`                     // ivfflat
}

// ChangeIndexType rebuilds the embedding index of the documents table as hnsw or ivfflat
func (h *DocumentsDBHandler) ChangeIndexType(ctx context.Context, indexType string, params IndexParams) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var createIndexSQL string
	switch indexType {
	case IndexTypeHNSW:
		m, efConstruction := params.M, params.EfConstruction
		if m <= 0 {
			m = 16
		}
		if efConstruction <= 0 {
			efConstruction = 64
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_documents_embedding ON documents USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)
	case IndexTypeIVFFlat:
		lists := params.Lists
		if lists <= 0 {
			lists = 100
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_documents_embedding ON documents USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)
	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_documents_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info("Rebuilt vector index", "type", indexType, "params", params)

	return nil
}
