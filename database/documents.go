package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
	loadSql "github.com/siherrmann/agrimarket/sql"
)

// DocumentsDBHandlerFunctions defines the interface for semantic document operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(ctx context.Context, doc *model.Document) (bool, error)
	SelectDocumentKeys(ctx context.Context) ([]string, error)
	SelectDocumentsBySimilarity(ctx context.Context, embedding []float32, limit int) ([]*model.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	DeleteDocumentsByKey(ctx context.Context, dedupKey string) (int64, error)
}

// DocumentsDBHandler handles the pgvector backed document store
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It loads the document SQL functions and creates the documents table
// with embeddings of embeddingDim dimensions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table and its indexes if they do not exist
func (h *DocumentsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("init documents", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument stores one chunk. It reports false without error
// when a chunk with the same dedup key and index already exists.
func (h *DocumentsDBHandler) InsertDocument(ctx context.Context, doc *model.Document) (bool, error) {
	key := doc.DedupKey()
	if key == "" {
		return false, helper.NewError("dedup key", fmt.Errorf("document of type %q has no identity", doc.Type))
	}

	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM insert_document($1, $2, $3, $4, $5, $6)`,
		string(doc.Type),
		key,
		doc.Content,
		doc.ChunkIndex,
		doc.DocumentMetadata(),
		doc.Embedding,
	)

	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, helper.NewError("scan", err)
	}

	return true, nil
}

// SelectDocumentKeys returns the dedup key of every completely stored source
// document. A document missing some of its chunks is left out so it is
// indexed again. Keys are rebuilt from the chunk metadata when the column is empty.
func (h *DocumentsDBHandler) SelectDocumentKeys(ctx context.Context) ([]string, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_document_keys()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		var metadata model.Metadata
		err := rows.Scan(&key, &metadata)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if key == "" {
			key = model.DedupKeyFromMetadata(metadata)
		}
		if key != "" {
			keys = append(keys, key)
		}
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return keys, nil
}

// SelectDocumentsBySimilarity returns the limit chunks nearest to embedding
// by cosine distance, with their embeddings for re-ranking.
func (h *DocumentsDBHandler) SelectDocumentsBySimilarity(ctx context.Context, embedding []float32, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_documents_by_similarity($1, $2)`,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.RID,
			&doc.Type,
			&doc.Content,
			&doc.ChunkIndex,
			&doc.Metadata,
			&doc.Embedding,
			&doc.Similarity,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		fillIdentity(doc)

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// CountDocuments returns the number of distinct source documents stored
func (h *DocumentsDBHandler) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_documents()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteDocumentsByKey removes every chunk of a source document
func (h *DocumentsDBHandler) DeleteDocumentsByKey(ctx context.Context, dedupKey string) (int64, error) {
	var deleted int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_documents_by_key($1)`, dedupKey).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}

// fillIdentity restores the natural key fields from the stored metadata
func fillIdentity(doc *model.Document) {
	doc.Commodity = doc.Metadata.GetString(model.MetaCommodity)
	if id, ok := doc.Metadata.GetInt64(model.MetaNewsID); ok {
		doc.NewsID = &id
	}
	if s := doc.Metadata.GetString(model.MetaDate); s != "" {
		if date, err := model.ParseDay(s); err == nil {
			doc.Date = &date
		}
	}
}
