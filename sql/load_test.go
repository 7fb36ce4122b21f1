package sql

import (
	"testing"

	"github.com/siherrmann/agrimarket/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionExists(t *testing.T, db *helper.Database, name string) bool {
	var exists bool
	err := db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		assert.NoError(t, Init(db.Instance))
		assert.NoError(t, Init(db.Instance))
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	loaders := []struct {
		name      string
		load      func(force bool) error
		functions []string
	}{
		{"market", func(force bool) error { return LoadMarketSql(db.Instance, force) }, MarketFunctions},
		{"documents", func(force bool) error { return LoadDocumentsSql(db.Instance, force) }, DocumentsFunctions},
	}

	for _, l := range loaders {
		t.Run("Load "+l.name+" SQL functions", func(t *testing.T) {
			err := l.load(false)
			assert.NoError(t, err)

			for _, funcName := range l.functions {
				assert.True(t, functionExists(t, db, funcName), "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+l.name+" SQL is idempotent without force", func(t *testing.T) {
			assert.NoError(t, l.load(false))
		})

		t.Run("Load "+l.name+" SQL with force reloads", func(t *testing.T) {
			assert.NoError(t, l.load(true))

			for _, funcName := range l.functions {
				assert.True(t, functionExists(t, db, funcName), "Function %s should exist after force reload", funcName)
			}
		})
	}

	t.Run("Init functions create the market tables", func(t *testing.T) {
		_, err := db.Instance.Exec(`SELECT init_market();`)
		require.NoError(t, err)

		for _, table := range []string{"commodities", "price_history", "daily_market_summary", "raw_news", "news_analysis_results"} {
			assert.True(t, tableExists(t, db, table), "Expected table %s to exist", table)
		}
	})

	t.Run("Load all SQL", func(t *testing.T) {
		assert.NoError(t, LoadAllSql(db.Instance, false))
		assert.NoError(t, LoadAllSql(db.Instance, true))
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Check functions returns false when functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for nonexistent function")
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		require.NoError(t, LoadMarketSql(db.Instance, false))

		exists, err := checkFunctions(db.Instance, MarketFunctions)
		assert.NoError(t, err)
		assert.True(t, exists, "Should return true when all functions exist")
	})

	t.Run("Check functions returns false when some functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"init_market", "nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false when some functions don't exist")
	})

	t.Run("Check functions with empty list", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for empty function list")
	})
}

func TestEmbeddedSQL(t *testing.T) {
	t.Run("Init SQL is embedded", func(t *testing.T) {
		assert.Contains(t, initSQL, "CREATE EXTENSION IF NOT EXISTS vector")
	})

	t.Run("Market SQL is embedded", func(t *testing.T) {
		for _, funcName := range MarketFunctions {
			assert.Contains(t, marketSQL, "FUNCTION "+funcName+"(", "Expected %s in market.sql", funcName)
		}
	})

	t.Run("Documents SQL is embedded", func(t *testing.T) {
		for _, funcName := range DocumentsFunctions {
			assert.Contains(t, documentsSQL, "FUNCTION "+funcName+"(", "Expected %s in documents.sql", funcName)
		}
	})
}
