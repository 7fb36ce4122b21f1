package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed market.sql
var marketSQL string

//go:embed documents.sql
var documentsSQL string

// Function lists for verification
var MarketFunctions = []string{
	"init_market",
	"insert_commodity",
	"select_commodities",
	"insert_price",
	"select_prices",
	"select_price_at_or_before",
	"select_max_price_date",
	"select_common_price_date",
	"select_price_series",
	"insert_daily_summary",
	"select_daily_summaries",
	"select_max_summary_date",
	"select_latest_summaries",
	"select_all_daily_summaries",
	"insert_news",
	"insert_news_analysis",
	"select_news_by_impact",
	"select_max_news_date",
	"select_analyzed_news",
}

var DocumentsFunctions = []string{
	"init_documents",
	"insert_document",
	"select_document_keys",
	"select_documents_by_similarity",
	"count_documents",
	"delete_documents_by_key",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadMarketSql loads the structured market store functions
func LoadMarketSql(db *sql.DB, force bool) error {
	return load(db, "market", marketSQL, MarketFunctions, force)
}

// LoadDocumentsSql loads the semantic document store functions
func LoadDocumentsSql(db *sql.DB, force bool) error {
	return load(db, "documents", documentsSQL, DocumentsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadMarketSql(db, force); err != nil {
		return err
	}

	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	return nil
}

// load executes script unless all of its functions already exist.
// If force is true the script is executed regardless.
func load(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
