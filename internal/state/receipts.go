package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/agrifi-network/ledger-engine/internal/types"
)

// SaveQuoteReceipt persists one derived-quote audit record and returns its id.
func SaveQuoteReceipt(receipt types.QuoteReceipt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO quote_receipts (engine, request, result, as_of, rejected, reject_code)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING receipt_id
	`

	var result any = receipt.Result
	if receipt.Result == "" {
		result = nil
	}

	var receiptID int64
	err := DB.QueryRow(query,
		receipt.Engine, receipt.Request, result,
		int64(receipt.AsOf), receipt.Rejected, receipt.RejectCode,
	).Scan(&receiptID)
	if err != nil {
		log.Error().Err(err).Str("engine", receipt.Engine).Msg("Failed to save quote receipt")
		return 0, fmt.Errorf("failed to save quote receipt: %w", err)
	}

	log.Debug().
		Int64("receiptID", receiptID).
		Str("engine", receipt.Engine).
		Bool("rejected", receipt.Rejected).
		Msg("Saved quote receipt")

	return receiptID, nil
}

// GetRecentReceipts retrieves recent quote receipts, newest first.
func GetRecentReceipts(limit int) ([]types.QuoteReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT receipt_id, engine, request, COALESCE(result, ''), as_of, rejected, COALESCE(reject_code, ''), created_at
		FROM quote_receipts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent receipts")
		return nil, fmt.Errorf("failed to query recent receipts: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// GetReceiptsByEngine retrieves recent receipts for a single engine.
func GetReceiptsByEngine(engine string, limit int) ([]types.QuoteReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	query := `
		SELECT receipt_id, engine, request, COALESCE(result, ''), as_of, rejected, COALESCE(reject_code, ''), created_at
		FROM quote_receipts
		WHERE engine = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := DB.Query(query, engine, limit)
	if err != nil {
		log.Error().Err(err).Str("engine", engine).Msg("Failed to query receipts by engine")
		return nil, fmt.Errorf("failed to query receipts for engine %s: %w", engine, err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

func scanReceipts(rows *sql.Rows) ([]types.QuoteReceipt, error) {
	var receipts []types.QuoteReceipt
	for rows.Next() {
		var r types.QuoteReceipt
		var asOf int64
		if err := rows.Scan(&r.ReceiptID, &r.Engine, &r.Request, &r.Result,
			&asOf, &r.Rejected, &r.RejectCode, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote receipt: %w", err)
		}
		r.AsOf = uint64(asOf)
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quote receipts: %w", err)
	}
	return receipts, nil
}
