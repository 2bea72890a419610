package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/listwise/internal/model"
)

// SaveDecision appends a pipeline result to the decision log under runID.
func (s *SQLiteStorage) SaveDecision(ctx context.Context, runID string, result *model.ListingStrategyResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}

	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	var platform, accountID sql.NullString
	if t := result.Decision.Target; t != nil {
		platform = sql.NullString{String: t.Platform, Valid: true}
		accountID = sql.NullString{String: t.AccountID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decision_log (run_id, sku, should_list, platform, account_id, reason, result, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.SKU, result.Decision.ShouldList, platform, accountID,
		result.Decision.Reason, string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save decision for %s: %w", result.SKU, err)
	}
	return nil
}

// ListDecisions returns the decisions of a run in insertion order.
func (s *SQLiteStorage) ListDecisions(ctx context.Context, runID string) ([]model.DecisionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}
	return s.queryDecisions(ctx, `
		SELECT id, run_id, sku, should_list, platform, account_id, reason, result, decided_at
		FROM decision_log
		WHERE run_id = ?
		ORDER BY id`, runID)
}

// DecisionHistory returns the most recent decisions for a SKU, newest first.
func (s *SQLiteStorage) DecisionHistory(ctx context.Context, sku string, limit int) ([]model.DecisionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sku, "sku"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return s.queryDecisions(ctx, `
		SELECT id, run_id, sku, should_list, platform, account_id, reason, result, decided_at
		FROM decision_log
		WHERE sku = ?
		ORDER BY decided_at DESC, id DESC
		LIMIT ?`, sku, limit)
}

func (s *SQLiteStorage) queryDecisions(ctx context.Context, query string, args ...any) ([]model.DecisionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.DecisionRecord
	for rows.Next() {
		var (
			rec                 model.DecisionRecord
			platform, accountID sql.NullString
			doc                 string
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.SKU, &rec.ShouldList,
			&platform, &accountID, &rec.Reason, &doc, &rec.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		if platform.Valid {
			rec.Target = &model.MarketplaceCandidate{Platform: platform.String, AccountID: accountID.String}
		}
		var result model.ListingStrategyResult
		if err := json.Unmarshal([]byte(doc), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decision %d: %w", rec.ID, err)
		}
		rec.Result = &result
		if result.Decision.Target != nil {
			rec.Target = result.Decision.Target
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
