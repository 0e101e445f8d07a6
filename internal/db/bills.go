package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a bill does not exist
var ErrNotFound = errors.New("bill not found")

// Bill represents a stored analysis result
type Bill struct {
	ID            uuid.UUID        `json:"id"`
	BillType      string           `json:"billType"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	DueDate       *time.Time       `json:"dueDate,omitempty"`
	Company       string           `json:"company,omitempty"`
	Confidence    float64          `json:"confidence"`
	Reasoning     string           `json:"reasoning,omitempty"`
	Language      string           `json:"language,omitempty"`
	Country       string           `json:"country,omitempty"`
	OCRText       string           `json:"ocrText,omitempty"`
	OCRConfidence float64          `json:"ocrConfidence,omitempty"`
	ImagePath     string           `json:"imagePath,omitempty"`
	Status        string           `json:"status"` // pending, confirmed, rejected
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// BillFilter narrows GetBills queries
type BillFilter struct {
	BillType string
	Status   string
	Company  string
	Limit    int
	Offset   int
}

// MonthlyStats aggregates bills per type for a month
type MonthlyStats struct {
	BillType      string          `json:"billType"`
	Count         int             `json:"count"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	AvgConfidence float64         `json:"avgConfidence"`
}

// SaveBill inserts a new analyzed bill and returns its generated ID
func SaveBill(ctx context.Context, bill *Bill) (uuid.UUID, error) {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	if bill.Status == "" {
		bill.Status = "pending"
	}

	query := `
		INSERT INTO bills (
			id, bill_type, amount, currency, due_date, company,
			confidence, reasoning, language, country,
			ocr_text, ocr_confidence, image_path, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)`

	_, err := Pool.Exec(ctx, query,
		bill.ID, bill.BillType, bill.Amount, nullIfEmpty(bill.Currency),
		bill.DueDate, nullIfEmpty(bill.Company),
		bill.Confidence, bill.Reasoning,
		nullIfEmpty(bill.Language), nullIfEmpty(bill.Country),
		bill.OCRText, bill.OCRConfidence, nullIfEmpty(bill.ImagePath), bill.Status,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save bill: %w", err)
	}
	return bill.ID, nil
}

// GetBills returns bills matching the filter, newest first
func GetBills(ctx context.Context, filter BillFilter) ([]Bill, error) {
	query := `
		SELECT id, bill_type, amount, COALESCE(currency, ''), due_date,
		       COALESCE(company, ''), confidence, reasoning,
		       COALESCE(language, ''), COALESCE(country, ''),
		       ocr_text, ocr_confidence, COALESCE(image_path, ''), status,
		       created_at, updated_at
		FROM bills
		WHERE 1=1`

	args := []interface{}{}
	argNum := 1

	if filter.BillType != "" {
		query += fmt.Sprintf(" AND bill_type = $%d", argNum)
		args = append(args, filter.BillType)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}
	if filter.Company != "" {
		query += fmt.Sprintf(" AND company ILIKE $%d", argNum)
		args = append(args, "%"+filter.Company+"%")
		argNum++
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d", argNum)
	args = append(args, limit)
	argNum++

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	bills := []Bill{}
	for rows.Next() {
		var b Bill
		if err := scanBill(rows, &b); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// GetBillByID returns a single bill by its UUID
func GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	query := `
		SELECT id, bill_type, amount, COALESCE(currency, ''), due_date,
		       COALESCE(company, ''), confidence, reasoning,
		       COALESCE(language, ''), COALESCE(country, ''),
		       ocr_text, ocr_confidence, COALESCE(image_path, ''), status,
		       created_at, updated_at
		FROM bills
		WHERE id = $1`

	var b Bill
	err := scanBill(Pool.QueryRow(ctx, query, id), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBill applies user corrections to an analyzed bill
func UpdateBill(ctx context.Context, id uuid.UUID, bill *Bill) error {
	query := `
		UPDATE bills SET
			bill_type = $2, amount = $3, currency = $4, due_date = $5,
			company = $6, status = $7, updated_at = NOW()
		WHERE id = $1`

	tag, err := Pool.Exec(ctx, query,
		id, bill.BillType, bill.Amount, nullIfEmpty(bill.Currency),
		bill.DueDate, nullIfEmpty(bill.Company), bill.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBill removes a bill. The caller is responsible for deleting
// the stored scan image.
func DeleteBill(ctx context.Context, id uuid.UUID) error {
	tag, err := Pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMonthlyStats aggregates confirmed and pending bills for a given month
func GetMonthlyStats(ctx context.Context, year int, month time.Month) ([]MonthlyStats, error) {
	query := `
		SELECT bill_type,
		       COUNT(*),
		       COALESCE(SUM(amount), 0),
		       COALESCE(AVG(confidence), 0)
		FROM bills
		WHERE status != 'rejected'
		  AND created_at >= $1 AND created_at < $2
		GROUP BY bill_type
		ORDER BY COUNT(*) DESC`

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := Pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := []MonthlyStats{}
	for rows.Next() {
		var s MonthlyStats
		if err := rows.Scan(&s.BillType, &s.Count, &s.TotalAmount, &s.AvgConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func scanBill(row pgx.Row, b *Bill) error {
	err := row.Scan(
		&b.ID, &b.BillType, &b.Amount, &b.Currency, &b.DueDate,
		&b.Company, &b.Confidence, &b.Reasoning,
		&b.Language, &b.Country,
		&b.OCRText, &b.OCRConfidence, &b.ImagePath, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to scan bill: %w", err)
	}
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
