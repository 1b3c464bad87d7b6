package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/Patrick7854/kgl-groceries-system/internal/config"
	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
)

const (
	summaryRange = "DailySummary!A:H"
	dateLayout   = "2006-01-02"
)

// Repository is the export sink for scheduled branch summaries.
type Repository interface {
	AppendSummaryRows(ctx context.Context, rows []models.DailySummaryRow) error
}

// GoogleSheetRepository implements Repository using the official Google
// Sheets API. Rows append to the DailySummary sheet, one line per branch per
// day, so the directors keep a running spreadsheet without touching the API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed export instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendSummaryRows appends one spreadsheet row per summary row.
func (r *GoogleSheetRepository) AppendSummaryRows(ctx context.Context, rows []models.DailySummaryRow) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, []interface{}{
			row.Date.Format(dateLayout),
			string(row.Branch),
			row.StockKg,
			row.StockValue,
			row.SalesAmount,
			row.SalesCount,
			row.PendingCredit,
			row.OverdueCredit,
		})
	}

	payload := &sheetsapi.ValueRange{Values: values}
	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, summaryRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append summary rows into range %s: %w", summaryRange, err)
	}

	r.logger.Debug("summary rows appended to sheet", zap.Int("rows", len(values)))
	return nil
}
