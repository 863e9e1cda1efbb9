package services

import (
	"context"
	"io"
	"math"

	gerrors "github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/money"
)

const exportSheet = "Transactions"

var exportHeader = []any{"Date", "Pool", "Kind", "Amount", "Formatted", "Balance after", "Reason", "Actor"}

// ExportService renders treasury history as a spreadsheet.
type ExportService struct {
	treasury *TreasuryService
}

func NewExportService(treasury *TreasuryService) *ExportService {
	return &ExportService{treasury: treasury}
}

// ExportXLSX writes every transaction matching params, newest first, as an
// xlsx workbook. Limit and offset are ignored.
func (s *ExportService) ExportXLSX(ctx context.Context, actor authz.Actor, params treasury.FindParams, w io.Writer) (int, error) {
	if err := actor.Require(authz.TreasuryExport); err != nil {
		return 0, err
	}
	params.Limit, params.Offset = math.MaxInt32, 0
	list, _, err := s.treasury.History(ctx, actor, &params)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, gerrors.Wrap(err, "name export sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, gerrors.Wrap(err, "export header style")
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return 0, gerrors.Wrap(err, "write export header")
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return 0, gerrors.Wrap(err, "style export header")
	}
	for i, t := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, gerrors.Wrap(err, "export cell")
		}
		amount, _ := t.Signed().Float64()
		balance, _ := t.BalanceAfter.Float64()
		row := []any{
			t.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			string(t.Pool),
			string(t.Kind),
			amount,
			money.Format(t.Signed()),
			balance,
			t.Reason,
			t.ActorID.String(),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, gerrors.Wrap(err, "write export row")
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "H", 20); err != nil {
		return 0, gerrors.Wrap(err, "size export columns")
	}
	if _, err := f.WriteTo(w); err != nil {
		return 0, gerrors.Wrap(err, "write export workbook")
	}
	return len(list), nil
}
