package validate

import (
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/model"
)

// ValidateBatch checks headers, then validates every record independently.
// Products are returned in record order alongside the report. The only
// error is a structural one that rejects the whole batch.
func ValidateBatch(s *model.Schema, headers []string, records []model.Record) (*model.ValidationReport, []*model.ValidatedProduct, error) {
	if err := CheckColumns(s, headers); err != nil {
		return nil, nil, err
	}

	report := &model.ValidationReport{
		Industry: s.Industry,
		Total:    len(records),
		PerRow:   make([]model.RowReport, 0, len(records)),
	}
	products := make([]*model.ValidatedProduct, 0, len(records))

	for i, rec := range records {
		p := ValidateRecord(s, i+1, rec)
		products = append(products, p)
		if p.IsValid {
			report.Valid++
		} else {
			report.Invalid++
		}
		report.PerRow = append(report.PerRow, model.RowReport{
			RowNumber: p.Row,
			ProductID: p.ProductID,
			Errors:    p.ErrorStrings(),
			Warnings:  p.WarningStrings(),
			IsValid:   p.IsValid,
		})
	}

	zap.L().Info("validate: batch validated",
		zap.String("industry", s.Industry),
		zap.Int("total", report.Total),
		zap.Int("valid", report.Valid),
		zap.Int("invalid", report.Invalid),
	)
	return report, products, nil
}
