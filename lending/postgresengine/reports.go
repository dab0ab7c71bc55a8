package postgresengine

import (
	"context"

	"github.com/liblend/library-lending-go/lending"
)

const (
	opGenerateReport = "generate_report"

	logMsgReportGenerated = "report generated"
)

// GenerateReport pulls all borrows whose borrowedAt falls inside the period,
// optionally narrowed further by the filter's user, book and status clauses,
// and computes the analytics once over that set. Overdue figures are as of
// the store clock at generation time.
func (s *Store) GenerateReport(ctx context.Context, period lending.ReportPeriod, filter lending.BorrowFilter) (lending.Report, error) {
	ctx, finish := s.instrument(ctx, opGenerateReport)

	report, err := s.generateReport(ctx, period, filter)
	finish(err)

	if err != nil {
		return lending.Report{}, err
	}

	s.logOperation(ctx, logMsgReportGenerated, logAttrResultCount, report.Summary.TotalBorrows)

	return report, nil
}

func (s *Store) generateReport(ctx context.Context, period lending.ReportPeriod, filter lending.BorrowFilter) (lending.Report, error) {
	var empty lending.Report

	if err := period.Validate(); err != nil {
		return empty, err
	}

	bounded := filter.BorrowedDuring(period)
	now := s.clock()

	stmt := s.borrowRecordDataset().
		Where(s.borrowPredicates(bounded, now)...).
		Order(qualified(tableBorrows, colBorrowedAt).Desc())

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return empty, buildErr
	}

	records, queryErr := s.queryBorrowRecords(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}

	return lending.BuildReport(period, records, now), nil
}
