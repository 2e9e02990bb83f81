package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstinvoice/internal/invoice/format"
	"gorm.io/gorm"
)

// GenerateInvoiceNumber previews the next number for the caller's
// organization: prefix, issue date and the invoice count plus one.
func (s *Service) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return "", err
	}
	return s.nextNumber(ctx, s.db, orgID)
}

// nextNumber starts at the invoice count plus one and moves past numbers
// that are already taken, which happens once an earlier invoice was deleted.
func (s *Service) nextNumber(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (string, error) {
	count, err := s.repo.CountByOrg(ctx, db, orgID)
	if err != nil {
		return "", err
	}

	settings := s.gstSettings()
	issuedAt := s.clock.Now()
	for seq := count + 1; ; seq++ {
		number, err := format.FormatInvoiceNumber(
			format.DefaultInvoiceNumberTemplate,
			settings.InvoicePrefix,
			issuedAt,
			seq,
		)
		if err != nil {
			return "", err
		}

		taken, err := s.repo.NumberExists(ctx, db, orgID, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
}
