package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData is a paid invoice plus the settlement date.
type ReceiptData struct {
	InvoiceData
	DatePaid string
}

func (p *PDFProvider) GenerateReceipt(_ context.Context, data ReceiptData) ([]byte, error) {
	m := newDocument()

	m.AddRow(12,
		text.NewCol(12, "Payment Receipt", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	addParties(m, data.InvoiceData)
	m.AddRow(12,
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Size: 9}),
			text.New("Date paid: "+data.DatePaid, props.Text{Size: 9, Top: 4}),
		),
		col.New(6),
	)
	m.AddRow(12,
		text.NewCol(12, data.Total+" received with thanks", props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Top:   3,
		}),
	)
	addItems(m, data.Items)
	addTotals(m, data.InvoiceData)

	return generate(m)
}
