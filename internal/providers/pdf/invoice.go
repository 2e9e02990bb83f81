package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// InvoiceData is the pre-formatted content of a GST tax invoice. All
// amounts are already rendered strings.
type InvoiceData struct {
	SellerName    string
	SellerAddress string
	SellerGSTIN   string
	SellerPhone   string

	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	PlaceOfSupply string

	BillToName    string
	BillToAddress string
	BillToGSTIN   string
	BillToEmail   string
	BillToPhone   string

	Items []InvoiceItem

	Subtotal   string
	CGST       string
	SGST       string
	IGST       string
	InterState bool
	TaxTotal   string
	Total      string
	Notes      string
}

type InvoiceItem struct {
	Description string
	HSNSAC      string
	Quantity    string
	Unit        string
	Rate        string
	TaxRate     string
	TaxAmount   string
	Amount      string
}

func (p *PDFProvider) GenerateInvoice(_ context.Context, data InvoiceData) ([]byte, error) {
	m := newDocument()

	m.AddRow(12,
		text.NewCol(12, "Tax Invoice", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	addParties(m, data)
	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+data.InvoiceNumber, props.Text{Size: 9}),
			text.New("Invoice date: "+data.InvoiceDate, props.Text{Size: 9, Top: 4}),
			text.New("Due date: "+data.DueDate, props.Text{Size: 9, Top: 8}),
		),
		col.New(6).Add(
			text.New("Place of supply: "+data.PlaceOfSupply, props.Text{Size: 9, Align: align.Right}),
		),
	)
	addItems(m, data.Items)
	addTotals(m, data)

	if data.Notes != "" {
		m.AddRow(15,
			text.NewCol(12, "Notes: "+data.Notes, props.Text{Size: 8, Top: 4}),
		)
	}

	return generate(m)
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func addParties(m core.Maroto, data InvoiceData) {
	m.AddRow(35,
		col.New(6).Add(
			text.New(data.SellerName, props.Text{Style: fontstyle.Bold}),
			text.New(data.SellerAddress, props.Text{Size: 9, Top: 5}),
			text.New("GSTIN: "+data.SellerGSTIN, props.Text{Size: 9, Top: 18}),
			text.New(data.SellerPhone, props.Text{Size: 9, Top: 22}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.BillToName, props.Text{Size: 9, Top: 5}),
			text.New(data.BillToAddress, props.Text{Size: 9, Top: 9}),
			text.New("GSTIN: "+data.BillToGSTIN, props.Text{Size: 9, Top: 18}),
			text.New(data.BillToEmail, props.Text{Size: 9, Top: 22}),
			text.New(data.BillToPhone, props.Text{Size: 9, Top: 26}),
		),
	)
}

func addItems(m core.Maroto, items []InvoiceItem) {
	header := props.Text{Style: fontstyle.Bold, Size: 8}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}
	m.AddRow(8,
		text.NewCol(4, "Item", header),
		text.NewCol(1, "HSN/SAC", header),
		text.NewCol(1, "Qty", headerRight),
		text.NewCol(2, "Rate", headerRight),
		text.NewCol(1, "GST %", headerRight),
		text.NewCol(1, "Tax", headerRight),
		text.NewCol(2, "Amount", headerRight),
	)

	cell := props.Text{Size: 8}
	cellRight := props.Text{Size: 8, Align: align.Right}
	for _, item := range items {
		m.AddRow(8,
			text.NewCol(4, item.Description, cell),
			text.NewCol(1, item.HSNSAC, cell),
			text.NewCol(1, item.Quantity+" "+item.Unit, cellRight),
			text.NewCol(2, item.Rate, cellRight),
			text.NewCol(1, item.TaxRate, cellRight),
			text.NewCol(1, item.TaxAmount, cellRight),
			text.NewCol(2, item.Amount, cellRight),
		)
	}
}

func addTotals(m core.Maroto, data InvoiceData) {
	addTotalRow(m, "Taxable value", data.Subtotal, false)
	if data.InterState {
		addTotalRow(m, "IGST", data.IGST, false)
	} else {
		addTotalRow(m, "CGST", data.CGST, false)
		addTotalRow(m, "SGST", data.SGST, false)
	}
	addTotalRow(m, "Total tax", data.TaxTotal, false)
	addTotalRow(m, "Invoice total", data.Total, true)
}

func addTotalRow(m core.Maroto, label, value string, bold bool) {
	style := props.Text{Size: 9}
	if bold {
		style.Style = fontstyle.Bold
	}
	valueStyle := style
	valueStyle.Align = align.Right

	m.AddRow(7,
		col.New(7),
		text.NewCol(3, label, style),
		text.NewCol(2, value, valueStyle),
	)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
