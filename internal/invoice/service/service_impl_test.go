package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/clock"
	"github.com/smallbiznis/gstinvoice/internal/invoice/domain"
	"github.com/smallbiznis/gstinvoice/internal/invoice/repository"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
	"github.com/smallbiznis/gstinvoice/internal/providers/pdf"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
	taxservice "github.com/smallbiznis/gstinvoice/internal/tax/service"
	pkgdb "github.com/smallbiznis/gstinvoice/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testOrgID  int64 = 1001
	otherOrgID int64 = 2002
)

type fixture struct {
	svc   *Service
	db    *gorm.DB
	clock *clock.FakeClock
	ctx   context.Context
}

func setup(t *testing.T) fixture {
	t.Helper()

	db, err := pkgdb.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Invoice{}, &domain.InvoiceItem{}))
	require.NoError(t, db.Exec(`CREATE TABLE business_profiles (
		org_id INTEGER PRIMARY KEY,
		business_name TEXT NOT NULL DEFAULT '',
		gst_number TEXT NOT NULL DEFAULT '',
		pan_number TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		pincode TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	)`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Tax:   taxservice.NewCalculator(),
		Clock: fake,
		PDF:   pdf.New(),
	}).(*Service)

	return fixture{
		svc:   svc,
		db:    db,
		clock: fake,
		ctx:   orgcontext.WithOrgID(context.Background(), testOrgID),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rate(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func twoItems() []domain.ItemInput {
	return []domain.ItemInput{
		{ProductName: "Widget", Quantity: dec("2"), Rate: dec("100"), TaxRate: rate("18")},
		{ProductName: "Gadget", Quantity: dec("1"), Rate: dec("50"), TaxRate: rate("18")},
	}
}

func TestCreateReconcilesTotals(t *testing.T) {
	f := setup(t)

	resp, err := f.svc.Create(f.ctx, domain.CreateRequest{
		CustomerName: "Globex",
		Items:        twoItems(),
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-20240115-0001", resp.InvoiceNumber)
	assert.Equal(t, domain.StatusDraft, resp.Status)
	assert.Equal(t, domain.PaymentStatusPending, resp.PaymentStatus)
	assertDecimal(t, "250", resp.Subtotal)
	assertDecimal(t, "45", resp.TaxAmount)
	assertDecimal(t, "295", resp.TotalAmount)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Widget", resp.Items[0].ProductName)
	assert.Equal(t, 1, resp.Items[0].Position)
	assert.Equal(t, "piece", resp.Items[0].Unit)
	assertDecimal(t, "36", resp.Items[0].TaxAmount)
	assertDecimal(t, "236", resp.Items[0].Amount)
	assertDecimal(t, "59", resp.Items[1].Amount)
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := setup(t)

	resp, err := f.svc.Create(f.ctx, domain.CreateRequest{
		CustomerName: "Globex",
		CustomerGST:  "29aapfu0939f1zv",
		Items: []domain.ItemInput{
			{ProductName: "Service", Quantity: dec("1"), Rate: dec("1000")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "29AAPFU0939F1ZV", resp.CustomerGST)
	assert.Equal(t, "29", resp.CustomerState)
	require.Len(t, resp.Items, 1)
	assertDecimal(t, "18", resp.Items[0].TaxRate)
	assertDecimal(t, "180", resp.Items[0].TaxAmount)
	assert.True(t, resp.InvoiceDate.Equal(f.clock.Now()))
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)

	cases := []struct {
		name string
		req  domain.CreateRequest
		want error
	}{
		{"missing customer", domain.CreateRequest{CustomerName: "  "}, domain.ErrInvalidCustomerName},
		{"unknown status", domain.CreateRequest{CustomerName: "A", Status: "archived"}, domain.ErrInvalidStatus},
		{"unknown payment status", domain.CreateRequest{CustomerName: "A", PaymentStatus: "refunded"}, domain.ErrInvalidPaymentStatus},
		{"bad gstin", domain.CreateRequest{CustomerName: "A", CustomerGST: "invalid"}, domain.ErrInvalidCustomerGST},
		{"unknown state", domain.CreateRequest{CustomerName: "A", CustomerState: "99"}, domain.ErrInvalidCustomerState},
		{"bad email", domain.CreateRequest{CustomerName: "A", CustomerEmail: "nope"}, domain.ErrInvalidCustomerEmail},
		{"item without name", domain.CreateRequest{CustomerName: "A", Items: []domain.ItemInput{{Quantity: dec("1"), Rate: dec("1")}}}, domain.ErrInvalidItemName},
		{"zero quantity", domain.CreateRequest{CustomerName: "A", Items: []domain.ItemInput{{ProductName: "x", Rate: dec("1")}}}, domain.ErrInvalidQuantity},
		{"tax rate above 100", domain.CreateRequest{CustomerName: "A", Items: []domain.ItemInput{{ProductName: "x", Quantity: dec("1"), TaxRate: rate("101")}}}, domain.ErrInvalidTaxRate},
		{"rate below a paisa", domain.CreateRequest{CustomerName: "A", Items: []domain.ItemInput{{ProductName: "x", Quantity: dec("3"), Rate: dec("33.333")}}}, domain.ErrInvalidRate},
		{"quantity with four decimals", domain.CreateRequest{CustomerName: "A", Items: []domain.ItemInput{{ProductName: "x", Quantity: dec("1.0005"), Rate: dec("1")}}}, domain.ErrInvalidQuantity},
		{"tax rate with three decimals", domain.CreateRequest{CustomerName: "A", Items: []domain.ItemInput{{ProductName: "x", Quantity: dec("1"), TaxRate: rate("18.125")}}}, domain.ErrInvalidTaxRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.svc.Create(context.Background(), domain.CreateRequest{CustomerName: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestAddItemDoesNotRecalculate(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex"})
	require.NoError(t, err)
	assertDecimal(t, "0", created.TotalAmount)

	for _, item := range twoItems() {
		_, err := f.svc.AddItem(f.ctx, created.ID, item)
		require.NoError(t, err)
	}

	got, err := f.svc.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assertDecimal(t, "0", got.TotalAmount)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 2, got.Items[1].Position)

	require.NoError(t, f.svc.RecalculateTotals(f.ctx, created.ID))

	got, err = f.svc.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assertDecimal(t, "250", got.Subtotal)
	assertDecimal(t, "45", got.TaxAmount)
	assertDecimal(t, "295", got.TotalAmount)
}

func TestStoredLineAmountsMatchTotals(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{
		CustomerName: "Initech",
		Items: []domain.ItemInput{
			{ProductName: "Cable", Quantity: dec("3"), Rate: dec("33.33"), TaxRate: rate("18")},
			{ProductName: "Tape", Quantity: dec("1.500"), Rate: dec("12.50"), TaxRate: rate("5")},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Items, 2)

	lineSum := decimal.Zero
	for _, item := range created.Items {
		lineSum = lineSum.Add(item.Amount)
	}
	assertDecimal(t, "99.99", created.Items[0].Amount.Sub(created.Items[0].TaxAmount))
	assertDecimal(t, "137.68", lineSum)
	assertDecimal(t, "118.74", created.Subtotal)
	assertDecimal(t, "137.68", created.TotalAmount)
}

func TestAddItemScopedToOwner(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex"})
	require.NoError(t, err)

	other := orgcontext.WithOrgID(context.Background(), otherOrgID)
	_, err = f.svc.AddItem(other, created.ID, twoItems()[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.svc.RecalculateTotals(other, created.ID), domain.ErrNotFound)
	_, err = f.svc.AddItem(f.ctx, "not-a-number", twoItems()[0])
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGenerateInvoiceNumber(t *testing.T) {
	f := setup(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex"})
		require.NoError(t, err)
	}

	next, err := f.svc.GenerateInvoiceNumber(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-0004", next)

	f.clock.Advance(24 * time.Hour)
	next, err = f.svc.GenerateInvoiceNumber(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240116-0004", next)

	other := orgcontext.WithOrgID(context.Background(), otherOrgID)
	next, err = f.svc.GenerateInvoiceNumber(other)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240116-0001", next)
}

func TestCreateDuplicateNumber(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "A", InvoiceNumber: "INV-20240115-0002"})
	require.NoError(t, err)

	t.Run("explicit number is not retried", func(t *testing.T) {
		_, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "B", InvoiceNumber: "INV-20240115-0002"})
		assert.ErrorIs(t, err, domain.ErrDuplicateInvoiceNumber)
	})

	t.Run("generated number moves past a taken one", func(t *testing.T) {
		resp, err := f.svc.Create(f.ctx, domain.CreateRequest{
			CustomerName: "C",
			Items:        twoItems(),
		})
		require.NoError(t, err)
		assert.Equal(t, "INV-20240115-0003", resp.InvoiceNumber)
		assert.Len(t, resp.Items, 2)
	})
}

func TestCreateAfterDeleteKeepsNumbering(t *testing.T) {
	f := setup(t)

	first, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "A"})
	require.NoError(t, err)
	second, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "B"})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-0001", first.InvoiceNumber)
	assert.Equal(t, "INV-20240115-0002", second.InvoiceNumber)

	require.NoError(t, f.svc.Delete(f.ctx, first.ID))

	next, err := f.svc.GenerateInvoiceNumber(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-0003", next)

	third, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "C"})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-0003", third.InvoiceNumber)

	fourth, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "D"})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-0004", fourth.InvoiceNumber)
}

func TestMarkAsPaid(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex", Items: twoItems()})
	require.NoError(t, err)

	other := orgcontext.WithOrgID(context.Background(), otherOrgID)
	assert.ErrorIs(t, f.svc.MarkAsPaid(other, created.ID), domain.ErrNotFound)

	require.NoError(t, f.svc.MarkAsPaid(f.ctx, created.ID))

	got, err := f.svc.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestOwnerIsolation(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex"})
	require.NoError(t, err)

	other := orgcontext.WithOrgID(context.Background(), otherOrgID)
	_, err = f.svc.Create(other, domain.CreateRequest{CustomerName: "Initech"})
	require.NoError(t, err)

	_, err = f.svc.Get(other, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	name := "Hijacked"
	_, err = f.svc.Update(other, domain.UpdateRequest{ID: created.ID, CustomerName: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(other, created.ID), domain.ErrNotFound)

	list, err := f.svc.List(f.ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Globex", list[0].CustomerName)
}

func TestList(t *testing.T) {
	f := setup(t)

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: name})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}
	_, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Delta", Status: "sent"})
	require.NoError(t, err)

	all, err := f.svc.List(f.ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Delta", all[0].CustomerName)

	sent, err := f.svc.List(f.ctx, domain.ListRequest{Status: "sent"})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	page, err := f.svc.List(f.ctx, domain.ListRequest{SortBy: "customer_name", OrderBy: "asc", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Bravo", page[0].CustomerName)

	search, err := f.svc.List(f.ctx, domain.ListRequest{Search: "char"})
	require.NoError(t, err)
	require.Len(t, search, 1)

	_, err = f.svc.List(f.ctx, domain.ListRequest{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdate(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex", CustomerState: "27"})
	require.NoError(t, err)

	status := "sent"
	notes := "net 30"
	gst := "29AAPFU0939F1ZV"
	got, err := f.svc.Update(f.ctx, domain.UpdateRequest{ID: created.ID, Status: &status, Notes: &notes, CustomerGST: &gst})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, got.Status)
	assert.Equal(t, "net 30", got.Notes)
	assert.Equal(t, "29", got.CustomerState)
	assert.Equal(t, "Globex", got.CustomerName)

	bad := "shipped"
	_, err = f.svc.Update(f.ctx, domain.UpdateRequest{ID: created.ID, Status: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	empty := ""
	_, err = f.svc.Update(f.ctx, domain.UpdateRequest{ID: created.ID, CustomerName: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerName)
}

func TestDeleteRemovesItems(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex", Items: twoItems()})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, created.ID))

	_, err = f.svc.Get(f.ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var items int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM invoice_items`).Scan(&items).Error)
	assert.Zero(t, items)
}

func TestGSTSummaryFollowsStates(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.db.Exec(
		`INSERT INTO business_profiles (org_id, business_name, gst_number) VALUES (?, ?, ?)`,
		testOrgID, "Acme Traders", "27AAPFU0939F1ZV",
	).Error)

	inter, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex", CustomerState: "29", Items: twoItems()})
	require.NoError(t, err)
	assert.Equal(t, taxdomain.TaxTypeIGST, inter.GST.Type)
	assert.Equal(t, "27", inter.GST.SellerState)
	assertDecimal(t, "45", inter.GST.IGST)
	assertDecimal(t, "0", inter.GST.CGST)

	intra, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Initech", CustomerState: "27", Items: twoItems()})
	require.NoError(t, err)
	assert.Equal(t, taxdomain.TaxTypeCGSTSGST, intra.GST.Type)
	assertDecimal(t, "22.5", intra.GST.CGST)
	assertDecimal(t, "22.5", intra.GST.SGST)

	unknown, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Hooli", Items: twoItems()})
	require.NoError(t, err)
	assert.Equal(t, taxdomain.TaxTypeCGSTSGST, unknown.GST.Type)
}

func TestRenderDocuments(t *testing.T) {
	f := setup(t)

	created, err := f.svc.Create(f.ctx, domain.CreateRequest{CustomerName: "Globex", Items: twoItems()})
	require.NoError(t, err)

	doc, err := f.svc.RenderPDF(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-0001.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))

	_, err = f.svc.RenderReceipt(f.ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotPaid)

	require.NoError(t, f.svc.MarkAsPaid(f.ctx, created.ID))
	receipt, err := f.svc.RenderReceipt(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240115-0001-receipt.pdf", receipt.Filename)
}

func TestSumItemsRoundsOnce(t *testing.T) {
	totals := sumItems([]domain.InvoiceItem{
		{Quantity: dec("1.5"), Rate: dec("33.33"), TaxAmount: dec("9")},
		{Quantity: dec("1"), Rate: dec("0.005"), TaxAmount: dec("0")},
	})
	assertDecimal(t, "50", totals.Subtotal)
	assertDecimal(t, "9", totals.TaxAmount)
	assertDecimal(t, "59", totals.TotalAmount)
}
