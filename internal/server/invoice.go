package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/gstinvoice/internal/invoice/domain"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		Status        string `form:"status"`
		PaymentStatus string `form:"payment_status"`
		Search        string `form:"search"`
		SortBy        string `form:"sort_by"`
		OrderBy       string `form:"order_by"`
		Limit         string `form:"limit"`
		Offset        string `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit, offset, err := parsePage(query.Limit, query.Offset)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListRequest{
		Status:        strings.TrimSpace(query.Status),
		PaymentStatus: strings.TrimSpace(query.PaymentStatus),
		Search:        strings.TrimSpace(query.Search),
		SortBy:        strings.TrimSpace(query.SortBy),
		OrderBy:       strings.TrimSpace(query.OrderBy),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.Get(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoicedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}
	req.ID = pathID(c)

	resp, err := s.invoiceSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), pathID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddInvoiceItem appends one line and refreshes the stored totals.
func (s *Server) AddInvoiceItem(c *gin.Context) {
	var req invoicedomain.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	id := pathID(c)
	ctx := c.Request.Context()

	item, err := s.invoiceSvc.AddItem(ctx, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.invoiceSvc.RecalculateTotals(ctx, id); err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"item": item, "invoice": invoice}})
}

func (s *Server) RecalculateInvoice(c *gin.Context) {
	id := pathID(c)
	if err := s.invoiceSvc.RecalculateTotals(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	id := pathID(c)
	if err := s.invoiceSvc.MarkAsPaid(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) NextInvoiceNumber(c *gin.Context) {
	number, err := s.invoiceSvc.GenerateInvoiceNumber(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"invoice_number": number}})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeDocument(c, doc)
}

func (s *Server) RenderInvoiceReceipt(c *gin.Context) {
	doc, err := s.invoiceSvc.RenderReceipt(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeDocument(c, doc)
}

func writeDocument(c *gin.Context, doc *invoicedomain.Document) {
	disposition := "attachment"
	if download, err := strconv.ParseBool(c.DefaultQuery("download", "true")); err == nil && !download {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

func isInvoiceValidationError(err error) bool {
	for _, target := range []error{
		invoicedomain.ErrInvalidOrganization,
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidCustomerName,
		invoicedomain.ErrInvalidCustomerGST,
		invoicedomain.ErrInvalidCustomerEmail,
		invoicedomain.ErrInvalidCustomerState,
		invoicedomain.ErrInvalidStatus,
		invoicedomain.ErrInvalidPaymentStatus,
		invoicedomain.ErrInvalidItemName,
		invoicedomain.ErrInvalidQuantity,
		invoicedomain.ErrInvalidRate,
		invoicedomain.ErrInvalidTaxRate,
		invoicedomain.ErrInvalidProductID,
		invoicedomain.ErrInvalidDueDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
