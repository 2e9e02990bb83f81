package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
)

func (s *Server) CalculateGSTBreakdown(c *gin.Context) {
	var req taxdomain.BreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	if err := s.checkGSTInputs(req.TaxRate, req.SellerState, req.BuyerState); err != nil {
		AbortWithError(c, err)
		return
	}

	resp := s.taxSvc.CalculateGSTBreakdown(req.Amount, req.TaxRate, req.SellerState, req.BuyerState)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReverseCalculate(c *gin.Context) {
	var req taxdomain.ReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	if err := s.checkGSTInputs(req.TaxRate); err != nil {
		AbortWithError(c, err)
		return
	}

	resp := s.taxSvc.ReverseCalculate(req.TotalAmount, req.TaxRate)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ValidateGSTNumber reports whether the gst_number query value is a
// well-formed GSTIN and which state issued it.
func (s *Server) ValidateGSTNumber(c *gin.Context) {
	value := strings.ToUpper(strings.TrimSpace(c.Query("gst_number")))
	if value == "" {
		AbortWithError(c, newValidationError("gst_number", "required", "gst_number is required"))
		return
	}

	resp := taxdomain.GSTNumberResponse{
		GSTNumber: value,
		Valid:     s.taxSvc.ValidateGSTNumber(value),
	}
	if resp.Valid {
		resp.StateCode = s.taxSvc.StateCodeFromGST(value)
		resp.StateName, _ = s.taxSvc.StateName(resp.StateCode)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// checkGSTInputs rejects rates finer than a hundredth and state codes outside
// the state list. Blank states fall back to an intra-state split.
func (s *Server) checkGSTInputs(rate decimal.Decimal, states ...string) error {
	if err := s.taxSvc.CheckTaxRate(rate); err != nil {
		return err
	}
	for _, code := range states {
		if code = strings.TrimSpace(code); code == "" {
			continue
		}
		if err := s.taxSvc.CheckState(code); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) ListStates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.taxSvc.States()})
}

func (s *Server) ListRateSlabs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.taxSvc.RateSlabs()})
}
