package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/gstinvoice/internal/account/domain"
)

func (s *Server) GetAccount(c *gin.Context) {
	resp, err := s.accountSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAccount(c *gin.Context) {
	var req accountdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.accountSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAccountValidationError(err error) bool {
	switch err {
	case accountdomain.ErrInvalidOrganization,
		accountdomain.ErrInvalidUser,
		accountdomain.ErrInvalidName,
		accountdomain.ErrInvalidPANNumber,
		accountdomain.ErrInvalidPincode:
		return true
	default:
		return false
	}
}
