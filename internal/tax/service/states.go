package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/tax/domain"
)

var indianStates = []domain.State{
	{Code: "01", Name: "Jammu and Kashmir"},
	{Code: "02", Name: "Himachal Pradesh"},
	{Code: "03", Name: "Punjab"},
	{Code: "04", Name: "Chandigarh"},
	{Code: "05", Name: "Uttarakhand"},
	{Code: "06", Name: "Haryana"},
	{Code: "07", Name: "Delhi"},
	{Code: "08", Name: "Rajasthan"},
	{Code: "09", Name: "Uttar Pradesh"},
	{Code: "10", Name: "Bihar"},
	{Code: "11", Name: "Sikkim"},
	{Code: "12", Name: "Arunachal Pradesh"},
	{Code: "13", Name: "Nagaland"},
	{Code: "14", Name: "Manipur"},
	{Code: "15", Name: "Mizoram"},
	{Code: "16", Name: "Tripura"},
	{Code: "17", Name: "Meghalaya"},
	{Code: "18", Name: "Assam"},
	{Code: "19", Name: "West Bengal"},
	{Code: "20", Name: "Jharkhand"},
	{Code: "21", Name: "Odisha"},
	{Code: "22", Name: "Chhattisgarh"},
	{Code: "23", Name: "Madhya Pradesh"},
	{Code: "24", Name: "Gujarat"},
	{Code: "26", Name: "Dadra and Nagar Haveli and Daman and Diu"},
	{Code: "27", Name: "Maharashtra"},
	{Code: "29", Name: "Karnataka"},
	{Code: "30", Name: "Goa"},
	{Code: "31", Name: "Lakshadweep"},
	{Code: "32", Name: "Kerala"},
	{Code: "33", Name: "Tamil Nadu"},
	{Code: "34", Name: "Puducherry"},
	{Code: "35", Name: "Andaman and Nicobar Islands"},
	{Code: "36", Name: "Telangana"},
	{Code: "37", Name: "Andhra Pradesh"},
	{Code: "38", Name: "Ladakh"},
}

var slabLabels = map[string]string{
	"0":    "Nil Rate - 0%",
	"0.25": "Special Rate - 0.25%",
	"3":    "Essential Goods - 3%",
	"5":    "Standard Rate 1 - 5%",
	"12":   "Standard Rate 2 - 12%",
	"18":   "Standard Rate 3 - 18%",
	"28":   "Luxury Goods - 28%",
}

func slabLabel(rate decimal.Decimal) string {
	if label, ok := slabLabels[rate.String()]; ok {
		return label
	}
	return fmt.Sprintf("Custom Rate - %s%%", rate.String())
}

func (c *Calculator) States() []domain.State {
	out := make([]domain.State, len(indianStates))
	copy(out, indianStates)
	return out
}

func (c *Calculator) StateName(code string) (string, bool) {
	code = strings.TrimSpace(code)
	for _, s := range indianStates {
		if s.Code == code {
			return s.Name, true
		}
	}
	return "", false
}
