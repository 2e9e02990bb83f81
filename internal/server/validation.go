package server

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
)

const (
	tagGSTIN   = "gstin"
	tagGSTRate = "gst_rate"
)

var maxTaxRate = decimal.NewFromInt(100)

// registerValidators installs the GST binding tags on gin's validator.
func registerValidators(calc taxdomain.Calculator) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Decimals validate as their string form so numeric tags keep working.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation(tagGSTIN, func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		return value == "" || calc.ValidateGSTNumber(value)
	}); err != nil {
		return err
	}

	return v.RegisterValidation(tagGSTRate, func(fl validator.FieldLevel) bool {
		rate, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return !rate.IsNegative() && rate.LessThanOrEqual(maxTaxRate)
	})
}
