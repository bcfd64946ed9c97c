package treasury

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// InitValidators lets numeric tags (gt, lte...) apply to decimal amounts.
func InitValidators(validate *validator.Validate) {
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
}

func decimalValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}
