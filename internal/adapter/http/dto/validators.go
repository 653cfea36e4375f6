package dto

import (
	"html"
	"reflect"
	"strings"

	"dev3-backend/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidators(v)
	}
}

// RegisterValidators adds the custom tags used by request DTOs to v.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("near_account", validateNearAccount)
	_ = v.RegisterValidation("decimal_amount", validateDecimalAmount)
}

// validateNearAccount accepts named (*.near, *.testnet) and implicit account IDs.
func validateNearAccount(fl validator.FieldLevel) bool {
	return domain.IsNearAccountID(fl.Field().String())
}

// validateDecimalAmount accepts a positive decimal string the payments store
// can hold without rounding.
func validateDecimalAmount(fl validator.FieldLevel) bool {
	_, ok := domain.ParseAmount(fl.Field().String())
	return ok
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer. Fields tagged
// `sanitize:"-"` are left untouched.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() || rt.Field(i).Tag.Get("sanitize") == "-" {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			if elem := f.Elem(); elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
