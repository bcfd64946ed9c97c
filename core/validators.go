package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	phoneTag   = "phone"
	phoneText  = "enter a valid phone number"
	phoneRegex = regexp.MustCompile(`^\+?\d{9,15}$`)

	kePhoneTag   = "ke_phone"
	kePhoneText  = "phone number must be 12 digits and start with 254 (e.g., 254716402525)"
	kePhoneRegex = regexp.MustCompile(`^254\d{9}$`)

	colorTag   = "color"
	colorText  = "enter a hex color (#ffd300) or an rgb triplet (23, 83, 81)"
	hexRegex   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbRegex   = regexp.MustCompile(`^\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*$`)
	dateTag    = "date"
	dateText   = "enter a date as YYYY-MM-DD"
	dateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	periodTag  = "period"
	periodText = "must be one of weekly, monthly or yearly"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(kePhoneTag, kePhoneValidation)
	RegisterCustomTranslation(validate, translator, kePhoneTag, kePhoneText)

	_ = validate.RegisterValidation(colorTag, colorValidation)
	RegisterCustomTranslation(validate, translator, colorTag, colorText)

	_ = validate.RegisterValidation(dateTag, dateValidation)
	RegisterCustomTranslation(validate, translator, dateTag, dateText)

	_ = validate.RegisterValidation(periodTag, periodValidation)
	RegisterCustomTranslation(validate, translator, periodTag, periodText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func kePhoneValidation(fl validator.FieldLevel) bool {
	return kePhoneRegex.MatchString(fl.Field().String())
}

// colorValidation accepts "#rgb", "#rrggbb" or "r, g, b".
func colorValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return hexRegex.MatchString(s) || rgbRegex.MatchString(s)
}

func dateValidation(fl validator.FieldLevel) bool {
	return dateRegex.MatchString(fl.Field().String())
}

func periodValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "weekly", "monthly", "yearly":
		return true
	}
	return false
}
