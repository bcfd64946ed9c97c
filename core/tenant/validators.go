package tenant

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/faithpod/portal/core"
)

var (
	domainTag   = "tenant_domain"
	domainText  = "enter a subdomain (letters, digits and dashes) or a full domain name"
	domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)
)

// InitValidators registers the tenant validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(domainTag, domainValidation)
	core.RegisterCustomTranslation(validate, translator, domainTag, domainText)
}

func domainValidation(fl validator.FieldLevel) bool {
	return domainRegex.MatchString(fl.Field().String())
}
