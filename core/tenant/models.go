package tenant

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/faithpod/portal/core"
)

type (
	Domain struct {
		Domain string `json:"domain"`
	}

	Tenant struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		Email     string     `json:"email"`
		Domains   []Domain   `json:"domains,omitempty"`
		CreatedAt *time.Time `json:"created_at,omitempty"`
	}

	NewTenant struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Domain   string `json:"domain" validate:"required,tenant_domain"`
		Password string `json:"password" validate:"required,min=8"`
	}

	UpdateTenant struct {
		Name   string `json:"name" validate:"required"`
		Email  string `json:"email" validate:"required,email"`
		Domain string `json:"domain" validate:"required,tenant_domain"`
	}

	// Info is what a tenant's own API tells about itself.
	Info struct {
		ID      string       `json:"id"`
		Name    string       `json:"name"`
		Email   string       `json:"email,omitempty"`
		Domains []Domain     `json:"domains,omitempty"`
		Theme   *ThemeConfig `json:"theme,omitempty"`
	}

	Colors struct {
		PrimaryColor    string `json:"primaryColor" validate:"omitempty,color"`
		SecondaryColor  string `json:"secondaryColor" validate:"omitempty,color"`
		BackgroundColor string `json:"backgroundColor" validate:"omitempty,color"`
		SuccessColor    string `json:"successColor" validate:"omitempty,color"`
		DangerColor     string `json:"dangerColor" validate:"omitempty,color"`
		WarningColor    string `json:"warningColor" validate:"omitempty,color"`
		InfoColor       string `json:"infoColor" validate:"omitempty,color"`
	}

	Link struct {
		URL  string `json:"url" validate:"required,http_url"`
		Name string `json:"name" validate:"required"`
	}

	ThemeConfig struct {
		Colors Colors `json:"colors"`
		Links  []Link `json:"links" validate:"dive"`
	}

	MailConfig struct {
		Mailer      string `json:"mailer,omitempty"`
		Host        string `json:"host,omitempty"`
		Port        string `json:"port,omitempty"`
		Username    string `json:"username,omitempty"`
		Password    string `json:"password,omitempty"`
		Encryption  string `json:"encryption,omitempty"`
		FromAddress string `json:"from_address,omitempty" validate:"omitempty,email"`
		FromName    string `json:"from_name,omitempty"`
	}

	MpesaConfig struct {
		ConsumerKey     string `json:"consumer_key,omitempty"`
		ConsumerSecret  string `json:"consumer_secret,omitempty"`
		Shortcode       string `json:"shortcode,omitempty"`
		Passkey         string `json:"passkey,omitempty"`
		CallbackURL     string `json:"callback_url,omitempty" validate:"omitempty,url"`
		ValidationURL   string `json:"validation_url,omitempty" validate:"omitempty,url"`
		ConfirmationURL string `json:"confirmation_url,omitempty" validate:"omitempty,url"`
	}

	SMSConfig struct {
		PartnerID string `json:"partner_id,omitempty"`
		APIKey    string `json:"api_key,omitempty"`
		Shortcode string `json:"shortcode,omitempty"`
		URL       string `json:"url,omitempty" validate:"omitempty,url"`
	}

	HashlixConfig struct {
		APIKey string `json:"api_key,omitempty"`
	}

	// AppConfig holds a tenant's third party credentials. Empty sections are omitted.
	AppConfig struct {
		Mail    *MailConfig    `json:"mail,omitempty"`
		Mpesa   *MpesaConfig   `json:"mpesa,omitempty"`
		SMS     *SMSConfig     `json:"sms,omitempty"`
		Hashlix *HashlixConfig `json:"hashlix,omitempty"`
	}
)

func (nt *NewTenant) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanName(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Domain = core.CleanString(nt.Domain, true /* lower */)
	return validate.Struct(nt)
}

func (ut *UpdateTenant) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanName(ut.Name)
	ut.Email = core.CleanString(ut.Email, true /* lower */)
	ut.Domain = core.CleanString(ut.Domain, true /* lower */)
	return validate.Struct(ut)
}

func (tc *ThemeConfig) Validate(validate *validator.Validate) error {
	for i := range tc.Links {
		tc.Links[i].URL = core.CleanString(tc.Links[i].URL)
		tc.Links[i].Name = core.CleanName(tc.Links[i].Name)
	}
	return validate.Struct(tc)
}

// WithDefaults fills the unset colors with DefaultTheme's.
func (tc ThemeConfig) WithDefaults() ThemeConfig {
	def := DefaultTheme().Colors
	c := &tc.Colors
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&c.PrimaryColor, def.PrimaryColor)
	fill(&c.SecondaryColor, def.SecondaryColor)
	fill(&c.BackgroundColor, def.BackgroundColor)
	fill(&c.SuccessColor, def.SuccessColor)
	fill(&c.DangerColor, def.DangerColor)
	fill(&c.WarningColor, def.WarningColor)
	fill(&c.InfoColor, def.InfoColor)
	if tc.Links == nil {
		tc.Links = []Link{}
	}
	return tc
}

func (ac *AppConfig) Validate(validate *validator.Validate) error {
	ac.Prune()
	return validate.Struct(ac)
}

// Prune trims every value and drops the sections left empty, so only configured sections are sent.
func (ac *AppConfig) Prune() {
	if m := ac.Mail; m != nil {
		trimAll(&m.Mailer, &m.Host, &m.Port, &m.Username, &m.Encryption, &m.FromAddress, &m.FromName)
	}
	if m := ac.Mpesa; m != nil {
		trimAll(&m.ConsumerKey, &m.ConsumerSecret, &m.Shortcode, &m.Passkey, &m.CallbackURL, &m.ValidationURL, &m.ConfirmationURL)
	}
	if s := ac.SMS; s != nil {
		trimAll(&s.PartnerID, &s.APIKey, &s.Shortcode, &s.URL)
	}
	if h := ac.Hashlix; h != nil {
		trimAll(&h.APIKey)
	}

	if ac.Mail != nil && *ac.Mail == (MailConfig{}) {
		ac.Mail = nil
	}
	if ac.Mpesa != nil && *ac.Mpesa == (MpesaConfig{}) {
		ac.Mpesa = nil
	}
	if ac.SMS != nil && *ac.SMS == (SMSConfig{}) {
		ac.SMS = nil
	}
	if ac.Hashlix != nil && *ac.Hashlix == (HashlixConfig{}) {
		ac.Hashlix = nil
	}
}

func trimAll(ss ...*string) {
	for _, s := range ss {
		*s = core.CleanString(*s)
	}
}
