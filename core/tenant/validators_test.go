package tenant

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/faithpod/portal/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewTenant_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		nt      NewTenant
		wantErr bool
	}{
		{
			name: "valid",
			nt:   NewTenant{Name: " Karen  SDA ", Email: " Admin@Karen.org ", Domain: "Karen", Password: "s3cretpass"},
		},
		{
			name: "full domain",
			nt:   NewTenant{Name: "Karen", Email: "admin@karen.org", Domain: "karen.faithpod.com", Password: "s3cretpass"},
		},
		{
			name:    "short password",
			nt:      NewTenant{Name: "Karen", Email: "admin@karen.org", Domain: "karen", Password: "short"},
			wantErr: true,
		},
		{
			name:    "bad domain",
			nt:      NewTenant{Name: "Karen", Email: "admin@karen.org", Domain: "ka ren", Password: "s3cretpass"},
			wantErr: true,
		},
		{
			name:    "bad email",
			nt:      NewTenant{Name: "Karen", Email: "karen", Domain: "karen", Password: "s3cretpass"},
			wantErr: true,
		},
		{name: "empty", nt: NewTenant{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nt.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	nt := NewTenant{Name: " Karen  SDA ", Email: " Admin@Karen.org ", Domain: "Karen", Password: "s3cretpass"}
	_ = nt.Validate(validate)
	assert.Equal(t, NewTenant{Name: "Karen SDA", Email: "admin@karen.org", Domain: "karen", Password: "s3cretpass"}, nt)
}

func TestThemeConfig_Validate(t *testing.T) {
	validate := newValidator()

	ok := ThemeConfig{
		Colors: Colors{PrimaryColor: "#ffd300", SecondaryColor: "167, 32, 32"},
		Links:  []Link{{URL: " https://karen.org/give ", Name: "Give"}},
	}
	assert.NoError(t, ok.Validate(validate))
	assert.Equal(t, "https://karen.org/give", ok.Links[0].URL)

	badColor := ThemeConfig{Colors: Colors{PrimaryColor: "yellow"}}
	assert.Error(t, badColor.Validate(validate))

	badLink := ThemeConfig{Links: []Link{{URL: "ftp://karen.org", Name: "Files"}}}
	assert.Error(t, badLink.Validate(validate))
}
