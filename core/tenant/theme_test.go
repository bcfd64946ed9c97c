package tenant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeConfig_CSS(t *testing.T) {
	t.Run("nil theme renders the default primary", func(t *testing.T) {
		var tc *ThemeConfig
		css := tc.CSS()
		assert.Contains(t, css, "--primary-rgb: 23, 83, 81;")
		assert.Contains(t, css, "--primary005: rgba(23, 83, 81, 0.05);")
		assert.NotContains(t, css, "--secondary")
	})

	t.Run("hex primary is converted to rgb", func(t *testing.T) {
		tc := &ThemeConfig{Colors: Colors{PrimaryColor: "#ffd300"}}
		css := tc.CSS()
		assert.Contains(t, css, "--primary-rgb: 255, 211, 0;")
		assert.Contains(t, css, "--primary-bg-hover: rgba(255, 211, 0, 0.9);")
	})

	t.Run("secondary formats", func(t *testing.T) {
		rgb := &ThemeConfig{Colors: Colors{SecondaryColor: "167, 32, 32"}}
		css := rgb.CSS()
		assert.Contains(t, css, "--secondary-rgb: 167, 32, 32;")
		assert.Contains(t, css, "--secondary: rgb(167, 32, 32);")

		hex := &ThemeConfig{Colors: Colors{SecondaryColor: "#433B97"}}
		css = hex.CSS()
		assert.Contains(t, css, "--secondary: #433B97;")
		assert.NotContains(t, css, "--secondary-rgb")
	})

	t.Run("status colors get a translucent background", func(t *testing.T) {
		tc := DefaultTheme()
		css := tc.CSS()
		assert.Contains(t, css, "--success: #28a745;")
		assert.Contains(t, css, "--success-bg: #28a7451a;")
		assert.Contains(t, css, "--danger-border: #dc3545;")
		assert.Contains(t, css, "--info-bg: #17a2b81a;")
		assert.True(t, strings.HasSuffix(css, "body {\n  background-color: #f5f5f5;\n}\n"))
	})

	t.Run("rgb and short hex status colors", func(t *testing.T) {
		tc := &ThemeConfig{Colors: Colors{SuccessColor: "40, 167, 69", DangerColor: "#d00", WarningColor: "yellowish"}}
		css := tc.CSS()
		assert.Contains(t, css, "--success: rgb(40, 167, 69);")
		assert.Contains(t, css, "--success-bg: rgba(40, 167, 69, 0.1);")
		assert.Contains(t, css, "--success-border: rgb(40, 167, 69);")
		assert.Contains(t, css, "--danger: rgb(221, 0, 0);")
		assert.Contains(t, css, "--danger-bg: rgba(221, 0, 0, 0.1);")
		assert.NotContains(t, css, "--warning")
		assert.NotContains(t, css, "691a")
	})
}

func TestToRGB(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{in: "#175351", want: "23, 83, 81", wantOk: true},
		{in: "#fff", want: "255, 255, 255", wantOk: true},
		{in: "23,83, 81", want: "23, 83, 81", wantOk: true},
		{in: "23, 83", wantOk: false},
		{in: "300, 0, 0", wantOk: false},
		{in: "#zzzzzz", wantOk: false},
		{in: "", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := toRGB(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThemeConfig_WithDefaults(t *testing.T) {
	tc := ThemeConfig{Colors: Colors{PrimaryColor: "#000000"}}.WithDefaults()
	assert.Equal(t, "#000000", tc.Colors.PrimaryColor)
	assert.Equal(t, "#433B97", tc.Colors.SecondaryColor)
	assert.Equal(t, "#17a2b8", tc.Colors.InfoColor)
	assert.NotNil(t, tc.Links)
}

func TestAppConfig_Prune(t *testing.T) {
	ac := AppConfig{
		Mail:    &MailConfig{Host: "  "},
		Mpesa:   &MpesaConfig{Shortcode: " 174379 "},
		SMS:     &SMSConfig{},
		Hashlix: nil,
	}
	ac.Prune()
	assert.Nil(t, ac.Mail)
	assert.Nil(t, ac.SMS)
	assert.Nil(t, ac.Hashlix)
	if assert.NotNil(t, ac.Mpesa) {
		assert.Equal(t, "174379", ac.Mpesa.Shortcode)
	}
}
