package tenant

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPrimaryRGB is the brand color used when a tenant has no theme.
const DefaultPrimaryRGB = "23, 83, 81"

var primaryAlphas = []struct {
	suffix string
	alpha  string
}{
	{"01", "0.1"}, {"02", "0.2"}, {"03", "0.3"}, {"04", "0.4"}, {"05", "0.5"},
	{"06", "0.6"}, {"07", "0.7"}, {"08", "0.8"}, {"09", "0.9"}, {"005", "0.05"},
}

func DefaultTheme() ThemeConfig {
	return ThemeConfig{
		Colors: Colors{
			PrimaryColor:    "#ffd300",
			SecondaryColor:  "#433B97",
			BackgroundColor: "#f5f5f5",
			SuccessColor:    "#28a745",
			DangerColor:     "#dc3545",
			WarningColor:    "#ffc107",
			InfoColor:       "#17a2b8",
		},
		Links: []Link{},
	}
}

// CSS renders the theme as CSS custom properties on :root.
// A nil theme renders the default brand palette.
func (tc *ThemeConfig) CSS() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	prop := func(name, value string) {
		fmt.Fprintf(&b, "  --%s: %s;\n", name, value)
	}

	primary := DefaultPrimaryRGB
	if tc != nil && tc.Colors.PrimaryColor != "" {
		if rgb, ok := toRGB(tc.Colors.PrimaryColor); ok {
			primary = rgb
		}
	}
	prop("primary-rgb", primary)
	prop("primary-bg-color", "rgb("+primary+")")
	prop("primary-bg-hover", "rgba("+primary+", 0.9)")
	prop("primary-bg-border", "rgb("+primary+")")
	for _, pa := range primaryAlphas {
		prop("primary"+pa.suffix, "rgba("+primary+", "+pa.alpha+")")
	}

	if tc == nil {
		b.WriteString("}\n")
		return b.String()
	}
	c := tc.Colors

	if c.SecondaryColor != "" {
		if strings.Contains(c.SecondaryColor, ",") {
			prop("secondary-rgb", c.SecondaryColor)
			prop("secondary", "rgb("+c.SecondaryColor+")")
		} else {
			prop("secondary", c.SecondaryColor)
		}
	}
	if c.BackgroundColor != "" {
		prop("background-color", c.BackgroundColor)
	}
	for _, st := range []struct{ name, value string }{
		{"success", c.SuccessColor},
		{"danger", c.DangerColor},
		{"warning", c.WarningColor},
		{"info", c.InfoColor},
	} {
		color, bg, ok := statusColors(st.value)
		if !ok {
			continue
		}
		prop(st.name, color)
		prop(st.name+"-bg", bg)
		prop(st.name+"-border", color)
	}
	b.WriteString("}\n")
	if c.BackgroundColor != "" {
		fmt.Fprintf(&b, "body {\n  background-color: %s;\n}\n", c.BackgroundColor)
	}
	return b.String()
}

// statusColors returns a status color and its 10% opacity background.
// "#rrggbb" keeps its hex form; "#rgb" and "r, g, b" go through rgb()/rgba().
func statusColors(value string) (color, bg string, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", false
	}
	if len(value) == 7 && strings.HasPrefix(value, "#") {
		if _, ok := toRGB(value); ok {
			return value, value + "1a", true
		}
	}
	rgb, ok := toRGB(value)
	if !ok {
		return "", "", false
	}
	return "rgb(" + rgb + ")", "rgba(" + rgb + ", 0.1)", true
}

// toRGB normalises "#rgb", "#rrggbb" or "r, g, b" to "r, g, b".
func toRGB(color string) (string, bool) {
	color = strings.TrimSpace(color)
	if strings.Contains(color, ",") {
		parts := strings.Split(color, ",")
		if len(parts) != 3 {
			return "", false
		}
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if n, err := strconv.Atoi(p); err != nil || n < 0 || n > 255 {
				return "", false
			}
			parts[i] = p
		}
		return strings.Join(parts, ", "), true
	}

	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return "", false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d, %d, %d", v>>16, (v>>8)&0xff, v&0xff), true
}
