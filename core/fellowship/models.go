// Package fellowship manages the organizational subdivisions of a church:
// prayercells and population groups.
package fellowship

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
)

// Kind tells prayercells from population groups.
type Kind string

const (
	Prayercells Kind = "prayercells"
	Groups      Kind = "population_groups"
)

func (k Kind) Valid() bool {
	return k == Prayercells || k == Groups
}

type (
	// Unit is a prayercell or a population group.
	Unit struct {
		ID    int           `json:"id"`
		Name  string        `json:"name"`
		Users []access.User `json:"users,omitempty"`
	}

	NewUnit struct {
		Name string `json:"name" validate:"required,max=100"`
	}
)

func (nu *NewUnit) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanName(nu.Name)
	return validate.Struct(nu)
}

func filterUnits(units []Unit, search string) []Unit {
	search = core.CleanString(search, true /* lower */)
	if search == "" {
		return units
	}
	filtered := make([]Unit, 0, len(units))
	for _, u := range units {
		if strings.Contains(strings.ToLower(u.Name), search) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}
