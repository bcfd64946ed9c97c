package member

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/fellowship"
	"github.com/faithpod/portal/core/treasury"
)

// orderable fields
var orderingFields = []string{"first_name", "last_name", "membership_number"}

type (
	Member struct {
		ID               int                     `json:"id"`
		MembershipNumber core.FlexString         `json:"membership_number"`
		FirstName        string                  `json:"first_name"`
		MiddleName       string                  `json:"middle_name"`
		LastName         string                  `json:"last_name"`
		Email            string                  `json:"email"`
		PhoneNumber      string                  `json:"phone_number"`
		DateOfBirth      string                  `json:"date_of_birth,omitempty"`
		Gender           string                  `json:"gender,omitempty"`
		Role             *access.Role            `json:"role,omitempty"`
		PopulationGroup  *fellowship.Unit        `json:"population_group,omitempty"`
		Prayercell       *fellowship.Unit        `json:"prayercell,omitempty"`
		MembershipType   *MembershipType         `json:"membershiptype,omitempty"`
		Contributions    []treasury.Contribution `json:"contributions,omitempty"`
	}

	NewMember struct {
		FirstName         string `json:"first_name" validate:"required,max=100"`
		MiddleName        string `json:"middle_name" validate:"max=100"`
		LastName          string `json:"last_name" validate:"required,max=100"`
		Email             string `json:"email" validate:"required,email"`
		PhoneNumber       string `json:"phone_number" validate:"omitempty,phone"`
		MembershipNumber  string `json:"membership_number" validate:"max=50"`
		MembershipTypeID  int    `json:"membership_type_id,omitempty" validate:"gte=0"`
		RoleID            int    `json:"role_id,omitempty" validate:"gte=0"`
		PopulationGroupID int    `json:"population_group_id,omitempty" validate:"gte=0"`
		PrayercellID      int    `json:"prayercell_id,omitempty" validate:"gte=0"`
	}

	UpdateMember NewMember

	GenderCount struct {
		Male   core.FlexInt `json:"male"`
		Female core.FlexInt `json:"female"`
	}

	MembershipType struct {
		ID    int           `json:"id"`
		Name  string        `json:"name"`
		Users []access.User `json:"users,omitempty"`
	}

	MembershipCount struct {
		Member  core.FlexInt `json:"member"`
		Sabbath core.FlexInt `json:"sabbath"`
		Visitor core.FlexInt `json:"visitor"`
	}

	QueryFilter struct {
		Search   string
		Ordering []core.Ordering
	}
)

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.FirstName = core.CleanName(nm.FirstName)
	nm.MiddleName = core.CleanName(nm.MiddleName)
	nm.LastName = core.CleanName(nm.LastName)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	nm.PhoneNumber = core.CleanPhone(nm.PhoneNumber)
	nm.MembershipNumber = core.CleanString(nm.MembershipNumber)
	return validate.Struct(nm)
}

func (um *UpdateMember) Validate(validate *validator.Validate) error {
	return (*NewMember)(um).Validate(validate)
}

func (m Member) FullName() string {
	return core.CleanName(strings.Join([]string{m.FirstName, m.MiddleName, m.LastName}, " "))
}

// NewQueryFilter reads the ordering expression ("last_name,-first_name").
func NewQueryFilter(search, ordering string) QueryFilter {
	return QueryFilter{
		Search:   search,
		Ordering: core.ParseOrderings(ordering, orderingFields...),
	}
}

// Apply returns the members matching f.Search, ordered by f.Ordering.
// Search matches names, email, phone and membership number.
func (f QueryFilter) Apply(members []Member) []Member {
	term := core.CleanString(f.Search, true /* lower */)
	filtered := make([]Member, 0, len(members))
	for _, m := range members {
		if term == "" || matches(m, term) {
			filtered = append(filtered, m)
		}
	}
	if len(f.Ordering) > 0 {
		sort.SliceStable(filtered, func(i, j int) bool {
			return less(filtered[i], filtered[j], f.Ordering)
		})
	}
	return filtered
}

func matches(m Member, term string) bool {
	for _, field := range []string{m.FirstName, m.MiddleName, m.LastName, m.Email, m.PhoneNumber, string(m.MembershipNumber)} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func less(a, b Member, ords []core.Ordering) bool {
	for _, ord := range ords {
		va, vb := sortValue(a, ord.Field), sortValue(b, ord.Field)
		if va == vb {
			continue
		}
		if ord.Ascending {
			return va < vb
		}
		return va > vb
	}
	return false
}

func sortValue(m Member, field string) string {
	switch field {
	case "first_name":
		return strings.ToLower(m.FirstName)
	case "last_name":
		return strings.ToLower(m.LastName)
	case "membership_number":
		// left pad so that numeric membership numbers sort numerically
		n := string(m.MembershipNumber)
		if len(n) < 20 {
			n = strings.Repeat("0", 20-len(n)) + n
		}
		return strings.ToLower(n)
	}
	return ""
}
