package access

// Permission names granted through roles by the church API.
const (
	CanViewUsers  = "can_view_users"
	CanCreateUser = "can_create_user"
	CanEditUser   = "can_edit_user"

	CanViewMembershipTypes = "can_view_membershiptypes"

	CanViewPrayercells  = "can_view_prayercells"
	CanCreatePrayercell = "can_create_prayercell"
	CanEditPrayercell   = "can_edit_prayercell"
	CanViewGroups       = "can_view_groups"
	CanCreateGroup      = "can_create_group"
	CanEditGroup        = "can_edit_group"

	CanViewContributions  = "can_view_contributions"
	CanCreateContribution = "can_create_contribution"
	CanEditContribution   = "can_edit_contribution"
	CanViewCategories     = "can_view_categories"
	CanCreateCategory     = "can_create_category"
	CanEditCategory       = "can_edit_category"

	CanViewRoles  = "can_view_roles"
	CanCreateRole = "can_create_role"
	CanEditRole   = "can_edit_role"
)
