package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleAnalyst    = "analyst"
	RoleSuperAdmin = "super_admin"
)

// FeedReaders may read the activity feed.
var FeedReaders = []string{RoleOwner, RoleAnalyst}

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
