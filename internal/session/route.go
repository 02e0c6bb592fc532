package session

// Destination is the post-login landing view.
type Destination int

const (
	// DestinationUserDashboard is the landing view for standard users.
	DestinationUserDashboard Destination = iota
	// DestinationAdminDashboard is the landing view for administrators.
	DestinationAdminDashboard
)

// Path returns the dashboard path on the web frontend.
func (d Destination) Path() string {
	if d == DestinationAdminDashboard {
		return "/admin"
	}
	return "/dashboard"
}

func (d Destination) String() string {
	if d == DestinationAdminDashboard {
		return "admin dashboard"
	}
	return "user dashboard"
}

// RouteFor picks the landing view for a resolved identity. Selection is by
// the role flag alone; navigation is the caller's job.
func RouteFor(user CurrentUser) Destination {
	if user.IsAdmin {
		return DestinationAdminDashboard
	}
	return DestinationUserDashboard
}
