package session

// CurrentUser is the identity record returned by the service's /auth/me
// endpoint. It is only ever built from a successful response; the client
// never synthesizes one. Profile fields past IsAdmin are optional and may
// be absent depending on the backend deployment.
type CurrentUser struct {
	UserID    int64   `json:"user_id"`
	Username  string  `json:"username"`
	IsAdmin   bool    `json:"is_admin"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	BirthDate string  `json:"birth_date,omitempty"`
	Gender    string  `json:"gender,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
}

// DisplayName returns the profile name when present, the username otherwise.
func (u CurrentUser) DisplayName() string {
	if u.FirstName != "" || u.LastName != "" {
		if u.FirstName == "" {
			return u.LastName
		}
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
