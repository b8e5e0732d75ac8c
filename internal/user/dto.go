package user

type RoleSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Global bool   `json:"global"`
}

// Profile is the GET /users/me body.
type Profile struct {
	*User
	Roles       []RoleSummary `json:"roles"`
	Permissions []string      `json:"permissions"`
}
