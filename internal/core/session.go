package core

const (
	UserEmployee UserType = "Employee"
	UserAdmin    UserType = "Admin"
)

type UserType string

// Session is the signed-in user's identity. It is read once per request and
// handed to the workflows that need it.
type Session struct {
	Type  UserType `json:"type"`
	Email string   `json:"email"`
}

func (s Session) IsEmployee() bool {
	return s.Type == UserEmployee
}

func (s Session) Valid() bool {
	switch s.Type {
	case UserEmployee, UserAdmin:
	default:
		return false
	}
	return IsUserEmail(s.Email)
}
