package models

import "strings"

// Profile is the application-side record of a signed-in identity.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     Role   `json:"role"`
}

// DefaultProfile stands in when the profile row cannot be read. It never
// grants privilege.
func DefaultProfile(id, email string) *Profile {
	return &Profile{ID: id, Email: email, Role: RoleUser}
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Initials is the avatar text: the first letter of each name part, or
// the first letter of the email.
func (p *Profile) Initials() string {
	if p == nil {
		return "?"
	}
	if parts := strings.Fields(p.FullName); len(parts) > 0 {
		var b strings.Builder
		for _, part := range parts {
			b.WriteString(strings.ToUpper(string([]rune(part)[:1])))
		}
		return b.String()
	}
	if p.Email != "" {
		return strings.ToUpper(string([]rune(p.Email)[:1]))
	}
	return "?"
}
