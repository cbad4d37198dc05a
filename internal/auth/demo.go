package auth

// DemoPassword is the shared password of the built-in demo accounts. The demo
// accounts exist so the system stays usable with no backend and no signup;
// they are not a security mechanism.
const DemoPassword = "password"

// DemoUsers returns the fixed demo accounts, one per role.
func DemoUsers() []User {
	return []User{
		{ID: "1", Email: "user@careconnect.com", Name: "Demo User", Role: RoleUser},
		{ID: "2", Email: "admin@careconnect.com", Name: "Admin User", Role: RoleAdmin},
		{ID: "3", Email: "coord@careconnect.com", Name: "Coordinator", Role: RoleCoordinator},
	}
}

// DemoUserByEmail looks up a demo account by email. The boolean is false when
// the email is not one of the demo accounts.
func DemoUserByEmail(email string) (User, bool) {
	for _, u := range DemoUsers() {
		if normalizeEmail(u.Email) == normalizeEmail(email) {
			return u, true
		}
	}
	return User{}, false
}
