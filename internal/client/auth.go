package client

import (
	"context"
	"net/http"
	"strings"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/ids"
)

// Authenticated is the result of a successful login or signup.
type Authenticated struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupParams are the caller-supplied signup fields. Role is optional and
// defaults to USER.
type SignupParams struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role,omitempty"`
}

// Login authenticates against the backend. With no backend reachable it falls
// back to the built-in demo accounts and, failing those, mints a throwaway
// USER identity from the email's local part. Offline login therefore always
// succeeds; it is a demo mode, not a security mechanism. The resulting
// session is established and persisted either way.
func (c *Client) Login(ctx context.Context, email, password string) (Authenticated, error) {
	out, err := attempt(ctx, c, "login",
		func() (Authenticated, error) {
			var out Authenticated
			err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, loginPayload{Email: email, Password: password}, &out)
			return out, err
		},
		func() (Authenticated, error) {
			if u, ok := auth.DemoUserByEmail(email); ok && password == auth.DemoPassword {
				return Authenticated{Token: "local-" + u.ID, User: u}, nil
			}
			u := synthesizeUser(email, "", auth.RoleUser)
			return Authenticated{Token: "local-" + u.ID, User: u}, nil
		})
	if err != nil {
		return Authenticated{}, err
	}
	c.session.Establish(out.Token, out.User)
	return out, nil
}

// Signup registers a new account. The offline fallback mints a local identity
// the same way login does, keeping the caller's name and role.
func (c *Client) Signup(ctx context.Context, p SignupParams) (Authenticated, error) {
	out, err := attempt(ctx, c, "signup",
		func() (Authenticated, error) {
			var out Authenticated
			err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", nil, p, &out)
			return out, err
		},
		func() (Authenticated, error) {
			role := p.Role
			if role == "" {
				role = auth.RoleUser
			}
			u := synthesizeUser(p.Email, p.Name, role)
			return Authenticated{Token: "local-" + u.ID, User: u}, nil
		})
	if err != nil {
		return Authenticated{}, err
	}
	c.session.Establish(out.Token, out.User)
	return out, nil
}

// CurrentUser returns the authenticated identity, preferring the backend's
// answer and falling back to the persisted session.
func (c *Client) CurrentUser(ctx context.Context) (auth.User, error) {
	return attempt(ctx, c, "current_user",
		func() (auth.User, error) {
			var out auth.User
			err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out)
			return out, err
		},
		func() (auth.User, error) {
			sess := c.session.Current()
			if sess.Anonymous() {
				return auth.User{}, auth.ErrUnauthorized
			}
			return sess.User, nil
		})
}

// Logout clears and broadcasts the session. Purely local: the token is
// stateless on the server side.
func (c *Client) Logout() {
	c.session.Clear()
}

// synthesizeUser builds a locally-scoped identity for offline login and
// signup. The display name defaults to the email's local part.
func synthesizeUser(email, name string, role auth.Role) auth.User {
	if name == "" {
		name = email
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}
	}
	return auth.User{
		ID:    ids.New(),
		Email: email,
		Name:  name,
		Role:  role,
	}
}
