package everrest

import (
	"context"
	"net/http"
)

// SignUpRequest is the registration payload accepted by /auth/sign_up.
type SignUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Zipcode   string `json:"zipcode"`
	Avatar    string `json:"avatar,omitempty"`
	Gender    string `json:"gender"`
}

// Tokens is the /auth/sign_in answer.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// User is the profile returned by /auth.
type User struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Age       int    `json:"age,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Verified  bool   `json:"verified"`
	CartID    string `json:"cartID,omitempty"`
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	var out User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/sign_up", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn exchanges credentials for an access token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	body := map[string]string{"email": email, "password": password}
	var out Tokens
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/sign_in", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser returns the profile of the bearer token's owner.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
