package model

import "github.com/golang-jwt/jwt"

// UserClaims is the JWT payload issued by the identity collaborator
type UserClaims struct {
	UserName string `json:"user_name"`
	jwt.StandardClaims
}

// UserID resolves the local user identity carried by the token.
func (c UserClaims) UserID() string {
	switch {
	case c.Issuer != "":
		return c.Issuer
	case c.Subject != "":
		return c.Subject
	default:
		return c.UserName
	}
}
