// Package jwt signs and validates the RS256 access tokens of the Eternal AI
// API.
//
// Tokens are built on github.com/golang-jwt/jwt/v5. The private key signs,
// the public key validates; a service loaded with only a public key can
// validate but not sign.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "api.eternal-ai.app",
//	    ExpirationMins: 15,
//	})
//	token, err := svc.Sign(jwt.Claims{UserID: uid, Email: email})
//	claims, err := svc.Validate(token)
//
// Validation failures are reported as ErrTokenExpired, ErrTokenNotYetValid,
// ErrInvalidSignature or ErrInvalidToken.
package jwt
