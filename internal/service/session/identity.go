package session

import (
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// ErrInvalidToken is returned for provider tokens that fail verification.
var ErrInvalidToken = errors.New("invalid identity token")

// Claims is the identity provider's access token payload.
type Claims struct {
	jwt.RegisteredClaims
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	UserMetadata  map[string]any `json:"user_metadata,omitempty"`
}

// Verifier checks HS256 tokens signed with the provider's shared secret.
type Verifier struct {
	secret     []byte
	adminEmail string
}

func NewVerifier(secret, adminEmail string) *Verifier {
	return &Verifier{secret: []byte(secret), adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
}

// Verify parses token and returns the asserted user.
func (v *Verifier) Verify(token string) (domain.User, error) {
	if len(v.secret) == 0 {
		return domain.User{}, errors.Wrap(ErrInvalidToken, "no signing secret configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.User{}, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.Subject == "" {
		return domain.User{}, errors.Wrap(ErrInvalidToken, "missing subject")
	}
	email := strings.TrimSpace(claims.Email)
	verified := claims.EmailVerified
	if b, ok := claims.UserMetadata["email_verified"].(bool); ok && b {
		verified = true
	}
	return domain.User{
		ID:            claims.Subject,
		Email:         email,
		DisplayName:   displayName(claims.UserMetadata, email),
		EmailVerified: verified,
		IsAdmin:       v.IsAdmin(email),
	}, nil
}

// IsAdmin reports whether email is the configured administrator address.
func (v *Verifier) IsAdmin(email string) bool {
	return v.adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), v.adminEmail)
}

func displayName(meta map[string]any, email string) string {
	for _, key := range []string{"full_name", "name", "display_name"} {
		if s, ok := meta[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
