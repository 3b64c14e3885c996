// Package session encodes the authenticated-identity descriptor carried
// by the admin session cookie. The cookie value is an HS256-signed JWT,
// so the descriptor is tamper-evident: a forged or edited cookie fails
// signature verification and decodes as unauthenticated. There is no
// server-side session table; the cookie is the only session state.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"research-cms-server/internal/models"
)

const CookieName = "admin_session"

var ErrInvalidSession = errors.New("invalid session")

// Descriptor is the minimal identity payload carried by the cookie.
type Descriptor struct {
	UserID int64
	Role   models.Role
}

type claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewCodec(secret string, ttl time.Duration, secure bool) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, secure: secure}
}

// Encode signs a descriptor into a cookie value.
func (c *Codec) Encode(desc Descriptor) (string, error) {
	now := time.Now()
	cl := claims{
		UserID: desc.UserID,
		Role:   desc.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return token.SignedString(c.secret)
}

// Decode verifies the signature and expiry of a cookie value and
// returns the descriptor it carries. Any malformed, tampered, or
// expired value yields ErrInvalidSession; a garbage cookie is an
// expected adversarial case, not a server error.
func (c *Codec) Decode(value string) (Descriptor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Descriptor{}, ErrInvalidSession
	}

	parsed, err := jwt.ParseWithClaims(value, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSession
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Descriptor{}, ErrInvalidSession
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok {
		return Descriptor{}, ErrInvalidSession
	}

	role, err := models.ParseRole(cl.Role)
	if err != nil {
		return Descriptor{}, ErrInvalidSession
	}

	return Descriptor{UserID: cl.UserID, Role: role}, nil
}

// SetCookie attaches a freshly encoded session to the response.
func (c *Codec) SetCookie(g *gin.Context, value string) {
	g.SetSameSite(http.SameSiteLaxMode)
	g.SetCookie(CookieName, value, int(c.ttl.Seconds()), "/", "", c.secure, true)
}

// ClearCookie overwrites the session cookie with an empty, already
// expired value using the same name, path, and flags, so the browser
// discards it. Safe to call whether or not a cookie was present.
func (c *Codec) ClearCookie(g *gin.Context) {
	g.SetSameSite(http.SameSiteLaxMode)
	g.SetCookie(CookieName, "", -1, "/", "", c.secure, true)
}

// FromRequest decodes the session cookie on an incoming request.
func (c *Codec) FromRequest(g *gin.Context) (Descriptor, error) {
	value, err := g.Cookie(CookieName)
	if err != nil {
		return Descriptor{}, ErrInvalidSession
	}
	return c.Decode(value)
}
