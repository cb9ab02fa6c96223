package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/google/uuid"
    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
)

// userIDKey is the Echo context key the authenticated user's UUID is
// stored under.
const userIDKey = "user_id"

// ErrNoUser is returned by CurrentUserID when no authenticated user
// is present in the context.
var ErrNoUser = errors.New("no authenticated user in context")

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's subject into the request context as a
// uuid.UUID.  Tokens are issued by the external identity provider;
// this service only verifies the HS256 signature with the shared
// secret and requires the subject to be a UUID.  Handlers read the
// identity back via CurrentUserID.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret; any other signing
            // method is rejected.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            sub, _ := claims["sub"].(string)
            userID, err := uuid.Parse(sub)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
            }

            c.Set(userIDKey, userID)
            return next(c)
        }
    }
}

// CurrentUserID extracts the authenticated user's UUID previously
// stored by JWTAuth.  It returns ErrNoUser when the middleware did not
// run or rejected the request.
func CurrentUserID(c echo.Context) (uuid.UUID, error) {
    if v, ok := c.Get(userIDKey).(uuid.UUID); ok && v != uuid.Nil {
        return v, nil
    }
    return uuid.Nil, ErrNoUser
}
