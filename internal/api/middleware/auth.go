package middleware

import (
	"errors"
	"net/http"

	"trip-planner/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTAuth configures Echo's JWT middleware. Tokens are issued by the identity
// provider and signed with jwtSecretKey (HS256).
func JWTAuth(jwtSecretKey string) echo.MiddlewareFunc {
	config := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.JwtCustomClaims)
		},
		SigningKey:    []byte(jwtSecretKey),
		SigningMethod: echojwt.AlgorithmHS256,

		// The claims are copied into the context so handlers only see the user id.
		SuccessHandler: func(c echo.Context) {
			userToken := c.Get("user").(*jwt.Token)
			claims := userToken.Claims.(*models.JwtCustomClaims)

			c.Set("userID", claims.UserID)
			c.Set("userEmail", claims.Email)
			c.Logger().Debugf("JWT auth successful for user: %s", claims.UserID)
		},

		ErrorHandler: func(c echo.Context, err error) error {
			c.Logger().Warnf("JWT error: %v", err)

			message := "Invalid or expired JWT"
			switch {
			case errors.Is(err, echojwt.ErrJWTMissing):
				message = "Missing or malformed JWT"
			case errors.Is(err, jwt.ErrTokenMalformed):
				message = "Token is malformed"
			case errors.Is(err, jwt.ErrTokenExpired):
				message = "Token has expired"
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				message = "Invalid token signature"
			}
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Kind: "unauthenticated", Message: message})
		},
	}
	return echojwt.WithConfig(config)
}

// RequireUser rejects tokens that verified but carry no user id.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, _ := c.Get("userID").(string); id == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Kind: "unauthenticated", Message: "Token has no user id"})
			}
			return next(c)
		}
	}
}
