package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// authMiddleware verifies bearer tokens minted by the external auth service
// and places the subject user ID in the request context.
func (s *Server) authMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			userID, err := s.verifyToken(tokenString)
			if err != nil {
				s.logger.Warn("Invalid token", "error", err, "ip", c.RealIP())
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set("user", userID)

			return next(c)
		}
	}
}

// verifyToken parses and validates an HMAC-signed JWT, returning its subject.
func (s *Server) verifyToken(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.config.Auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Auth.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.Auth.JWTSecret), nil
	}, opts...)
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}

// sweepGuard protects the internal sweep endpoints with a shared secret
// carried in the X-Sweep-Secret header.
func (s *Server) sweepGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.config.Sweep.Secret == "" {
				return echo.NewHTTPError(http.StatusForbidden, "Sweep endpoints are disabled")
			}

			provided := c.Request().Header.Get("X-Sweep-Secret")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(s.config.Sweep.Secret)) != 1 {
				s.logger.Warn("Sweep trigger rejected", "ip", c.RealIP())
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid sweep secret")
			}

			return next(c)
		}
	}
}
