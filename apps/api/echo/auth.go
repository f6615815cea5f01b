package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/user"
)

const (
	audience        = "caseboard"
	contextClaimKey = "claims"
	tokenQueryParam = "token"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	Name         string `json:"name"`
}

// Identity returns who the claims were issued to.
func (c Claims) Identity() user.Identity {
	return user.Identity{Username: c.Username, Role: c.Role, Name: c.Name}
}

// GetUserClaims returns fresh claims for id. origIat keeps the original issue time across refreshes.
func GetUserClaims(conf *core.Config, id user.Identity, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   id.Username,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Username:     id.Username,
		Role:         id.Role,
		Name:         id.Name,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies a signed token and returns its claims.
func ParseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Username == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(ctx echo.Context, allowQuery bool) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if token := strings.TrimSpace(parts[1]); token != "" {
			return token
		}
	}
	if allowQuery {
		return ctx.QueryParam(tokenQueryParam)
	}
	return ""
}

// authMiddleware requires a valid bearer token and stores its claims on the context.
// A missing token is 401, an invalid or expired one is 403.
func authMiddleware(conf *core.Config, allowQuery bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr := bearerToken(ctx, allowQuery)
			if tokenStr == "" {
				return errUnauthorized
			}
			claims, err := ParseToken(conf, tokenStr)
			if err != nil {
				ctx.Logger().Debugf("rejecting token: %v", err)
				return errInvalidToken
			}
			ctx.Set(contextClaimKey, *claims)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextIdentity(ctx echo.Context) (user.Identity, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Identity{}, err
	}
	return claims.Identity(), nil
}

func refreshToken(ctx echo.Context, conf *core.Config, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// the user must still exist
	usr, err := svc.GetByUsername(ctx.Request().Context(), claims.Username)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", errInvalidToken
		}
		return "", errors.Wrap(err, "finding user by username")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.JWTRefreshExpirationDelta)
	if core.NowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetUserClaims(conf, usr.Identity(), claims.OrigIssuedAt)
	token, err := GenerateToken(conf, newClaims)
	return token, errors.Wrap(err, "generating token")
}
