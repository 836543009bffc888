package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"notemate/model"
	"notemate/services"
	"notemate/usecase"
	"notemate/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ActorKey  = "actor"
	ClaimsKey = "claims"
)

type TokenParser interface {
	Parse(tokenString string) (*services.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, id primitive.ObjectID) (*model.Actor, error)
}

// Auth resolves the bearer token on a request into the calling actor.
type Auth struct {
	Tokens    TokenParser
	Blacklist RevocationChecker
	Users     Authenticator
}

func NewAuth(tokens TokenParser, blacklist RevocationChecker, users Authenticator) *Auth {
	return &Auth{Tokens: tokens, Blacklist: blacklist, Users: users}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// resolve returns the actor and claims for token, or the status and message
// to reject the request with.
func (a *Auth) resolve(c *gin.Context, token string) (*model.Actor, *services.Claims, int, string) {
	claims, err := a.Tokens.Parse(token)
	if err != nil {
		utils.TrackAuthAttempt("failure", "token")
		return nil, nil, http.StatusUnauthorized, "Not authorized, token failed"
	}

	ctx := c.Request.Context()
	if a.Blacklist != nil {
		revoked, err := a.Blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("blacklist lookup failed")
			return nil, nil, http.StatusInternalServerError, "Server error"
		}
		if revoked {
			utils.TrackAuthAttempt("failure", "revoked")
			return nil, nil, http.StatusUnauthorized, "Token has been revoked"
		}
	}

	actor, err := a.Users.Authenticate(ctx, claims.ObjectID())
	if err != nil {
		if ue, ok := usecase.AsError(err); ok {
			return nil, nil, http.StatusUnauthorized, ue.Message
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("user lookup failed")
		return nil, nil, http.StatusInternalServerError, "Server error"
	}
	return actor, claims, 0, ""
}

func setActor(c *gin.Context, actor *model.Actor, claims *services.Claims) {
	c.Set(ActorKey, actor)
	c.Set(ClaimsKey, claims)
	logger := zerolog.Ctx(c.Request.Context()).With().Str("user_id", actor.ID.Hex()).Logger()
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
}

// Protect rejects requests without a valid, unrevoked token for an active user.
func (a *Auth) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.Abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		actor, claims, status, msg := a.resolve(c, token)
		if actor == nil {
			utils.Abort(c, status, msg)
			return
		}
		setActor(c, actor, claims)
		c.Next()
	}
}

// Optional attaches the actor when a usable token is present and otherwise
// lets the request through anonymously.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if actor, claims, _, _ := a.resolve(c, token); actor != nil {
				setActor(c, actor, claims)
			}
		}
		c.Next()
	}
}

// RequireRole must run after Protect.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor == nil {
			utils.Abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		utils.Abort(c, http.StatusForbidden, fmt.Sprintf("User role %s is not authorized to access this route", actor.Role))
	}
}

func ActorFrom(c *gin.Context) *model.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(*model.Actor); ok {
			return actor
		}
	}
	return nil
}

func ClaimsFrom(c *gin.Context) *services.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*services.Claims); ok {
			return claims
		}
	}
	return nil
}
