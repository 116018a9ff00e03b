package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/tournament-scheduler/models"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

// GetUserIDFromContext returns the account id of the caller. Numeric ids
// issued by older clients are accepted and rendered as strings.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context or invalid type")
	}
	return userIDClaim(claims)
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context or invalid type")
	}
	return roleClaim(claims)
}

// ActorFromContext builds the service-level actor from the verified claims.
func ActorFromContext(ctx context.Context) (models.Actor, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errors.New("user claims not found in context or invalid type")
	}
	return actorFromClaims(claims)
}

// WithActor stores actor as if it came from a verified token.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, userContextKey, jwt.MapClaims{
		jwtClaimUserID: actor.UserID,
		jwtClaimRole:   string(actor.Role),
	})
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	id, err := userIDClaim(claims)
	if err != nil {
		return models.Actor{}, err
	}
	role, err := roleClaim(claims)
	if err != nil {
		return models.Actor{}, err
	}
	return models.Actor{UserID: id, Role: role}, nil
}

func userIDClaim(claims jwt.MapClaims) (string, error) {
	raw, ok := claims[jwtClaimUserID]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("empty '%s' claim in token", jwtClaimUserID)
		}
		return v, nil
	case float64:
		if v != float64(int64(v)) || v <= 0 {
			return "", fmt.Errorf("invalid user ID value in '%s' claim: %v", jwtClaimUserID, v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	default:
		return "", fmt.Errorf("invalid type for '%s' claim: expected string or number, got %T", jwtClaimUserID, raw)
	}
}

func roleClaim(claims jwt.MapClaims) (models.UserRole, error) {
	raw, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, raw)
	}
	role := models.UserRole(s)
	if !role.Valid() {
		return "", fmt.Errorf("invalid role value in claim: %q", s)
	}
	return role, nil
}
