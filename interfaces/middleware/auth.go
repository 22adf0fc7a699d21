package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"blog-social/domain/dto"
	"blog-social/domain/model"
	"blog-social/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// Auth verifies the bearer token issued by the identity service and stores the
// caller's id under "user_id".
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		authorization := ctx.Request.Header.Get("Authorization")
		token, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || token == "" || secretKey == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		userClaims, err := getClaim(token, secretKey)
		if err != nil {
			res.ResponseMessage = rejectReason(err)
			logger.GetLogger().WithField("error", err).Debug("Rejected bearer token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		userID := userClaims.UserID()
		if userID == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		ctx.Set("user_id", userID)
		ctx.Next()
	}
}

func rejectReason(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			// Token is either expired or not active yet
			return "Timing is everything"
		}
	}
	return fmt.Sprintf("Couldn't handle this token:%v", err)
}

func getClaim(raw, secretKey string) (model.UserClaims, error) {
	var userClaims model.UserClaims
	token, err := jwt.ParseWithClaims(raw, &userClaims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return userClaims, err
	}
	if !token.Valid {
		return userClaims, errors.New("token is not valid")
	}
	return userClaims, nil
}
