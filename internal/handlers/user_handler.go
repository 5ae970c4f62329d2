package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func SignUp(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		profile, err := u.Register(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(profile, "account created"))
	}
}

func sessionBody(s *models.Session) gin.H {
	return gin.H{
		"user_id":       s.UserID,
		"email":         s.Email,
		"expires_in":    s.ExpiresIn,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}

// SignIn sets the session cookies and also returns the tokens for clients
// that send them as a Bearer header.
func SignIn(u *services.UserService, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		session, err := u.SignIn(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeError(c, err)
			return
		}

		helpers.SetSessionCookies(c, session, secureCookie)
		c.JSON(http.StatusOK, models.SuccessResponse(sessionBody(session), "signed in"))
	}
}

func Refresh(u *services.UserService, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&req)
		if req.RefreshToken == "" {
			req.RefreshToken, _ = c.Cookie(helpers.RefreshTokenCookie)
		}

		session, err := u.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			writeError(c, err)
			return
		}

		helpers.SetSessionCookies(c, session, secureCookie)
		c.JSON(http.StatusOK, models.SuccessResponse(sessionBody(session), "session refreshed"))
	}
}

// Logout revokes the session when one is presented and always clears the
// cookies.
func Logout(u *services.UserService, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(helpers.AccessTokenCookie)
		if claims := helpers.CurrentClaims(c); claims != nil {
			token = claims.AccessToken
		}

		if err := u.SignOut(c.Request.Context(), token); err != nil {
			_ = c.Error(err)
		}
		helpers.ClearSessionCookies(c, secureCookie)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}

func GetProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := u.GetProfile(c.Request.Context(), helpers.CurrentPrincipal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, ""))
	}
}

func UpdateProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.ProfilePatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err)
			return
		}

		profile, err := u.UpdateProfile(c.Request.Context(), helpers.CurrentPrincipal(c), patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(profile, "profile updated"))
	}
}
