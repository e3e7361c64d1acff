package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

func (h *Handler) setTokenCookie(ctx *gin.Context, value string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.TokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	user, err := h.accounts.Register(ctx.Request.Context(), services.RegisterInput{
		Email:     body.Email,
		Username:  body.Username,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Password:  body.Password,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created, verification email sent",
		"user":    types.NewUserResponse(user),
	})
}

func (h *Handler) VerifyEmail(ctx *gin.Context) {
	if _, err := h.accounts.VerifyEmail(ctx.Request.Context(), ctx.Param("token")); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *Handler) ObtainToken(ctx *gin.Context) {
	var body TokenRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	pair, err := h.accounts.ObtainToken(ctx.Request.Context(), body.Email, body.Password)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, pair.Access, h.cookie.MaxAge)

	ctx.JSON(http.StatusOK, pair)
}

func (h *Handler) RefreshToken(ctx *gin.Context) {
	var body RefreshRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || body.Refresh == "" {
		invalidRequest(ctx)
		return
	}

	access, err := h.accounts.RefreshToken(ctx.Request.Context(), body.Refresh)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.setTokenCookie(ctx, access, h.cookie.MaxAge)

	ctx.JSON(http.StatusOK, gin.H{"access": access})
}

func (h *Handler) Me(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": types.NewUserResponse(user)})
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) DeleteMe(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body DeleteAccountRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	if err := h.accounts.DeleteAccount(ctx.Request.Context(), userID, body.Password); err != nil {
		respondError(ctx, err)
		return
	}

	h.hub.DisconnectUser(userID)

	h.setTokenCookie(ctx, "", -1)

	ctx.Status(http.StatusNoContent)
}
