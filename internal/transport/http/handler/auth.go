package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hr-assistant/internal/app"
	"hr-assistant/internal/authsession"
	"hr-assistant/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type StageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Screen    string `json:"screen" binding:"required,oneof=register signin forgot"`
}

type CredentialsRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Email     string `json:"email" binding:"required,email,max=128"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

type OTPRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Code      string `json:"code" binding:"required,len=6"`
}

type ForgotRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Email     string `json:"email" binding:"required,email,max=128"`
}

type BeginResetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Token     string `json:"token" binding:"required"`
}

type CompleteResetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	Confirm   string `json:"confirm" binding:"required"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// StartSession opens a fresh anonymous auth session.
func (h *AuthHandler) StartSession(c *gin.Context) {
	session, err := h.authService.StartSession()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "start session failed")
		return
	}
	response.OK(c, sessionView(session))
}

// GetSession reports the current stage so the client can render the right screen.
func (h *AuthHandler) GetSession(c *gin.Context) {
	session, err := h.authService.Session(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get session failed")
		return
	}
	response.OK(c, sessionView(session))
}

// Navigate moves between the anonymous screens (register / signin / forgot).
func (h *AuthHandler) Navigate(c *gin.Context) {
	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	var session *authsession.Session
	var err error
	switch req.Screen {
	case "register":
		session, err = h.authService.ChooseRegister(req.SessionID)
	case "signin":
		session, err = h.authService.ChooseSignIn(req.SessionID)
	case "forgot":
		session, err = h.authService.ChooseForgot(req.SessionID)
	}
	if err != nil {
		h.respondError(c, err, "navigation failed")
		return
	}
	response.OK(c, sessionView(session))
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req.SessionID, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "register failed")
		return
	}
	response.OK(c, gin.H{
		"session": sessionView(session),
		"message": "Registration successful! Please proceed to Sign In.",
	})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.authService.SignIn(c.Request.Context(), req.SessionID, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "sign in failed")
		return
	}
	response.OK(c, gin.H{
		"session": sessionView(session),
		"message": "A verification code has been sent to " + req.Email + ".",
	})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	token, err := h.authService.VerifyOTP(c.Request.Context(), req.SessionID, req.Code)
	if err != nil {
		h.respondError(c, err, "verify otp failed")
		return
	}
	response.OK(c, gin.H{"token": token})
}

// Forgot always answers with the same generic message, so the response never
// reveals whether the address is registered.
func (h *AuthHandler) Forgot(c *gin.Context) {
	var req ForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.authService.RequestReset(c.Request.Context(), req.SessionID, req.Email); err != nil {
		h.respondError(c, err, "reset request failed")
		return
	}
	response.OK(c, gin.H{
		"message": "If this email is registered, a reset link has been sent.",
	})
}

func (h *AuthHandler) BeginReset(c *gin.Context) {
	var req BeginResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.authService.BeginReset(req.SessionID, req.Token)
	if err != nil {
		h.respondError(c, err, "begin reset failed")
		return
	}
	response.OK(c, sessionView(session))
}

func (h *AuthHandler) CompleteReset(c *gin.Context) {
	var req CompleteResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.authService.CompleteReset(c.Request.Context(), req.SessionID, req.Password, req.Confirm)
	if err != nil {
		h.respondError(c, err, "reset password failed")
		return
	}
	response.OK(c, gin.H{
		"session": sessionView(session),
		"message": "Your password has been reset successfully! Please sign in.",
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.SessionID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "logout failed")
		return
	}
	response.OK(c, gin.H{"logged_out": true})
}

func (h *AuthHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailExists):
		response.Error(c, http.StatusBadRequest, response.CodeEmailExists, err.Error())
	case errors.Is(err, app.ErrInvalidStage):
		response.Error(c, http.StatusBadRequest, response.CodeWrongStage, err.Error())
	case errors.Is(err, app.ErrPasswordMismatch):
		response.Error(c, http.StatusBadRequest, response.CodePasswordMismatch, err.Error())
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, app.ErrWrongOTP):
		response.Error(c, http.StatusUnauthorized, response.CodeWrongOTP, err.Error())
	case errors.Is(err, app.ErrResetInvalid):
		response.Error(c, http.StatusUnauthorized, response.CodeResetInvalid, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrMailSend):
		response.Error(c, http.StatusServiceUnavailable, response.CodeMailUnavailable, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func sessionView(session *authsession.Session) gin.H {
	return gin.H{
		"id":    session.ID,
		"stage": session.Stage,
	}
}
