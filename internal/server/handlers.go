package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	accountdomain "mymarket/backend/internal/account/domain"
	"mymarket/backend/internal/audit"
	identityservice "mymarket/backend/internal/identity/service"
	"mymarket/backend/internal/otp"
	"mymarket/backend/internal/security"
	"mymarket/backend/internal/verification"
)

// Pinger is the readiness probe dependency, satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler exposes the lifecycle service over HTTP.
type Handler struct {
	svc   *identityservice.LifecycleService
	db    Pinger
	audit audit.AuditLogger
}

// NewHandler returns a Handler for the given service. db may be nil; the
// health endpoint then skips the database probe. auditor may be nil; events
// are then not recorded.
func NewHandler(svc *identityservice.LifecycleService, db Pinger, auditor audit.AuditLogger) *Handler {
	return &Handler{svc: svc, db: db, audit: auditor}
}

func (h *Handler) logEvent(c *gin.Context, accountID, action, resource, metadata string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(c.Request.Context(), accountID, action, resource, metadata)
}

type registerRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

type registerResponse struct {
	AccountID string `json:"account_id"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type sessionResponse struct {
	AccountID    string    `json:"account_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type resendVerificationRequest struct {
	Email string `json:"email" binding:"required"`
}

type otpConfirmRequest struct {
	Code string `json:"code" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type changeEmailRequest struct {
	Password string `json:"password" binding:"required"`
	NewEmail string `json:"new_email" binding:"required"`
}

type auditEvent struct {
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Health reports liveness and, when a database is wired, readiness.
func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Register creates an account and triggers verification mail.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	role := accountdomain.Role(req.Role)
	if role == "" {
		role = accountdomain.RoleBuyer
	}
	res, err := h.svc.Register(c.Request.Context(), identityservice.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.logEvent(c, res.AccountID, audit.ActionRegister, "account", "")
	c.JSON(http.StatusCreated, registerResponse{AccountID: res.AccountID})
}

// Login authenticates and returns a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess, err := h.svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logEvent(c, "", audit.ActionLoginFailure, "session", "email="+req.Email)
		writeError(c, err)
		return
	}
	h.logEvent(c, sess.AccountID, audit.ActionLoginSuccess, "session", "")
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Refresh exchanges a refresh token for a fresh token pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess, err := h.svc.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logEvent(c, sess.AccountID, audit.ActionRefresh, "session", "")
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

// ConfirmVerification redeems a verification token. Public: the caller may
// not have a session yet.
func (h *Handler) ConfirmVerification(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	accountID, err := h.svc.ConfirmVerification(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logEvent(c, accountID, audit.ActionVerify, "account", "")
	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "status": "verified"})
}

// RequestVerification re-issues a verification token for the given email.
// Public: unverified accounts cannot log in, so no session can be required
// here. Unknown emails get the same acknowledgement so the endpoint does not
// reveal which addresses are registered.
func (h *Handler) RequestVerification(c *gin.Context) {
	var req resendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := h.svc.RequestVerificationByEmail(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, identityservice.ErrAccountNotFound) {
			c.JSON(http.StatusAccepted, gin.H{"status": "verification sent"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "verification sent"})
}

// RequestOTP issues a one-time password for the caller.
func (h *Handler) RequestOTP(c *gin.Context) {
	accountID, ok := AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
		return
	}
	_, expiresAt, err := h.svc.RequestOTP(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logEvent(c, accountID, audit.ActionOTPRequest, "credential", "")
	c.JSON(http.StatusAccepted, gin.H{"status": "code sent", "expires_at": expiresAt})
}

// ConfirmOTP validates the caller's one-time password.
func (h *Handler) ConfirmOTP(c *gin.Context) {
	accountID, ok := AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
		return
	}
	var req otpConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.ConfirmOTP(c.Request.Context(), accountID, req.Code); err != nil {
		writeError(c, err)
		return
	}
	h.logEvent(c, accountID, audit.ActionOTPConfirm, "credential", "")
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

// ChangePassword replaces the caller's password.
func (h *Handler) ChangePassword(c *gin.Context) {
	accountID, ok := AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), accountID, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	h.logEvent(c, accountID, audit.ActionPasswordChange, "credential", "")
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}

// ChangeEmail replaces the caller's email address.
func (h *Handler) ChangeEmail(c *gin.Context) {
	accountID, ok := AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
		return
	}
	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.ChangeEmail(c.Request.Context(), accountID, req.Password, req.NewEmail); err != nil {
		writeError(c, err)
		return
	}
	h.logEvent(c, accountID, audit.ActionEmailChange, "credential", "")
	c.JSON(http.StatusOK, gin.H{"status": "email changed"})
}

// Activity lists the caller's recorded security events, newest first.
func (h *Handler) Activity(c *gin.Context) {
	accountID, ok := AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
		return
	}
	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	events := []auditEvent{}
	if h.audit != nil {
		entries, err := h.audit.History(c.Request.Context(), accountID, int32(limit), int32(offset))
		if err != nil {
			writeError(c, err)
			return
		}
		for _, e := range entries {
			events = append(events, auditEvent{
				Action:    e.Action,
				Resource:  e.Resource,
				IP:        e.IP,
				Metadata:  e.Metadata,
				CreatedAt: e.CreatedAt,
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func toSessionResponse(s *identityservice.Session) sessionResponse {
	return sessionResponse{
		AccountID:    s.AccountID,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
}

// writeError maps service errors to HTTP status codes. Unknown errors become
// a generic 500 so internals never leak to clients.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identityservice.ErrInvalidEmail),
		errors.Is(err, identityservice.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, identityservice.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, identityservice.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, identityservice.ErrNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, identityservice.ErrPasswordMismatch),
		errors.Is(err, security.ErrMalformedToken),
		errors.Is(err, security.ErrInvalidSignature),
		errors.Is(err, security.ErrTokenExpired),
		errors.Is(err, security.ErrWrongTokenClass):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, verification.ErrTokenInvalid),
		errors.Is(err, verification.ErrTokenExpired),
		errors.Is(err, verification.ErrTokenAlreadyConsumed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, verification.ErrAlreadyVerified):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, otp.ErrNoCodeIssued),
		errors.Is(err, otp.ErrCodeExpired),
		errors.Is(err, otp.ErrCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
