package handlers

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/auth"
	"github.com/glowora/glowora-api/internal/middleware"
	"github.com/glowora/glowora-api/internal/models"
)

const verificationCodeTTL = 15 * time.Minute

// generateCode returns a 6-digit numeric code for email verification and
// password resets.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// --- Registration ---

type RegisterInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /v1/auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	var exists int
	err := h.DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", input.Email).Scan(&exists)
	if err != nil {
		log.Printf("register: email lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}
	if exists > 0 {
		c.JSON(http.StatusConflict, failFields("Email already registered", map[string]string{"email": "already in use"}))
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		log.Printf("register: hashing failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	code, err := generateCode()
	if err != nil {
		log.Printf("register: code generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	now := time.Now()
	expiry := now.Add(verificationCodeTTL)
	result, err := h.DB.Exec(`
		INSERT INTO users (role, email, password_hash, full_name, is_verified, verification_code, verification_expiry, created_at, updated_at)
		VALUES ('user', ?, ?, ?, 0, ?, ?, ?, ?)`,
		input.Email, password.Hash, input.FullName, code, expiry, now, now)
	if err != nil {
		log.Printf("register: insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Failed to create account"))
		return
	}
	userID, _ := result.LastInsertId()

	if err := h.Mailer.SendVerificationEmail(input.Email, code); err != nil {
		// The account exists either way; the code can be re-sent.
		log.Printf("register: verification email to %s failed: %v", input.Email, err)
	}

	// A guest who registers keeps their cart: merge is best-effort and must
	// never block the sign-up from completing.
	h.mergeGuestCartFromCookie(c, userID)

	token, err := auth.GenerateToken(userID)
	if err != nil {
		log.Printf("register: token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Account created but sign-in failed, please log in"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your email for a verification code.",
		"token":   token,
		"user": gin.H{
			"id":       userID,
			"email":    input.Email,
			"fullName": input.FullName,
		},
	})
}

// --- Login ---

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, role, email, password_hash, full_name, is_verified FROM users WHERE email = ?",
		input.Email,
	).Scan(&user.ID, &user.Role, &user.Email, &user.PasswordHash, &user.FullName, &user.IsVerified)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, fail("Invalid email or password"))
			return
		}
		log.Printf("login: user lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		log.Printf("login: password check failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, fail("Invalid email or password"))
		return
	}

	// Merge the guest cart (if any) before the session is considered
	// established. Best-effort: a merge failure is logged, never surfaced.
	h.mergeGuestCartFromCookie(c, user.ID)

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		log.Printf("login: token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"role":       user.Role,
			"email":      user.Email,
			"fullName":   user.FullName,
			"isVerified": user.IsVerified,
		},
	})
}

// mergeGuestCartFromCookie combines the anonymous cart referenced by the
// guest cookie into the user's cart and retires the cookie. Errors are
// logged only; sign-in/sign-up proceed regardless.
func (h *Handlers) mergeGuestCartFromCookie(c *gin.Context, userID int64) {
	guestToken, err := c.Cookie(middleware.GuestCookieName)
	if err != nil || guestToken == "" {
		return
	}

	if err := MergeGuestCart(h.DB, guestToken, userID); err != nil {
		log.Printf("guest cart merge for user %d failed: %v", userID, err)
		return
	}

	// Expire the cookie; the guest rows are gone.
	c.SetCookie(middleware.GuestCookieName, "", -1, "/", "", false, true)
}

// --- Email Verification ---

type VerifyEmailInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyEmail is the handler for POST /v1/auth/verify-email.
func (h *Handlers) VerifyEmail(c *gin.Context) {
	var input VerifyEmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	var code sql.NullString
	var expiry sql.NullTime
	var userID int64
	err := h.DB.QueryRow(
		"SELECT id, verification_code, verification_expiry FROM users WHERE email = ?",
		input.Email,
	).Scan(&userID, &code, &expiry)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Account not found"))
			return
		}
		log.Printf("verify-email: lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	if !code.Valid || code.String != input.Code {
		c.JSON(http.StatusBadRequest, failFields("Invalid verification code", map[string]string{"code": "does not match"}))
		return
	}
	if !expiry.Valid || time.Now().After(expiry.Time) {
		c.JSON(http.StatusBadRequest, failFields("Verification code expired", map[string]string{"code": "expired, request a new one"}))
		return
	}

	_, err = h.DB.Exec(
		"UPDATE users SET is_verified = 1, verification_code = NULL, verification_expiry = NULL, updated_at = ? WHERE id = ?",
		time.Now(), userID)
	if err != nil {
		log.Printf("verify-email: update failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// ResendVerification is the handler for POST /v1/auth/resend-code.
func (h *Handlers) ResendVerification(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	var userID int64
	var verified bool
	err := h.DB.QueryRow("SELECT id, is_verified FROM users WHERE email = ?", input.Email).Scan(&userID, &verified)
	if err != nil {
		// Do not reveal whether the address exists.
		c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a code has been sent"})
		return
	}
	if verified {
		c.JSON(http.StatusOK, gin.H{"message": "Account is already verified"})
		return
	}

	code, err := generateCode()
	if err != nil {
		log.Printf("resend-code: code generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	_, err = h.DB.Exec(
		"UPDATE users SET verification_code = ?, verification_expiry = ?, updated_at = ? WHERE id = ?",
		code, time.Now().Add(verificationCodeTTL), time.Now(), userID)
	if err != nil {
		log.Printf("resend-code: update failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	if err := h.Mailer.SendVerificationEmail(input.Email, code); err != nil {
		log.Printf("resend-code: email to %s failed: %v", input.Email, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a code has been sent"})
}

// --- Password Reset ---

// RequestPasswordReset is the handler for POST /v1/auth/forgot-password.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	// Always answer the same way so the endpoint cannot be used to probe
	// for registered addresses.
	respond := func() {
		c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset code has been sent"})
	}

	var userID int64
	if err := h.DB.QueryRow("SELECT id FROM users WHERE email = ?", input.Email).Scan(&userID); err != nil {
		respond()
		return
	}

	code, err := generateCode()
	if err != nil {
		log.Printf("forgot-password: code generation failed: %v", err)
		respond()
		return
	}

	_, err = h.DB.Exec(
		"UPDATE users SET reset_code = ?, reset_expiry = ?, updated_at = ? WHERE id = ?",
		code, time.Now().Add(verificationCodeTTL), time.Now(), userID)
	if err != nil {
		log.Printf("forgot-password: update failed: %v", err)
		respond()
		return
	}

	if err := h.Mailer.SendPasswordResetEmail(input.Email, code); err != nil {
		log.Printf("forgot-password: email to %s failed: %v", input.Email, err)
	}
	respond()
}

type ResetPasswordInput struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ResetPassword is the handler for POST /v1/auth/reset-password.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid input: "+err.Error()))
		return
	}

	var userID int64
	var code sql.NullString
	var expiry sql.NullTime
	err := h.DB.QueryRow(
		"SELECT id, reset_code, reset_expiry FROM users WHERE email = ?",
		input.Email,
	).Scan(&userID, &code, &expiry)
	if err != nil {
		c.JSON(http.StatusBadRequest, fail("Invalid reset code"))
		return
	}

	if !code.Valid || code.String != input.Code || !expiry.Valid || time.Now().After(expiry.Time) {
		c.JSON(http.StatusBadRequest, fail("Invalid or expired reset code"))
		return
	}

	var password models.Password
	if err := password.Set(input.NewPassword); err != nil {
		log.Printf("reset-password: hashing failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	_, err = h.DB.Exec(
		"UPDATE users SET password_hash = ?, reset_code = NULL, reset_expiry = NULL, updated_at = ? WHERE id = ?",
		password.Hash, time.Now(), userID)
	if err != nil {
		log.Printf("reset-password: update failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated, please log in"})
}

// GetProfile is the handler for GET /v1/me.
func (h *Handlers) GetProfile(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, role, email, full_name, is_verified, created_at, updated_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &user.Role, &user.Email, &user.FullName, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, fail("Account not found"))
			return
		}
		log.Printf("profile: lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, fail("Something went wrong, please try again"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
