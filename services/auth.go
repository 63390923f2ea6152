package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"aceofspace-go/models"
	"aceofspace-go/notifier"
	"aceofspace-go/store"
	"aceofspace-go/utils"

	"go.uber.org/zap"
)

// AuthService drives Unregistered -> PendingVerification -> Active and the
// forgot/reset password flow. Every method returns a Result and stops at
// the first failing step.
type AuthService struct {
	identities CredentialStore
	roles      RoleResolver
	otp        *OTPEngine
	passwords  *PasswordManager
	tokens     *utils.TokenIssuer
	notifier   notifier.Notifier
	audit      auditor
	resetURL   string
	logger     *zap.Logger
}

type AuthDeps struct {
	Identities CredentialStore
	Roles      RoleResolver
	OTP        *OTPEngine
	Passwords  *PasswordManager
	Tokens     *utils.TokenIssuer
	Notifier   notifier.Notifier
	Audit      AuditRecorder
	ResetURL   string
}

func NewAuthService(deps AuthDeps, log *zap.Logger) *AuthService {
	log = log.Named("auth")
	return &AuthService{
		identities: deps.Identities,
		roles:      deps.Roles,
		otp:        deps.OTP,
		passwords:  deps.Passwords,
		tokens:     deps.Tokens,
		notifier:   deps.Notifier,
		audit:      auditor{recorder: deps.Audit, logger: log},
		resetURL:   deps.ResetURL,
		logger:     log,
	}
}

func (s *AuthService) fail(op string, err error) models.Result {
	res := failResult(err)
	if res.Code == string(KindStorage) || res.Code == string(KindDelivery) {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.String("reason", res.Message))
	}
	return res
}

func (s *AuthService) loadByEmail(ctx context.Context, email string) (*models.Identity, error) {
	identity, err := s.identities.FindByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return identity, err
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) models.Result {
	firstName := utils.SanitizeString(req.FirstName)
	lastName := utils.SanitizeString(req.LastName)
	email := utils.NormalizeEmail(req.Email)

	switch {
	case firstName == "":
		return s.fail("register", invalid("Please enter first name"))
	case lastName == "":
		return s.fail("register", invalid("Please enter last name"))
	case email == "":
		return s.fail("register", invalid("Please enter email"))
	case !utils.ValidateEmail(email):
		return s.fail("register", invalid("Invalid email format"))
	}
	if err := checkPasswordLength(req.Password); err != nil {
		return s.fail("register", err)
	}

	// Check if identity already exists
	if _, err := s.identities.FindByEmail(ctx, email); err == nil {
		return s.fail("register", ErrDuplicateEmail)
	} else if !errors.Is(err, store.ErrNotFound) {
		return s.fail("register", err)
	}

	roleName := strings.TrimSpace(req.Role)
	if roleName == "" {
		roleName = models.RoleUser
	}
	role, err := s.roles.FindByName(ctx, roleName)
	if errors.Is(err, store.ErrNotFound) {
		return s.fail("register", fmt.Errorf("%w: %q", ErrUnknownRole, roleName))
	}
	if err != nil {
		return s.fail("register", err)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return s.fail("register", err)
	}

	code, expiresAt, err := s.otp.Generate()
	if err != nil {
		return s.fail("register", err)
	}

	// Only persist once the code has reached the inbox.
	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		return s.fail("register", fmt.Errorf("%w: %v", ErrDelivery, err))
	}

	identity := &models.Identity{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
		Active:       false,
		OTPCode:      &code,
		OTPExpiresAt: &expiresAt,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return s.fail("register", ErrDuplicateEmail)
		}
		return s.fail("register", err)
	}

	s.logger.Info("identity registered", zap.String("id", identity.ID), zap.String("role", role.Name))
	s.audit.record(ctx, identity.ID, "CREATE", "IDENTITY", "Registered with role "+role.Name)

	return models.Success("Registration successful. Please verify OTP sent to your email.",
		models.RegisterResponse{ID: identity.ID, Email: identity.Email})
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) models.Result {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return s.fail("verify otp", invalid("Email and OTP are required"))
	}

	identity, err := s.loadByEmail(ctx, email)
	if err != nil {
		return s.fail("verify otp", err)
	}
	if err := s.otp.Verify(ctx, identity, strings.TrimSpace(code)); err != nil {
		return s.fail("verify otp", err)
	}

	s.logger.Info("identity verified", zap.String("id", identity.ID))
	s.audit.record(ctx, identity.ID, "VERIFY", "IDENTITY", "OTP verified, account activated")
	return models.Success("Account verified successfully", nil)
}

func (s *AuthService) ResendOTP(ctx context.Context, email string) models.Result {
	if strings.TrimSpace(email) == "" {
		return s.fail("resend otp", invalid("Email is required"))
	}

	identity, err := s.loadByEmail(ctx, email)
	if err != nil {
		return s.fail("resend otp", err)
	}
	code, err := s.otp.Issue(ctx, identity)
	if err != nil {
		return s.fail("resend otp", err)
	}
	if err := s.notifier.SendOTP(ctx, identity.Email, code); err != nil {
		return s.fail("resend otp", fmt.Errorf("%w: %v", ErrDelivery, err))
	}

	return models.Success("OTP sent to your email", map[string]string{"email": identity.Email})
}

func (s *AuthService) Login(ctx context.Context, email, password string) models.Result {
	if strings.TrimSpace(email) == "" {
		return s.fail("login", invalid("Please enter email"))
	}
	if password == "" {
		return s.fail("login", invalid("Please enter password"))
	}

	identity, err := s.loadByEmail(ctx, email)
	if err != nil {
		return s.fail("login", err)
	}
	if !identity.Active {
		return s.fail("login", ErrNotVerified)
	}
	if !s.passwords.Verify(password, identity.PasswordHash) {
		return s.fail("login", ErrBadCredentials)
	}

	res, err := s.issueSession(identity)
	if err != nil {
		return s.fail("login", err)
	}

	s.logger.Info("identity logged in", zap.String("id", identity.ID), zap.String("role", identity.Role.Name))
	s.audit.record(ctx, identity.ID, "LOGIN", "AUTH", "Logged in")
	return models.Success("Login successful", res)
}

// Refresh exchanges a valid refresh token for a new access/refresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) models.Result {
	claims, err := s.tokens.Decode(refreshToken, utils.RefreshToken)
	if errors.Is(err, utils.ErrTokenExpired) {
		return s.fail("refresh", ErrSessionExpired)
	}
	if err != nil {
		return s.fail("refresh", fmt.Errorf("%w: %v", ErrUnauthorized, err))
	}

	identity, err := s.identities.FindByID(ctx, claims.IdentityID)
	if errors.Is(err, store.ErrNotFound) {
		return s.fail("refresh", ErrUnauthorized)
	}
	if err != nil {
		return s.fail("refresh", err)
	}
	if !identity.Active {
		return s.fail("refresh", ErrNotVerified)
	}

	res, err := s.issueSession(identity)
	if err != nil {
		return s.fail("refresh", err)
	}
	return models.Success("Session refreshed", res)
}

func (s *AuthService) issueSession(identity *models.Identity) (models.LoginResponse, error) {
	access, err := s.tokens.IssueAccessToken(identity.ID, identity.Role.Name)
	if err != nil {
		return models.LoginResponse{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(identity.ID, identity.Role.Name)
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{AccessToken: access, RefreshToken: refresh, User: identity.View()}, nil
}

// Authenticate resolves a bearer access token to an active identity.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Identity, models.Result) {
	claims, err := s.tokens.Decode(accessToken, utils.AccessToken)
	if errors.Is(err, utils.ErrTokenExpired) {
		return nil, failResult(ErrSessionExpired)
	}
	if err != nil {
		return nil, failResult(fmt.Errorf("%w: %v", ErrUnauthorized, err))
	}

	identity, err := s.identities.FindByID(ctx, claims.IdentityID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, failResult(ErrNotFound)
	}
	if err != nil {
		return nil, s.fail("authenticate", err)
	}
	if !identity.Active {
		return nil, failResult(ErrNotVerified)
	}
	return identity, models.Success("Authenticated", identity.View())
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) models.Result {
	if strings.TrimSpace(email) == "" {
		return s.fail("forgot password", invalid("Email is required"))
	}

	identity, err := s.loadByEmail(ctx, email)
	if err != nil {
		return s.fail("forgot password", err)
	}
	token, err := s.passwords.RequestReset(ctx, identity)
	if err != nil {
		return s.fail("forgot password", err)
	}

	link := fmt.Sprintf("%s?email=%s&token=%s", s.resetURL, url.QueryEscape(identity.Email), token)
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Use the link below to reset your password:</p>
<p><a href="%s">%s</a></p>
<p>If you did not request this, please ignore this email.</p>`, identity.FirstName, link, link)
	if err := s.notifier.SendMail(ctx, identity.Email, "Reset your password", body); err != nil {
		return s.fail("forgot password", fmt.Errorf("%w: %v", ErrDelivery, err))
	}

	s.audit.record(ctx, identity.ID, "REQUEST", "PASSWORD_RESET", "Reset token issued")
	return models.Success("Password reset link sent to your email", map[string]string{"email": identity.Email})
}

func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) models.Result {
	if strings.TrimSpace(email) == "" || token == "" || newPassword == "" {
		return s.fail("reset password", invalid("Email, token and new password are required"))
	}

	identity, err := s.passwords.ConsumeReset(ctx, email, token, newPassword)
	if err != nil {
		return s.fail("reset password", err)
	}

	s.audit.record(ctx, identity.ID, "UPDATE", "PASSWORD_RESET", "Password reset with token")

	// The password is already changed; the confirmation is best effort.
	body := fmt.Sprintf("<p>Hello %s,</p><p>Your password was reset successfully.</p>", identity.FirstName)
	if err := s.notifier.SendMail(ctx, identity.Email, "Your password was changed", body); err != nil {
		s.logger.Warn("reset confirmation not delivered", zap.String("id", identity.ID), zap.Error(err))
	}

	return models.Success("Password reset successful", nil)
}

func (s *AuthService) Profile(ctx context.Context, identityID string) models.Result {
	identity, err := s.identities.FindByID(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return s.fail("profile", ErrNotFound)
	}
	if err != nil {
		return s.fail("profile", err)
	}
	return models.Success("Profile fetched successfully", identity.View())
}

func (s *AuthService) UpdateProfile(ctx context.Context, identityID string, req models.UpdateProfileRequest) models.Result {
	firstName := utils.SanitizeString(req.FirstName)
	lastName := utils.SanitizeString(req.LastName)
	if firstName == "" {
		return s.fail("update profile", invalid("First name is required"))
	}
	if lastName == "" {
		return s.fail("update profile", invalid("Last name is required"))
	}

	identity, err := s.identities.UpdateProfile(ctx, identityID, firstName, lastName, utils.SanitizeString(req.Mobile))
	if errors.Is(err, store.ErrNotFound) {
		return s.fail("update profile", ErrNotFound)
	}
	if err != nil {
		return s.fail("update profile", err)
	}

	s.audit.record(ctx, identity.ID, "UPDATE", "IDENTITY", "Profile updated")
	return models.Success("Profile updated successfully", identity.View())
}

func (s *AuthService) ChangePassword(ctx context.Context, identityID, oldPassword, newPassword string) models.Result {
	if oldPassword == "" || newPassword == "" {
		return s.fail("change password", invalid("Old and new password are required"))
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if errors.Is(err, store.ErrNotFound) {
		return s.fail("change password", ErrNotFound)
	}
	if err != nil {
		return s.fail("change password", err)
	}
	if err := s.passwords.Change(ctx, identity, oldPassword, newPassword); err != nil {
		if errors.Is(err, ErrBadCredentials) {
			return s.fail("change password", invalid("Old password is incorrect"))
		}
		return s.fail("change password", err)
	}

	s.audit.record(ctx, identity.ID, "UPDATE", "PASSWORD", "Password changed")
	return models.Success("Password updated successfully", nil)
}

type IdentityPage struct {
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
	Users []models.IdentityView `json:"users"`
}

func (s *AuthService) ListIdentities(ctx context.Context, page, limit int) models.Result {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	identities, total, err := s.identities.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return s.fail("list identities", err)
	}
	views := make([]models.IdentityView, 0, len(identities))
	for i := range identities {
		views = append(views, identities[i].View())
	}
	return models.Success("Users fetched successfully", IdentityPage{Total: total, Page: page, Limit: limit, Users: views})
}
