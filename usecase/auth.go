package usecase

import (
	"context"
	"time"

	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/services"
	"notemate/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgInvalidCredentials  = "Invalid credentials"
	msgTwoFactorRequired   = "Two-factor code required"
	msgInvalidTwoFactor    = "Invalid two-factor code"
	msgInvalidResetToken   = "Invalid or expired reset token"
	msgWrongPassword       = "Current password is incorrect"
	msgTwoFactorNotStarted = "Two-factor setup has not been started"
)

type AuthService struct {
	Users       UserStore
	Tokens      TokenIssuer
	Revoker     TokenRevoker
	TwoFactor   *services.TwoFactor
	Mailer      services.Mailer
	FrontendURL string

	now func() time.Time
}

func NewAuthService(users UserStore, tokens TokenIssuer, revoker TokenRevoker, twoFactor *services.TwoFactor, mailer services.Mailer, frontendURL string) *AuthService {
	return &AuthService{
		Users:       users,
		Tokens:      tokens,
		Revoker:     revoker,
		TwoFactor:   twoFactor,
		Mailer:      mailer,
		FrontendURL: frontendURL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (svc *AuthService) respond(user *model.User) (*dto.AuthResponse, error) {
	token, err := svc.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: token, User: user}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := services.HashPassword(password)
	if errors.Is(err, services.ErrPasswordTooLong) {
		return "", invalid("Password must be at most 72 characters")
	}
	return hash, err
}

func (svc *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Role == model.RoleAdmin {
		return nil, forbidden("Cannot self-register as admin")
	}
	if _, err := svc.Users.FindByEmail(ctx, req.Email); err == nil {
		utils.TrackAuthAttempt("failure", "register")
		return nil, conflict("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := model.NewUser(req.Name, req.Email, req.Role)
	user.Password = hash
	if err := svc.Users.Create(ctx, user); err != nil {
		utils.TrackAuthAttempt("failure", "register")
		return nil, orConflict(err, "User already exists")
	}
	utils.TrackAuthAttempt("success", "register")
	return svc.respond(user)
}

// Login checks the password and, when enabled, a TOTP or recovery code.
// Unknown email, wrong password and inactive account all look the same.
func (svc *AuthService) Login(ctx context.Context, req dto.LoginRequest, userAgent string) (*dto.AuthResponse, error) {
	user, err := svc.Users.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err != nil || !user.IsActive || !services.ComparePasswords(user.Password, req.Password) {
		utils.TrackAuthAttempt("failure", "login")
		return nil, unauthorized(msgInvalidCredentials)
	}

	if user.TwoFactorEnabled {
		if err := svc.secondFactor(ctx, user, req.TwoFactorCode, req.RecoveryCode); err != nil {
			utils.TrackAuthAttempt("failure", "2fa")
			return nil, err
		}
	}

	now := svc.now()
	client := utils.ClientSummary(userAgent)
	if err := svc.Users.RecordLogin(ctx, user.ID, now, client); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user", user.ID.Hex()).Msg("last login not recorded")
	}
	user.LastLogin = &now
	user.LastLoginClient = client
	utils.TrackAuthAttempt("success", "login")
	return svc.respond(user)
}

func (svc *AuthService) secondFactor(ctx context.Context, user *model.User, code, recovery string) error {
	switch {
	case code != "":
		if !svc.TwoFactor.Validate(code, user.TwoFactorSecret) {
			return unauthorized(msgInvalidTwoFactor)
		}
		return nil
	case recovery != "":
		hash := utils.HashString(utils.NormalizeRecoveryCode(recovery))
		ok, err := svc.Users.ConsumeRecoveryCode(ctx, user.ID, hash)
		if err != nil {
			return err
		}
		if !ok {
			return unauthorized("Invalid recovery code")
		}
		return nil
	}
	return unauthorized(msgTwoFactorRequired)
}

func (svc *AuthService) Me(ctx context.Context, actor *model.Actor) (*model.User, error) {
	user, err := svc.Users.FindByID(ctx, actor.ID)
	return user, orNotFound(err, msgUserNotFound)
}

func (svc *AuthService) UpdateProfile(ctx context.Context, actor *model.Actor, req dto.UpdateProfileRequest) (*model.User, error) {
	set := bson.M{}
	for key, v := range map[string]*string{
		"name":       req.Name,
		"university": req.University,
		"course":     req.Course,
		"bio":        req.Bio,
		"avatar":     req.Avatar,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if req.Year != nil {
		set["year"] = *req.Year
	}
	user, err := svc.Users.Update(ctx, actor.ID, set)
	return user, orNotFound(err, msgUserNotFound)
}

func (svc *AuthService) ChangePassword(ctx context.Context, actor *model.Actor, req dto.ChangePasswordRequest) error {
	user, err := svc.Users.FindByID(ctx, actor.ID)
	if err != nil {
		return orNotFound(err, msgUserNotFound)
	}
	if !services.ComparePasswords(user.Password, req.CurrentPassword) {
		return unauthorized(msgWrongPassword)
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	_, err = svc.Users.Update(ctx, actor.ID, bson.M{"password": hash})
	return orNotFound(err, msgUserNotFound)
}

// ForgotPassword never reveals whether the email exists.
func (svc *AuthService) ForgotPassword(ctx context.Context, email string) error {
	logger := zerolog.Ctx(ctx)
	user, err := svc.Users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !user.IsActive) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := services.NewResetToken(svc.now())
	if err != nil {
		return err
	}
	if err := svc.Users.SetResetToken(ctx, user.ID, token.Hash, token.Expires); err != nil {
		return orNotFound(err, msgUserNotFound)
	}
	msg := services.PasswordResetMessage(user.Name, user.Email, services.ResetLink(svc.FrontendURL, token.Raw))
	if err := svc.Mailer.Send(ctx, msg); err != nil {
		logger.Error().Err(err).Str("user", user.ID.Hex()).Msg("password reset email not sent")
		utils.TrackError("mail", "reset_email_failed")
		return nil
	}
	utils.TrackAuthAttempt("success", "reset_request")
	return nil
}

// ResetPassword consumes the token and signs the user in.
func (svc *AuthService) ResetPassword(ctx context.Context, rawToken, password string) (*dto.AuthResponse, error) {
	if rawToken == "" {
		return nil, invalid(msgInvalidResetToken)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := svc.Users.ResetPassword(ctx, utils.HashString(rawToken), hash, svc.now())
	if errors.Is(err, repository.ErrNotFound) {
		utils.TrackAuthAttempt("failure", "reset")
		return nil, invalid(msgInvalidResetToken)
	}
	if err != nil {
		return nil, err
	}
	utils.TrackAuthAttempt("success", "reset")
	return svc.respond(user)
}

// Logout revokes the presented token until it would have expired anyway.
func (svc *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	return svc.Revoker.Revoke(ctx, jti, expiresAt)
}

// SetupTwoFactor stores a fresh secret. It only takes effect once confirmed
// through EnableTwoFactor.
func (svc *AuthService) SetupTwoFactor(ctx context.Context, actor *model.Actor) (*services.TwoFactorSetup, error) {
	user, err := svc.Users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	if user.TwoFactorEnabled {
		return nil, conflict("Two-factor authentication is already enabled")
	}
	setup, err := svc.TwoFactor.Generate(user.Email)
	if err != nil {
		return nil, err
	}
	if err := svc.Users.SetTwoFactor(ctx, user.ID, bson.M{"twoFactorSecret": setup.Secret}); err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	return &setup, nil
}

func (svc *AuthService) EnableTwoFactor(ctx context.Context, actor *model.Actor, code string) (*dto.TwoFactorEnabled, error) {
	user, err := svc.Users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	if user.TwoFactorEnabled {
		return nil, conflict("Two-factor authentication is already enabled")
	}
	if user.TwoFactorSecret == "" {
		return nil, invalid(msgTwoFactorNotStarted)
	}
	if !svc.TwoFactor.Validate(code, user.TwoFactorSecret) {
		utils.TrackAuthAttempt("failure", "2fa")
		return nil, invalid(msgInvalidTwoFactor)
	}

	codes, err := utils.GenerateRecoveryCodes()
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"twoFactorEnabled":       true,
		"twoFactorRecoveryCodes": utils.HashRecoveryCodes(codes),
	}
	if err := svc.Users.SetTwoFactor(ctx, user.ID, set); err != nil {
		return nil, orNotFound(err, msgUserNotFound)
	}
	utils.TrackAuthAttempt("success", "2fa")
	return &dto.TwoFactorEnabled{RecoveryCodes: codes}, nil
}

func (svc *AuthService) DisableTwoFactor(ctx context.Context, actor *model.Actor, code string) error {
	user, err := svc.Users.FindByID(ctx, actor.ID)
	if err != nil {
		return orNotFound(err, msgUserNotFound)
	}
	if !user.TwoFactorEnabled {
		return invalid("Two-factor authentication is not enabled")
	}
	if !svc.TwoFactor.Validate(code, user.TwoFactorSecret) {
		utils.TrackAuthAttempt("failure", "2fa")
		return invalid(msgInvalidTwoFactor)
	}
	set := bson.M{
		"twoFactorEnabled":       false,
		"twoFactorSecret":        "",
		"twoFactorRecoveryCodes": []string{},
	}
	return orNotFound(svc.Users.SetTwoFactor(ctx, user.ID, set), msgUserNotFound)
}

// actorFor builds the actor for a user id taken from a verified token.
func actorFor(user *model.User) *model.Actor {
	return &model.Actor{ID: user.ID, Role: user.Role}
}

// Authenticate resolves a token subject to an active user. Deactivated
// accounts lose access immediately, whatever their token says.
func (svc *AuthService) Authenticate(ctx context.Context, id primitive.ObjectID) (*model.Actor, error) {
	user, err := svc.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized("Not authorized, user not found")
		}
		return nil, err
	}
	return actorFor(user), nil
}
