package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
)

func TestFlow_RegisterFarmerCreatesPendingAccountWithTwoTokens(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()

	account, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)

	stored, err := h.accounts.GetByEmail(ctx, "f1@x.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, stored.ID)
	assert.Equal(t, entities.StatusPending, stored.Status)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.EmailVerified)
	assert.False(t, stored.PhoneVerified)
	assert.Equal(t, "Green Acres", stored.FarmName.String)
	assert.True(t, stored.NIDPhoto.Valid)

	assert.Equal(t, int64(1), h.count(t, "email_verification_tokens"))
	assert.Equal(t, int64(1), h.count(t, "phone_otps"))

	msgs := h.dispatcher.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Verify your email", msgs[0].Subject)
	assert.Equal(t, "Phone Verification Code", msgs[1].Subject)
}

func TestFlow_RegisterValidationFailureLeavesNoRows(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	input := farmerInput()
	input.NIDPhoto = nil

	_, err := h.registration.Register(context.Background(), input)
	var verr *domainerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "NID photo is required for farmers.", verr.Fields["nid_photo"])

	assert.Zero(t, h.count(t, "users"))
	assert.Zero(t, h.count(t, "email_verification_tokens"))
	assert.Zero(t, h.count(t, "phone_otps"))
	assert.Empty(t, h.dispatcher.messages())
}

func TestFlow_RegisterMalformedEmailAndLongPhoneStoreNothing(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	input := farmerInput()
	input.Email = "not-an-email"
	input.Phone = "+9771234567890123456789012345678901"

	_, err := h.registration.Register(context.Background(), input)
	var verr *domainerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Enter a valid email address.", verr.Fields["email"])
	assert.Equal(t, "Ensure this field has no more than 20 characters.", verr.Fields["phone"])

	assert.Zero(t, h.count(t, "users"))
	assert.Empty(t, h.dispatcher.messages())
}

func TestFlow_RegisterDuplicateEmailIsValidationError(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	_, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)

	second := farmerInput()
	second.Username = "f2"
	second.Phone = "+9779"
	second.FarmName = "Blue Acres"
	_, err = h.registration.Register(ctx, second)

	var verr *domainerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Equal(t, int64(1), h.count(t, "users"))
}

func TestFlow_EmailCodeExpiresAfterTTL(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)
	code := h.latestCode(t, account.ID, "email_verification_tokens")

	h.clock.Advance(11 * time.Minute)
	err = h.verification.VerifyEmail(ctx, "f1@x.com", code)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	stored, err := h.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)
}

func TestFlow_VerifyEmailOnceThenNotFound(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)
	code := h.latestCode(t, account.ID, "email_verification_tokens")

	require.NoError(t, h.verification.VerifyEmail(ctx, " F1@X.com ", code))
	assert.ErrorIs(t, h.verification.VerifyEmail(ctx, "f1@x.com", code), domainerrors.ErrTokenNotFound)

	stored, err := h.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// a fresh code still succeeds on an already verified channel
	require.NoError(t, h.verification.ResendEmailVerification(ctx, "f1@x.com"))
	fresh := h.latestCode(t, account.ID, "email_verification_tokens")
	assert.NoError(t, h.verification.VerifyEmail(ctx, "f1@x.com", fresh))
}

func TestFlow_VerifyPhone(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)

	require.NoError(t, h.verification.SendPhoneOTP(ctx, "+9771"))
	code := h.latestCode(t, account.ID, "phone_otps")
	assert.ErrorIs(t, h.verification.VerifyPhoneOTP(ctx, "+9771", "000000x"), domainerrors.ErrTokenNotFound)
	require.NoError(t, h.verification.VerifyPhoneOTP(ctx, "+9771", code))

	stored, err := h.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.PhoneVerified)

	assert.ErrorIs(t, h.verification.SendPhoneOTP(ctx, "+0000"), domainerrors.ErrNotFound)
}

func TestFlow_LoginRejectsUnknownAccountAndWrongPasswordIdentically(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	_, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)

	_, unknown := h.auth.Login(ctx, &entities.LoginInput{Phone: "+9999", Password: "Str0ng!Pass", Role: entities.RoleFarmer})
	_, wrong := h.auth.Login(ctx, &entities.LoginInput{Phone: "+9771", Password: "wrong-pass", Role: entities.RoleFarmer})

	assert.ErrorIs(t, unknown, domainerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, wrong, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, unknown.Error(), wrong.Error())
	assert.Equal(t, domainerrors.FromDomain(unknown).Message, domainerrors.FromDomain(wrong).Message)
}

func TestFlow_ApprovalGateBlocksBothLoginVariantsUntilApproved(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)
	require.NoError(t, h.accounts.SetEmailVerified(ctx, account.ID))
	require.NoError(t, h.accounts.SetPhoneVerified(ctx, account.ID))

	direct := &entities.LoginInput{Phone: "+9771", Password: "Str0ng!Pass", Role: entities.RoleFarmer}
	send := &entities.SendLoginOTPInput{Email: "f1@x.com", Phone: "+9771", Password: "Str0ng!Pass", Role: entities.RoleFarmer}

	_, err = h.auth.Login(ctx, direct)
	assert.ErrorIs(t, err, domainerrors.ErrPendingApproval)
	assert.ErrorIs(t, h.auth.SendLoginOTP(ctx, send), domainerrors.ErrPendingApproval)
	assert.Zero(t, h.count(t, "login_otps"))

	admin := h.createAdmin(t)
	require.NoError(t, h.admin.Approve(ctx, admin.ID, account.ID))

	resp, err := h.auth.Login(ctx, direct)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "f1", resp.User.Username)

	require.NoError(t, h.auth.SendLoginOTP(ctx, send))
	emailCode, phoneCode := h.latestLoginOTP(t, account.ID)
	assert.NotEmpty(t, phoneCode)

	otpResp, err := h.auth.VerifyLoginOTP(ctx, &entities.VerifyLoginOTPInput{Email: "f1@x.com", EmailCode: emailCode, Role: entities.RoleFarmer})
	require.NoError(t, err)
	assert.NotEmpty(t, otpResp.AccessToken)

	stored, err := h.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLoginAt.Valid)
}

func TestFlow_VetWithOnlyPhoneVerifiedCanLogIn(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, vetInput())
	require.NoError(t, err)
	require.NoError(t, h.accounts.SetPhoneVerified(ctx, account.ID))
	admin := h.createAdmin(t)
	require.NoError(t, h.admin.Approve(ctx, admin.ID, account.ID))

	resp, err := h.auth.Login(ctx, &entities.LoginInput{Phone: "+9772", Password: "Str0ng!Pass", Role: entities.RoleVet})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleVet, resp.User.Role)
}

func TestFlow_UnverifiedApprovedAccountCannotLogInDirectly(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, vetInput())
	require.NoError(t, err)
	admin := h.createAdmin(t)
	require.NoError(t, h.admin.Approve(ctx, admin.ID, account.ID))

	_, err = h.auth.Login(ctx, &entities.LoginInput{Phone: "+9772", Password: "Str0ng!Pass", Role: entities.RoleVet})
	assert.ErrorIs(t, err, domainerrors.ErrNotVerified)
}

func TestFlow_DeclinedFarmerCannotRequestLoginOTP(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)
	admin := h.createAdmin(t)
	require.NoError(t, h.admin.Decline(ctx, admin.ID, account.ID))

	err = h.auth.SendLoginOTP(ctx, &entities.SendLoginOTPInput{Email: "f1@x.com", Phone: "+9771", Password: "Str0ng!Pass", Role: entities.RoleFarmer})
	assert.ErrorIs(t, err, domainerrors.ErrDeclined)
	assert.Zero(t, h.count(t, "login_otps"))
}

func TestFlow_LoginOTPVerifiesOnlyOnce(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	admin := h.createAdmin(t)

	require.NoError(t, h.auth.SendLoginOTP(ctx, &entities.SendLoginOTPInput{Email: "admin@x.com", Password: "Adm1n!Secret", Role: entities.RoleAdmin}))
	emailCode, phoneCode := h.latestLoginOTP(t, admin.ID)
	assert.Empty(t, phoneCode)

	input := &entities.VerifyLoginOTPInput{Email: "admin@x.com", EmailCode: emailCode, Role: entities.RoleAdmin}
	_, err := h.auth.VerifyLoginOTP(ctx, input)
	require.NoError(t, err)

	_, err = h.auth.VerifyLoginOTP(ctx, input)
	assert.ErrorIs(t, err, domainerrors.ErrTokenNotFound)
}

func TestFlow_LoginOTPRequiresPhoneCodeWhenConfigured(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{RequirePhoneCode: true})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, farmerInput())
	require.NoError(t, err)
	admin := h.createAdmin(t)
	require.NoError(t, h.admin.Approve(ctx, admin.ID, account.ID))

	send := &entities.SendLoginOTPInput{Email: "f1@x.com", Phone: "+9771", Password: "Str0ng!Pass", Role: entities.RoleFarmer}
	wrongPhone := *send
	wrongPhone.Phone = "+9000"
	assert.ErrorIs(t, h.auth.SendLoginOTP(ctx, &wrongPhone), domainerrors.ErrInvalidCredentials)

	require.NoError(t, h.auth.SendLoginOTP(ctx, send))
	emailCode, phoneCode := h.latestLoginOTP(t, account.ID)

	_, err = h.auth.VerifyLoginOTP(ctx, &entities.VerifyLoginOTPInput{Email: "f1@x.com", EmailCode: emailCode, Role: entities.RoleFarmer})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOTP)

	_, err = h.auth.VerifyLoginOTP(ctx, &entities.VerifyLoginOTPInput{Email: "f1@x.com", EmailCode: emailCode, PhoneCode: phoneCode, Role: entities.RoleFarmer})
	assert.NoError(t, err)
}

func TestFlow_LoginOTPExpires(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	admin := h.createAdmin(t)

	require.NoError(t, h.auth.SendLoginOTP(ctx, &entities.SendLoginOTPInput{Email: "admin@x.com", Password: "Adm1n!Secret", Role: entities.RoleAdmin}))
	emailCode, _ := h.latestLoginOTP(t, admin.ID)
	h.clock.Advance(11 * time.Minute)

	_, err := h.auth.VerifyLoginOTP(ctx, &entities.VerifyLoginOTPInput{Email: "admin@x.com", EmailCode: emailCode, Role: entities.RoleAdmin})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestFlow_PasswordReset(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, vetInput())
	require.NoError(t, err)
	require.NoError(t, h.accounts.SetEmailVerified(ctx, account.ID))
	admin := h.createAdmin(t)
	require.NoError(t, h.admin.Approve(ctx, admin.ID, account.ID))

	require.NoError(t, h.reset.RequestReset(ctx, "v1@x.com"))
	token := h.latestCode(t, account.ID, "password_reset_tokens")
	require.NoError(t, h.reset.CheckToken(ctx, "v1@x.com", token))

	mismatch := &entities.ResetPasswordInput{Email: "v1@x.com", Token: token, NewPassword: "N3w!Passw0rd", ConfirmPassword: "other"}
	assert.ErrorIs(t, h.reset.Reset(ctx, mismatch), domainerrors.ErrValidation)

	input := &entities.ResetPasswordInput{Email: "v1@x.com", Token: token, NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd"}
	require.NoError(t, h.reset.Reset(ctx, input))
	assert.ErrorIs(t, h.reset.Reset(ctx, input), domainerrors.ErrTokenNotFound)
	assert.ErrorIs(t, h.reset.CheckToken(ctx, "v1@x.com", token), domainerrors.ErrTokenNotFound)

	_, err = h.auth.Login(ctx, &entities.LoginInput{Phone: "+9772", Password: "Str0ng!Pass", Role: entities.RoleVet})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, err = h.auth.Login(ctx, &entities.LoginInput{Phone: "+9772", Password: "N3w!Passw0rd", Role: entities.RoleVet})
	assert.NoError(t, err)
}

func TestFlow_PasswordResetTokenExpires(t *testing.T) {
	h := newHarness(t, entities.OTPLoginPolicy{})
	ctx := context.Background()
	account, err := h.registration.Register(ctx, vetInput())
	require.NoError(t, err)

	require.NoError(t, h.reset.RequestReset(ctx, "v1@x.com"))
	token := h.latestCode(t, account.ID, "password_reset_tokens")
	h.clock.Advance(31 * time.Minute)

	assert.ErrorIs(t, h.reset.CheckToken(ctx, "v1@x.com", token), domainerrors.ErrTokenExpired)
	err = h.reset.Reset(ctx, &entities.ResetPasswordInput{Email: "v1@x.com", Token: token, NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd"})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}
