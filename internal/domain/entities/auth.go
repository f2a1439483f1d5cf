package entities

// LoginInput represents input for the direct login
type LoginInput struct {
	Phone      string `json:"phone" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Role       Role   `json:"role" binding:"required"`
	UseSession bool   `json:"use_session"` // If true, store tokens in Redis and return SessionID
}

// SendLoginOTPInput represents the first phase of the OTP login
type SendLoginOTPInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
}

// VerifyLoginOTPInput represents the second phase of the OTP login
type VerifyLoginOTPInput struct {
	Email      string `json:"email" binding:"required,email"`
	EmailCode  string `json:"email_code" binding:"required,len=6"`
	PhoneCode  string `json:"phone_code"`
	Role       Role   `json:"role" binding:"required"`
	UseSession bool   `json:"use_session"`
}

// ResetPasswordInput represents input for completing a password reset
type ResetPasswordInput struct {
	Email           string `json:"email" binding:"required,email"`
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string          `json:"access,omitempty"`
	RefreshToken string          `json:"refresh,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	User         *AccountSummary `json:"user"`
}
