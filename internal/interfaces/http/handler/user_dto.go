package handler

// SignUpRequest represents the request body for creating an inactive user
type SignUpRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Phone     string `json:"phone" binding:"required,max=32"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	Role      string `json:"role" binding:"required,oneof=EMPLOYER CONTRACTOR"`
}

// UpdateProfileRequest is a partial profile update; omitted fields are kept
type UpdateProfileRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=100"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

type PhoneRequest struct {
	Phone string `json:"phone" binding:"required,max=32"`
}

type CodeRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

type PhoneCodeRequest struct {
	Phone string `json:"phone" binding:"required,max=32"`
	Code  string `json:"code" binding:"required,max=64"`
}

// ResetPasswordRequest consumes a password code
type ResetPasswordRequest struct {
	Code           string `json:"code" binding:"required,max=64"`
	Password       string `json:"password" binding:"required,min=8,max=128"`
	RepeatPassword string `json:"repeat_password" binding:"required,eqfield=Password"`
}
