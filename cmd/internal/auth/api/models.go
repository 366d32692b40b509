package api

import (
	"campus/cmd/identity"
	"campus/cmd/internal/catalog"
)

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is accepted for client compatibility and ignored; self-registration is always "user".
	Role string `json:"role,omitempty"`
}

type registerResponse struct {
	userResponse
	Message string `json:"message"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginResponse struct {
	User        loginUser `json:"user"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type usersListResponse struct {
	TotalUsers int            `json:"total_users"`
	Skip       int            `json:"skip"`
	Limit      int            `json:"limit"`
	Data       []userResponse `json:"data"`
}

type adminUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type selfUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type updatedUserResponse struct {
	userResponse
	Message string `json:"message"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type deleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type emailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

// ---- catalog ----

type facultyRequest struct {
	Name *string `json:"nama"`
}

type facultyResponse struct {
	ID   string `json:"id"`
	Name string `json:"nama"`
}

func toFacultyResponse(f catalog.Faculty) facultyResponse {
	return facultyResponse{ID: f.ID, Name: f.Name}
}

type programRequest struct {
	Name      *string `json:"nama_prodi"`
	FacultyID *string `json:"fakultas_id"`
}

type programResponse struct {
	ID        string `json:"id"`
	Name      string `json:"nama_prodi"`
	FacultyID string `json:"fakultas_id"`
}

func toProgramResponse(p catalog.Program) programResponse {
	return programResponse{ID: p.ID, Name: p.Name, FacultyID: p.FacultyID}
}
