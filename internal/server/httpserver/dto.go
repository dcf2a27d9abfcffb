package httpserver

type createUserRequest struct {
	Name     string `json:"name" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

// updateUserRequest leaves the password unchanged when it is empty.
type updateUserRequest struct {
	ID       *int64 `json:"id"`
	Name     string `json:"name" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}
