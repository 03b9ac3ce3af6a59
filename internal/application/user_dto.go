package application

// UserDTO is the external representation of an account. It never carries the
// password; ImageURL is null until a profile image is uploaded.
type UserDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	ImageURL *string `json:"imageUrl"`
}

// NewUser is the registration input. Password is the plaintext credential,
// write-only: it is hashed before anything is persisted.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPatch is the external partial-update input. Nil fields are untouched.
// A non-nil Password is rejected by UpdateUser; password changes do not go
// through the generic update path.
type UserPatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	ImageURL *string `json:"imageUrl"`
}
