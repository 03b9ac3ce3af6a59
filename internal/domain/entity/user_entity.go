package entity

// User is the persistence representation of an account.
// Password always holds a bcrypt hash; the plaintext credential never crosses
// the registration/login boundary. UserImage is the object-storage URL of the
// profile image, empty until one is uploaded.
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	UserImage string
}

// UserPatch is an explicit optional-field partial update. Only fields the
// persistence layer recognizes exist here, so unexpected columns can never be
// mass-assigned. Nil means "leave unchanged".
type UserPatch struct {
	Name      *string
	Email     *string
	Password  *string
	UserImage *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.UserImage == nil
}
