package application

import "github.com/account-kit/user-service/internal/domain/entity"

// toExternal converts a persistence record to the external shape: password
// stripped, the user_image column exposed as imageUrl (null when empty).
func toExternal(u *entity.User) *UserDTO {
	dto := &UserDTO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
	if u.UserImage != "" {
		img := u.UserImage
		dto.ImageURL = &img
	}
	return dto
}

// toPersistence maps registration input to a persistence record. Only the
// recognized fields exist on NewUser, so nothing else can reach the store.
func toPersistence(in NewUser) *entity.User {
	return &entity.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	}
}

// patchToPersistence maps an external patch to the persistence patch,
// renaming imageUrl to the internal user_image field. The typed patch is the
// allow-list: unrecognized input keys were already dropped during decoding.
func patchToPersistence(p UserPatch) entity.UserPatch {
	return entity.UserPatch{
		Name:      p.Name,
		Email:     p.Email,
		Password:  p.Password,
		UserImage: p.ImageURL,
	}
}
