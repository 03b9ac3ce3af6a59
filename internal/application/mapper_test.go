package application

import (
	"testing"

	"github.com/account-kit/user-service/internal/domain/entity"
)

func TestToExternal(t *testing.T) {
	t.Run("strips password and maps image", func(t *testing.T) {
		dto := toExternal(&entity.User{
			ID:        7,
			Name:      "Alice",
			Email:     "alice@x.com",
			Password:  "$2a$10$hash",
			UserImage: "https://cdn.test/alice@x.com.png",
		})
		if dto.ID != 7 || dto.Name != "Alice" || dto.Email != "alice@x.com" {
			t.Fatalf("unexpected dto: %+v", dto)
		}
		if dto.ImageURL == nil || *dto.ImageURL != "https://cdn.test/alice@x.com.png" {
			t.Fatalf("imageUrl not carried over: %+v", dto.ImageURL)
		}
	})

	t.Run("empty image becomes nil", func(t *testing.T) {
		dto := toExternal(&entity.User{ID: 1, Name: "Bob", Email: "bob@x.com"})
		if dto.ImageURL != nil {
			t.Fatalf("expected nil imageUrl, got %q", *dto.ImageURL)
		}
	})
}

func TestPatchToPersistence(t *testing.T) {
	name := "Alice"
	img := "https://cdn.test/a.png"
	p := patchToPersistence(UserPatch{Name: &name, ImageURL: &img})

	if p.Name == nil || *p.Name != "Alice" {
		t.Fatalf("name not mapped: %+v", p.Name)
	}
	if p.UserImage == nil || *p.UserImage != img {
		t.Fatalf("imageUrl not mapped to user_image: %+v", p.UserImage)
	}
	if p.Email != nil || p.Password != nil {
		t.Fatal("unset fields must stay nil")
	}
	if p.Empty() {
		t.Fatal("patch with fields must not report empty")
	}
	if !(entity.UserPatch{}).Empty() {
		t.Fatal("zero patch must report empty")
	}
}
