package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/account-kit/user-service/internal/application"
	"github.com/account-kit/user-service/internal/domain/entity"
	"github.com/account-kit/user-service/pkg/apperr"
	"github.com/account-kit/user-service/pkg/helpers"
	"github.com/account-kit/user-service/pkg/response"
	"github.com/account-kit/user-service/pkg/validation"
)

type memUserRepo struct {
	nextID int64
	users  map[int64]*entity.User
}

func (r *memUserRepo) CreateUser(_ context.Context, u *entity.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperr.Conflict(apperr.CodeUserAlreadyExists)
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpdateUser(_ context.Context, id int64, patch entity.UserPatch) error {
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	if patch.UserImage != nil {
		u.UserImage = *patch.UserImage
	}
	return nil
}

func (r *memUserRepo) DeleteUser(_ context.Context, id int64) error {
	delete(r.users, id)
	return nil
}

type memImageStore struct {
	objects map[string][]byte
}

func (s *memImageStore) UploadImage(_ context.Context, data []byte, key string) error {
	s.objects[key] = data
	return nil
}

func (s *memImageStore) DeleteImage(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	jwtMgr, err := helpers.NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	repo := &memUserRepo{users: map[int64]*entity.User{}}
	images := &memImageStore{objects: map[string][]byte{}}
	uc := application.NewUserUseCase(repo, images, jwtMgr,
		"https://storage.googleapis.com/test-bucket/", bcrypt.MinCost,
		nil, nil, nil, nil, "")
	h := NewUserHandler(uc, nil)

	r := gin.New()
	r.POST("/users", h.Create)
	r.POST("/users/login", h.Login)
	r.GET("/users", h.Get)
	r.PUT("/users", h.Update)
	r.DELETE("/users", h.Delete)
	r.GET("/users/search", h.Search)
	return r, repo
}

func do(t *testing.T, r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env response.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return w, env
}

func multipartCreate(t *testing.T, body string, image []byte, filename string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("body", body); err != nil {
		t.Fatalf("write body field: %v", err)
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/users", buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func registerAlice(t *testing.T, r *gin.Engine) {
	t.Helper()
	w, _ := do(t, r, multipartCreate(t, `{"name":"Alice","email":"alice@x.com","password":"password123"}`, nil, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
}

func loginAlice(t *testing.T, r *gin.Engine) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/users/login",
		strings.NewReader(`{"email":"alice@x.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := do(t, r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	body, ok := env.Body.(map[string]any)
	if !ok {
		t.Fatalf("unexpected login body: %v", env.Body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func TestCreateEndpoint(t *testing.T) {
	t.Run("creates user with image", func(t *testing.T) {
		r, repo := newTestRouter(t)
		w, env := do(t, r, multipartCreate(t,
			`{"name":"Alice","email":"alice@x.com","password":"password123"}`,
			[]byte{0xFF, 0xD8}, "avatar.jpg"))
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if env.Message != "user created" {
			t.Fatalf("message = %q", env.Message)
		}
		if got := repo.users[1].UserImage; got != "https://storage.googleapis.com/test-bucket/alice@x.com.jpg" {
			t.Fatalf("image url = %q", got)
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		r, _ := newTestRouter(t)
		w, env := do(t, r, multipartCreate(t,
			`{"name":"Alice","email":"alice@x.com","password":"short"}`, nil, ""))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		details, ok := env.Error.(map[string]any)
		if !ok || details["password"] == nil {
			t.Fatalf("expected password detail, got %v", env.Error)
		}
	})

	t.Run("extension-less image rejected", func(t *testing.T) {
		r, repo := newTestRouter(t)
		w, env := do(t, r, multipartCreate(t,
			`{"name":"Alice","email":"alice@x.com","password":"password123"}`,
			[]byte{0xFF, 0xD8}, "avatar"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		details, ok := env.Error.(map[string]any)
		if !ok || details["image"] == nil {
			t.Fatalf("expected image detail, got %v", env.Error)
		}
		if len(repo.users) != 0 {
			t.Fatal("user persisted despite rejected image")
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		r, _ := newTestRouter(t)
		registerAlice(t, r)
		w, env := do(t, r, multipartCreate(t,
			`{"name":"Other","email":"alice@x.com","password":"password123"}`, nil, ""))
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if env.Message != apperr.CodeUserAlreadyExists {
			t.Fatalf("message = %q", env.Message)
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	registerAlice(t, r)

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/login",
			strings.NewReader(`{"email":"alice@x.com","password":"wrong-password"}`))
		req.Header.Set("Content-Type", "application/json")
		w, env := do(t, r, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if env.Message != apperr.CodePasswordNotMatch {
			t.Fatalf("message = %q", env.Message)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/login",
			strings.NewReader(`{"email":"nobody@x.com","password":"password123"}`))
		req.Header.Set("Content-Type", "application/json")
		w, env := do(t, r, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if env.Message != apperr.CodeUserNotFound {
			t.Fatalf("message = %q", env.Message)
		}
	})
}

func TestProfileEndpoints(t *testing.T) {
	r, repo := newTestRouter(t)
	registerAlice(t, r)
	token := loginAlice(t, r)

	t.Run("missing token", func(t *testing.T) {
		w, _ := do(t, r, httptest.NewRequest(http.MethodGet, "/users", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("get profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w, env := do(t, r, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		body, _ := env.Body.(map[string]any)
		if body["email"] != "alice@x.com" {
			t.Fatalf("body = %v", env.Body)
		}
		if _, leaked := body["password"]; leaked {
			t.Fatal("password present in profile body")
		}
		if body["imageUrl"] != nil {
			t.Fatalf("imageUrl = %v, want null", body["imageUrl"])
		}
	})

	t.Run("update name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/users", strings.NewReader(`{"name":"Alice B"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w, _ := do(t, r, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if repo.users[1].Name != "Alice B" {
			t.Fatalf("name = %q", repo.users[1].Name)
		}
	})

	t.Run("update with password rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/users", strings.NewReader(`{"password":"sneaky-change"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w, env := do(t, r, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if env.Message != apperr.CodePasswordNotAllowed {
			t.Fatalf("message = %q", env.Message)
		}
	})

	t.Run("search requires only a valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/search?q=alice", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w, _ := do(t, r, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("garbage token status = %d", w.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/users/search?q=alice", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w, env := do(t, r, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if hits, ok := env.Body.([]any); !ok || len(hits) != 0 {
			t.Fatalf("expected empty hits, got %v", env.Body)
		}
	})

	t.Run("delete then get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w, _ := do(t, r, req)
		if w.Code != http.StatusOK {
			t.Fatalf("delete status = %d, body %s", w.Code, w.Body.String())
		}

		req = httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w, env := do(t, r, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("get-after-delete status = %d", w.Code)
		}
		if env.Message != apperr.CodeUserNotFound {
			t.Fatalf("message = %q", env.Message)
		}
	})
}
