package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/account-kit/user-service/internal/application"
	"github.com/account-kit/user-service/pkg/response"
	"github.com/account-kit/user-service/pkg/validation"
)

// maxImageBytes caps profile image uploads read into memory.
const maxImageBytes = 5 << 20

type UserHandler struct {
	Usecase *application.UserUseCase
	Logger  *logrus.Logger
}

func NewUserHandler(uc *application.UserUseCase, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Usecase: uc, Logger: logger}
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// bearerToken pulls the token from the Authorization header, with or without
// the Bearer prefix.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// Create handles POST /users: a multipart form with a "body" JSON part and an
// optional "image" file.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := json.Unmarshal([]byte(c.PostForm("body")), &req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var image []byte
	var imageExt string
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		if fh.Size > maxImageBytes {
			response.Fail(c, http.StatusBadRequest, "image too large", nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "unreadable image", nil)
			return
		}
		image, err = io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			response.Fail(c, http.StatusBadRequest, "unreadable image", nil)
			return
		}
		imageExt = strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
		if imageExt == "" {
			response.Fail(c, http.StatusBadRequest, "invalid payload", map[string]string{"image": "file extension required"})
			return
		}
	}

	in := application.NewUser{Name: req.Name, Email: req.Email, Password: req.Password}
	if err := h.Usecase.CreateUser(c.Request.Context(), in, image, imageExt); err != nil {
		h.logFailure(c, "create user", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "user created", nil)
}

// Get handles GET /users: resolves the bearer token to the caller's profile.
func (h *UserHandler) Get(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.Fail(c, http.StatusUnauthorized, "TOKEN_NOT_FOUND", nil)
		return
	}
	user, err := h.Usecase.GetUser(c.Request.Context(), token)
	if err != nil {
		h.logFailure(c, "get user", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "success", user)
}

// Update handles PUT /users with a partial profile patch.
func (h *UserHandler) Update(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.Fail(c, http.StatusUnauthorized, "TOKEN_NOT_FOUND", nil)
		return
	}
	var patch application.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Usecase.UpdateUser(c.Request.Context(), token, patch); err != nil {
		h.logFailure(c, "update user", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "success", nil)
}

// Delete handles DELETE /users.
func (h *UserHandler) Delete(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.Fail(c, http.StatusUnauthorized, "TOKEN_NOT_FOUND", nil)
		return
	}
	if err := h.Usecase.DeleteUser(c.Request.Context(), token); err != nil {
		h.logFailure(c, "delete user", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "success", nil)
}

// Login handles POST /users/login and returns a bearer token.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	token, err := h.Usecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure(c, "login", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "success", gin.H{"token": token})
}

// Search handles GET /users/search?q=&size=.
func (h *UserHandler) Search(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		response.Fail(c, http.StatusUnauthorized, "TOKEN_NOT_FOUND", nil)
		return
	}
	if _, err := h.Usecase.Authenticate(token); err != nil {
		h.logFailure(c, "search users", err)
		response.FromError(c, err)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Usecase.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.logFailure(c, "search users", err)
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "success", hits)
}

func (h *UserHandler) logFailure(c *gin.Context, op string, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.WithError(err).WithFields(logrus.Fields{
		"op":         op,
		"request_id": c.GetString("request_id"),
	}).Warn("request failed")
}
