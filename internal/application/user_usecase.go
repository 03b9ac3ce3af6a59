package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/account-kit/user-service/internal/domain/entity"
	repo "github.com/account-kit/user-service/internal/domain/repository"
	"github.com/account-kit/user-service/pkg/apperr"
	"github.com/account-kit/user-service/pkg/helpers"
	"github.com/account-kit/user-service/pkg/mailer"
)

const profileCacheTTL = 5 * time.Minute

// UserUseCase orchestrates the user lifecycle: registration, lookup, update,
// deletion, and login. It enforces email uniqueness (best effort; the unique
// constraint in the store is authoritative), password hashing, token-based
// identity, and ownership of stored images.
//
// Redis, the publisher, Elasticsearch, and the logger are optional; a nil
// client disables the corresponding side effect.
type UserUseCase struct {
	repo         repo.UserRepository
	images       repo.ImageStore
	jwt          *helpers.JWTManager
	imageBaseURL string
	bcryptCost   int

	rdb     *redis.Client
	logger  *logrus.Logger
	pub     *helpers.RabbitPublisher
	es      *elasticsearch.Client
	esIndex string
}

func NewUserUseCase(
	userRepo repo.UserRepository,
	images repo.ImageStore,
	jwt *helpers.JWTManager,
	imageBaseURL string,
	bcryptCost int,
	rdb *redis.Client,
	logger *logrus.Logger,
	pub *helpers.RabbitPublisher,
	es *elasticsearch.Client,
	esIndex string,
) *UserUseCase {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserUseCase{
		repo:         userRepo,
		images:       images,
		jwt:          jwt,
		imageBaseURL: imageBaseURL,
		bcryptCost:   bcryptCost,
		rdb:          rdb,
		logger:       logger,
		pub:          pub,
		es:           es,
		esIndex:      esIndex,
	}
}

func profileKey(id int64) string {
	return "user:profile:" + strconv.FormatInt(id, 10)
}

// Authenticate resolves a bearer token to a user id without touching storage.
// Guards that only need to know the caller is token-bearing use this instead
// of a full profile load.
func (uc *UserUseCase) Authenticate(token string) (int64, error) {
	id, err := uc.jwt.DecodeToken(token)
	if err != nil {
		return 0, apperr.Authentication(err)
	}
	return id, nil
}

// CreateUser registers an account. The image, when present, is uploaded
// before any persistence mutation, so a failed upload aborts the whole
// operation without leaving a partial user behind.
func (uc *UserUseCase) CreateUser(ctx context.Context, in NewUser, image []byte, imageExt string) error {
	existing, err := uc.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict(apperr.CodeUserAlreadyExists)
	}

	imageURL := ""
	if len(image) > 0 {
		key := in.Email + "." + imageExt
		if err := uc.images.UploadImage(ctx, image, key); err != nil {
			return apperr.Storage(err)
		}
		imageURL = uc.imageBaseURL + key
	}

	hash, err := helpers.HashPasswordCost(in.Password, uc.bcryptCost)
	if err != nil {
		return err
	}
	in.Password = hash

	u := toPersistence(in)
	u.UserImage = imageURL
	if err := uc.repo.CreateUser(ctx, u); err != nil {
		return err
	}

	uc.sendWelcomeEmail(ctx, u)
	uc.indexUser(ctx, u)
	return nil
}

// GetUser resolves the bearer token to an account and returns its external
// shape. A valid token for a since-deleted account yields NotFound.
func (uc *UserUseCase) GetUser(ctx context.Context, token string) (*UserDTO, error) {
	id, err := uc.Authenticate(token)
	if err != nil {
		return nil, err
	}

	if uc.rdb != nil {
		var cached UserDTO
		if ok, cErr := helpers.RedisGetJSON(ctx, uc.rdb, profileKey(id), &cached); cErr == nil && ok {
			return &cached, nil
		}
	}

	u, err := uc.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound)
	}

	dto := toExternal(u)
	if uc.rdb != nil {
		if cErr := helpers.RedisSetJSON(ctx, uc.rdb, profileKey(id), dto, profileCacheTTL); cErr != nil && uc.logger != nil {
			uc.logger.WithError(cErr).WithField("user_id", id).Warn("profile cache write failed")
		}
	}
	return dto, nil
}

// UpdateUser applies a partial update to the token's account. Patches that
// carry a password are rejected before any mutation. No existence check is
// performed: updating an absent id is an idempotent no-op.
func (uc *UserUseCase) UpdateUser(ctx context.Context, token string, patch UserPatch) error {
	id, err := uc.Authenticate(token)
	if err != nil {
		return err
	}

	mapped := patchToPersistence(patch)
	if mapped.Password != nil {
		return apperr.BadRequest(apperr.CodePasswordNotAllowed)
	}
	if mapped.Empty() {
		return nil
	}

	if err := uc.repo.UpdateUser(ctx, id, mapped); err != nil {
		return err
	}

	uc.dropCachedProfile(ctx, id)
	if u, gErr := uc.repo.GetUserByID(ctx, id); gErr == nil && u != nil {
		uc.indexUser(ctx, u)
	}
	return nil
}

// DeleteUser removes the token's account. The image blob goes first: a blob
// deletion failure aborts before the row delete, so a failed run leaves a
// complete user rather than a row pointing at a missing object.
func (uc *UserUseCase) DeleteUser(ctx context.Context, token string) error {
	id, err := uc.Authenticate(token)
	if err != nil {
		return err
	}

	u, err := uc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFound(apperr.CodeUserNotFound)
	}

	if key, ok := uc.imageKeyFromURL(u.UserImage); ok {
		if err := uc.images.DeleteImage(ctx, key); err != nil {
			return apperr.Storage(err)
		}
	}

	if err := uc.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	uc.dropCachedProfile(ctx, id)
	uc.removeFromIndex(ctx, id)
	return nil
}

// Login verifies credentials and issues a bearer token for the account.
// Unknown email and wrong password are distinguishable responses, preserved
// from the source behavior.
func (uc *UserUseCase) Login(ctx context.Context, email, password string) (string, error) {
	u, err := uc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", apperr.NotFound(apperr.CodeUserNotFound)
	}
	if !helpers.CheckPassword(u.Password, password) {
		return "", apperr.Unauthorized(apperr.CodePasswordNotMatch)
	}
	token, _, err := uc.jwt.GenerateToken(u.ID)
	return token, err
}

// imageKeyFromURL recovers the blob key by stripping the configured base URL
// prefix. URLs from another bucket (or garbage) are not ours to delete.
func (uc *UserUseCase) imageKeyFromURL(url string) (string, bool) {
	if url == "" || uc.imageBaseURL == "" || !strings.HasPrefix(url, uc.imageBaseURL) {
		return "", false
	}
	key := strings.TrimPrefix(url, uc.imageBaseURL)
	return key, key != ""
}

func (uc *UserUseCase) dropCachedProfile(ctx context.Context, id int64) {
	if uc.rdb == nil {
		return
	}
	if err := helpers.RedisDel(ctx, uc.rdb, profileKey(id)); err != nil && uc.logger != nil {
		uc.logger.WithError(err).WithField("user_id", id).Warn("profile cache drop failed")
	}
}

func (uc *UserUseCase) sendWelcomeEmail(ctx context.Context, u *entity.User) {
	if uc.pub == nil {
		return
	}
	job := mailer.EmailJob{
		To:      u.Email,
		Subject: "Welcome aboard",
		Text:    fmt.Sprintf("Hi %s, your account has been created.", u.Name),
	}
	if err := uc.pub.PublishJSON(ctx, job); err != nil && uc.logger != nil {
		uc.logger.WithError(err).WithField("email", u.Email).Warn("welcome email enqueue failed")
	}
}

func (uc *UserUseCase) indexUser(ctx context.Context, u *entity.User) {
	if uc.es == nil || uc.esIndex == "" {
		return
	}
	doc := map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"image_url": u.UserImage,
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      uc.esIndex,
		DocumentID: strconv.FormatInt(u.ID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, uc.es)
	if err != nil {
		if uc.logger != nil {
			uc.logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && uc.logger != nil {
		uc.logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

func (uc *UserUseCase) removeFromIndex(ctx context.Context, id int64) {
	if uc.es == nil || uc.esIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: uc.esIndex, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, uc.es)
	if err != nil {
		if uc.logger != nil {
			uc.logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// SearchUsers performs a simple multi_match search on email and name.
func (uc *UserUseCase) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if uc.es == nil || uc.esIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := uc.es.Search(
		uc.es.Search.WithContext(c),
		uc.es.Search.WithIndex(uc.esIndex),
		uc.es.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
