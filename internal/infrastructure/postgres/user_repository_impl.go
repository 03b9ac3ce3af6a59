package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/account-kit/user-service/internal/domain/entity"
	"github.com/account-kit/user-service/internal/domain/repository"
	"github.com/account-kit/user-service/pkg/apperr"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts the record and assigns the surrogate key. A unique
// violation on email surfaces as Conflict: the constraint is the second line
// of defense behind the use case's existence pre-check.
func (r *UserRepository) CreateUser(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password, user_image)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Name, u.Email, u.Password, u.UserImage)

	if err := row.Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(apperr.CodeUserAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT id, name, email, password, user_image
		FROM users
		WHERE id = $1
	`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT id, name, email, password, user_image
		FROM users
		WHERE email = $1
	`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, query, arg)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.UserImage); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// UpdateUser applies only the set fields of the patch. An absent id is a
// no-op, not an error.
func (r *UserRepository) UpdateUser(ctx context.Context, id int64, patch entity.UserPatch) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", patch.Name)
	add("email", patch.Email)
	add("password", patch.Password)
	add("user_image", patch.UserImage)
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(apperr.CodeUserAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ repository.UserRepository = (*UserRepository)(nil)
