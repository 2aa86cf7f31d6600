package user

import (
	"context"
	"testing"

	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/entities"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	byEmail map[string]*entities.User
	byID    map[string]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]*entities.User),
		byID:    make(map[string]*entities.User),
	}
}

func (f *fakeUserRepo) RegisterUser(ctx context.Context, u *entities.User) (*entities.User, error) {
	u.ID = uuid.New()
	f.byEmail[u.Email] = u
	f.byID[u.ID.String()] = u
	return u, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, u *entities.User) (*entities.User, error) {
	f.byEmail[u.Email] = u
	f.byID[u.ID.String()] = u
	return u, nil
}

type fakeJWT struct{}

func (fakeJWT) GenerateTokenUser(userId string, role string) string { return "token-" + userId }

func (fakeJWT) ValidateTokenUser(token string) (*jwt.Token, error) { return nil, nil }

func (fakeJWT) GetUserIDByToken(token string) (string, string, error) { return "", "", nil }

func TestRegisterUserHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, fakeJWT{})

	res, err := svc.RegisterUser(context.Background(), domain.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, res.Role)

	stored := repo.byEmail["ana@example.com"]
	require.NotEqual(t, "hunter2hunter2", stored.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter2hunter2")))
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, fakeJWT{})

	_, err := svc.RegisterUser(context.Background(), domain.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.RegisterUser(context.Background(), domain.RegisterRequest{
		Name: "Other", Email: "ana@example.com", Password: "hunter2hunter2",
	})
	require.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, fakeJWT{})

	_, err := svc.RegisterUser(context.Background(), domain.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: "ana@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email: "ana@example.com", Password: "wrong-password",
	})
	require.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	_, err = svc.Login(context.Background(), domain.LoginRequest{
		Email: "nobody@example.com", Password: "hunter2hunter2",
	})
	require.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestUpdateUserPartialFields(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, fakeJWT{})

	created, err := svc.RegisterUser(context.Background(), domain.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	res, err := svc.UpdateUser(context.Background(), created.ID, domain.UpdateUserRequest{Name: "Ana Maria"})
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", res.Name)
	require.Equal(t, "ana@example.com", res.Email)
}
