package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users    map[string]*User
	profiles map[string]*Profile
	roles    map[int][]string
	created  []*RegisterRequest
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:    map[string]*User{},
		profiles: map[string]*Profile{},
		roles:    map[int][]string{},
	}
}

func (f *fakeUserStore) addUser(id int, login, password string, roles ...string) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	f.users[login] = &User{ID: id, Login: login, Password: string(hashed), RoleID: RoleUser}
	f.profiles[login] = &Profile{ID: id, UserID: id, Email: login + "@example.com"}
	f.roles[id] = roles
}

func (f *fakeUserStore) GetUserByLogin(ctx context.Context, login string) *User {
	return f.users[login]
}

func (f *fakeUserStore) GetUserRoles(ctx context.Context, userID int) []string {
	return f.roles[userID]
}

func (f *fakeUserStore) GetUserData(ctx context.Context, login string) *Profile {
	return f.profiles[login]
}

func (f *fakeUserStore) Create(ctx context.Context, req *RegisterRequest) error {
	f.created = append(f.created, req)
	return nil
}

func (f *fakeUserStore) SaveData(ctx context.Context, p *Profile) error {
	for login, stored := range f.profiles {
		if stored.UserID == p.UserID {
			f.profiles[login] = p
		}
	}
	return nil
}

func (f *fakeUserStore) SavePassword(ctx context.Context, hashedPassword, login string) error {
	u := f.users[login]
	if u != nil {
		u.Password = hashedPassword
	}
	return nil
}

func (f *fakeUserStore) UniqueLogin(ctx context.Context, login string, excludeID int) (bool, error) {
	u := f.users[login]
	return u == nil || u.ID == excludeID, nil
}

func (f *fakeUserStore) UniqueEmail(ctx context.Context, email string, excludeUserID int) (bool, error) {
	for _, p := range f.profiles {
		if p.Email == email && p.UserID != excludeUserID {
			return false, nil
		}
	}
	return true, nil
}

func newUserService() (*Service, *fakeUserStore) {
	store := newFakeUserStore()
	return NewService(store, "test-secret"), store
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, store := newUserService()

	req := &RegisterRequest{Login: "jan", Password: "sekret99", Email: "jan@example.com"}
	require.NoError(t, svc.Register(context.Background(), req))

	require.Len(t, store.created, 1)
	stored := store.created[0]
	assert.NotEqual(t, "sekret99", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("sekret99")))
	// The caller's request is left untouched.
	assert.Equal(t, "sekret99", req.Password)
}

func TestRegisterRejectsTakenLoginAndEmail(t *testing.T) {
	svc, store := newUserService()
	store.addUser(1, "jan", "sekret99")

	err := svc.Register(context.Background(), &RegisterRequest{Login: "jan", Email: "new@example.com"})
	assert.ErrorIs(t, err, ErrLoginTaken)

	err = svc.Register(context.Background(), &RegisterRequest{Login: "ola", Email: "jan@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Empty(t, store.created)
}

func TestLoginRoundTripsThroughToken(t *testing.T) {
	svc, store := newUserService()
	store.addUser(7, "jan", "sekret99")

	resp, err := svc.Login(context.Background(), &LoginRequest{Login: "jan", Password: "sekret99"})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.ID)
	assert.Equal(t, "jan", resp.Login)

	id, login, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.Equal(t, "jan", login)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, store := newUserService()
	store.addUser(7, "jan", "sekret99")

	_, err := svc.Login(context.Background(), &LoginRequest{Login: "jan", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &LoginRequest{Login: "nobody", Password: "sekret99"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsForgeries(t *testing.T) {
	svc, store := newUserService()
	store.addUser(7, "jan", "sekret99")

	resp, err := svc.Login(context.Background(), &LoginRequest{Login: "jan", Password: "sekret99"})
	require.NoError(t, err)

	other := NewService(store, "another-secret")
	_, _, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIsAdmin(t *testing.T) {
	svc, store := newUserService()
	store.addUser(1, "admin", "sekret99", RoleNameAdmin, RoleNameUser)
	store.addUser(2, "jan", "sekret99", RoleNameUser)

	ctx := context.Background()
	assert.True(t, svc.IsAdmin(ctx, 1))
	assert.False(t, svc.IsAdmin(ctx, 2))
	// Unknown users have no roles and no admin rights.
	assert.False(t, svc.IsAdmin(ctx, 99))
}

func TestUpdateData(t *testing.T) {
	svc, store := newUserService()
	store.addUser(7, "jan", "sekret99")
	store.addUser(8, "ola", "sekret99")

	ctx := context.Background()

	// Keeping your own email is fine.
	err := svc.UpdateData(ctx, "jan", "Jan", "Kowalski", "jan@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jan", store.profiles["jan"].Name)
	assert.Equal(t, "Kowalski", store.profiles["jan"].Surname)

	// Someone else's email is not.
	err = svc.UpdateData(ctx, "jan", "Jan", "Kowalski", "ola@example.com")
	assert.ErrorIs(t, err, ErrEmailTaken)

	err = svc.UpdateData(ctx, "nobody", "X", "Y", "x@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	svc, store := newUserService()
	store.addUser(7, "jan", "sekret99")

	ctx := context.Background()

	err := svc.UpdatePassword(ctx, "jan", "wrong", "newpass1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.UpdatePassword(ctx, "jan", "sekret99", "newpass1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Login: "jan", Password: "newpass1"})
	assert.NoError(t, err)

	err = svc.UpdatePassword(ctx, "nobody", "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)
}
