package user

// Role ids seeded by the migration.
const (
	RoleAdmin = 1
	RoleUser  = 2
)

const (
	RoleNameAdmin = "ROLE_ADMIN"
	RoleNameUser  = "ROLE_USER"
)

type User struct {
	ID       int    `json:"id"`
	Login    string `json:"login"`
	Password string `json:"-"`
	RoleID   int    `json:"role_id"`
}

// Profile is the one-to-one personal data row owned by a User.
type Profile struct {
	ID      int    `json:"id"`
	UserID  int    `json:"user_id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// Account is the joined user+profile row returned by FindOneByID. ID is the
// profile id; UserID the user id, matching the two-table delete contract.
type Account struct {
	ID      int    `json:"id"`
	UserID  int    `json:"user_id"`
	Login   string `json:"login"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// Summary is one row of the admin user listing.
type Summary struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	Role  string `json:"role"`
}

type RegisterRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ID          int    `json:"id"`
	Login       string `json:"login"`
}
