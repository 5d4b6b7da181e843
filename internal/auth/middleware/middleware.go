package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahmudshamim/ExamFlow/internal/rbac"
)

type AuthService struct {
	hmac          []byte
	adminUser     string
	adminPassHash string // bcrypt
	hrUser        string
	hrPassHash    string // bcrypt; empty disables the hr login
}

func NewAuthService(secret, adminUser, adminPassHash, hrUser, hrPassHash string) *AuthService {
	return &AuthService{
		hmac:          []byte(secret),
		adminUser:     adminUser,
		adminPassHash: adminPassHash,
		hrUser:        hrUser,
		hrPassHash:    hrPassHash,
	}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "hr" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "examflow",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// roleFor resolves a credential pair to its role, or "" when it matches
// neither configured account.
func (a *AuthService) roleFor(username, password string) string {
	check := func(hash string) bool {
		return hash != "" &&
			bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	switch {
	case username == a.adminUser && check(a.adminPassHash):
		return "admin"
	case username == a.hrUser && check(a.hrPassHash):
		return "hr"
	}
	return ""
}

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		role := a.roleFor(req.Username, req.Password)
		if role == "" {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(req.Username, role)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	}
}

func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := rbac.WithRole(rbac.WithSubject(r.Context(), claims.Sub), claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
