package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/backend/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	env.createUser(t, "Awe Some", "awesome", "awe@test.cd", "LordHaveMercy!", "", []string{user.RoleStudent}, true)
	env.createUser(t, "Sleepy Head", "sleepy", "sleepy@test.cd", "LordHaveMercy!", "", []string{user.RoleStudent}, false)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{name: "missing fields", body: echoMap{}, wantCode: http.StatusBadRequest},
		{name: "unknown user", body: echoMap{"username": "lol", "password": "lol"}, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "wrong password", body: echoMap{"username": "awesome", "password": "lol"}, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "deactivated account", body: echoMap{"username": "sleepy", "password": "LordHaveMercy!"}, wantCode: http.StatusForbidden, wantErr: "account deactivated"},
		{name: "login with username", body: echoMap{"username": "awesome", "password": "LordHaveMercy!"}, wantCode: http.StatusOK},
		{name: "login with email", body: echoMap{"username": "awe@test.cd", "password": "LordHaveMercy!"}, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/users/login", "", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				decodeBody(t, rec, &resp)
				assert.NotEmpty(t, resp.Token)
			} else if tt.wantErr != "" {
				var resp errResponse
				decodeBody(t, rec, &resp)
				assert.Equal(t, tt.wantErr, resp.Error)
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Hero", "heroic", "hero@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	admin := env.createUser(t, "Admin", "admin1", "admin@test.cd", "pwd", "", []string{user.RoleAdmin}, true)

	// unauthenticated
	rec := env.do(t, http.MethodGet, "/v1/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// student is not allowed
	rec = env.do(t, http.MethodGet, "/v1/users", env.getToken(t, student), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// admin sees everyone
	rec = env.do(t, http.MethodGet, "/v1/users", env.getToken(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var users []user.User
	decodeBody(t, rec, &users)
	assert.Len(t, users, 2)

	// filtered by role
	rec = env.do(t, http.MethodGet, "/v1/users?role="+user.RoleStudent, env.getToken(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users = nil
	decodeBody(t, rec, &users)
	require.Len(t, users, 1)
	assert.Equal(t, student.ID, users[0].ID)
}

func Test_userApi_retrieve(t *testing.T) {
	env := setup(t)

	usr1 := env.createUser(t, "One", "user01", "one@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	usr2 := env.createUser(t, "Two", "user02", "two@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	admin := env.createUser(t, "Admin", "admin1", "admin@test.cd", "pwd", "", []string{user.RoleAdmin}, true)

	// own profile
	rec := env.do(t, http.MethodGet, "/v1/users/"+usr1.ID, env.getToken(t, usr1), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// someone else's profile is hidden
	rec = env.do(t, http.MethodGet, "/v1/users/"+usr2.ID, env.getToken(t, usr1), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// admin sees it
	rec = env.do(t, http.MethodGet, "/v1/users/"+usr2.ID, env.getToken(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got user.User
	decodeBody(t, rec, &got)
	assert.Equal(t, usr2.ID, got.ID)
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)

	usr := env.createUser(t, "Fresh", "freshy", "fresh@test.cd", "pwd", "", []string{user.RoleStudent}, true)

	rec := env.do(t, http.MethodPost, "/v1/users/token-refresh", env.getToken(t, usr), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
}

type (
	echoMap     = map[string]interface{}
	errResponse struct {
		Error string `json:"error"`
	}
)
