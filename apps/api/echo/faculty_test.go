package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/backend/core/faculty"
	"github.com/campusconnect/backend/core/user"
)

func Test_facultyApi_status(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", "stud@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	prof := env.createUser(t, "Prof", "profes1", "prof@test.cd", "pwd", "Science", []string{user.RoleFaculty}, true)
	dean := env.createUser(t, "Dean", "deande1", "dean@test.cd", "pwd", "Science", []string{user.RoleFaculty}, true)

	// students may not advertise availability
	rec := env.do(t, http.MethodPut, "/v1/faculty/status/me", env.getToken(t, student), echoMap{"status": "Available"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// an unset status reads back as unavailable
	rec = env.do(t, http.MethodGet, "/v1/faculty/status/me", env.getToken(t, prof), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st faculty.Status
	decodeBody(t, rec, &st)
	assert.Equal(t, faculty.StatusUnavailable, st.Status)

	// display labels normalize to canonical states
	rec = env.do(t, http.MethodPut, "/v1/faculty/status/me", env.getToken(t, prof), echoMap{
		"status":   "In Class",
		"message":  "Back at 3pm",
		"location": "Room 204",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &st)
	assert.Equal(t, faculty.StatusInClass, st.Status)
	assert.Equal(t, "Back at 3pm", st.Message)

	rec = env.do(t, http.MethodGet, "/v1/faculty/status/me", env.getToken(t, prof), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &st)
	assert.Equal(t, faculty.StatusInClass, st.Status)

	// the directory lists every faculty member, set or not
	rec = env.do(t, http.MethodGet, "/v1/faculty/status", env.getToken(t, student), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entries []faculty.Entry
	decodeBody(t, rec, &entries)
	require.Len(t, entries, 2)

	byID := make(map[string]faculty.Entry, len(entries))
	for _, e := range entries {
		byID[e.Faculty.ID] = e
	}
	assert.Equal(t, faculty.StatusInClass, byID[prof.ID].Status)
	assert.Equal(t, faculty.StatusUnavailable, byID[dean.ID].Status)
}
