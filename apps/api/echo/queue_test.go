package echoapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/backend/core/queue"
	"github.com/campusconnect/backend/core/user"
)

func Test_queueApi_join(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", "stud@test.cd", "pwd", "Science", []string{user.RoleStudent}, true)
	admin := env.createUser(t, "Admin", "admin1", "admin@test.cd", "pwd", "", []string{user.RoleAdmin}, true)

	// only students join the line
	rec := env.do(t, http.MethodPost, "/v1/queue/tickets", env.getToken(t, admin), echoMap{"service": "Registrar"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// service is required
	rec = env.do(t, http.MethodPost, "/v1/queue/tickets", env.getToken(t, student), echoMap{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/queue/tickets", env.getToken(t, student), echoMap{"service": "Registrar"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ticket queue.Ticket
	decodeBody(t, rec, &ticket)
	assert.Equal(t, queue.StatusWaiting, ticket.Status)
	assert.Equal(t, 1, ticket.Position)
	assert.True(t, strings.HasPrefix(ticket.TicketNumber, "R-"), ticket.TicketNumber)
	assert.Equal(t, "Science", ticket.Department) // defaults to the student's department
}

func Test_queueApi_cancel(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", "stud@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	other := env.createUser(t, "Other", "other1", "other@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	token := env.getToken(t, student)

	rec := env.do(t, http.MethodPost, "/v1/queue/tickets", token, echoMap{"service": "Registrar"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ticket queue.Ticket
	decodeBody(t, rec, &ticket)

	// only the holder may cancel
	rec = env.do(t, http.MethodPost, "/v1/queue/tickets/"+ticket.ID+"/cancel", env.getToken(t, other), echoMap{})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/queue/tickets/"+ticket.ID+"/cancel", token, echoMap{"reason": "found the answer online"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &ticket)
	assert.Equal(t, queue.StatusCancelled, ticket.Status)
	assert.Equal(t, "found the answer online", ticket.CancelledReason)
	assert.Equal(t, 0, ticket.Position)

	// cancelling twice fails
	rec = env.do(t, http.MethodPost, "/v1/queue/tickets/"+ticket.ID+"/cancel", token, echoMap{})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func Test_queueApi_updateStatus(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", "stud@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	admin := env.createUser(t, "Admin", "admin1", "admin@test.cd", "pwd", "", []string{user.RoleAdmin}, true)

	rec := env.do(t, http.MethodPost, "/v1/queue/tickets", env.getToken(t, student), echoMap{"service": "Financial Aid Office"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ticket queue.Ticket
	decodeBody(t, rec, &ticket)
	assert.True(t, strings.HasPrefix(ticket.TicketNumber, "FAO-"), ticket.TicketNumber)

	// students may not run the counter
	rec = env.do(t, http.MethodPut, "/v1/queue/tickets/"+ticket.ID+"/status", env.getToken(t, student), echoMap{"status": "called"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/v1/queue/tickets/"+ticket.ID+"/status", env.getToken(t, admin), echoMap{"status": "called"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &ticket)
	assert.Equal(t, queue.StatusCalled, ticket.Status)
	assert.Equal(t, admin.ID, ticket.HandledBy)

	rec = env.do(t, http.MethodPut, "/v1/queue/tickets/"+ticket.ID+"/status", env.getToken(t, admin), echoMap{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &ticket)
	assert.Equal(t, queue.StatusCompleted, ticket.Status)
	assert.NotNil(t, ticket.CompletedAt)
	assert.Equal(t, 0, ticket.Position)

	// the student was kept in the loop
	rec = env.do(t, http.MethodGet, "/v1/notifications", env.getToken(t, student), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifs NotificationsResponse
	decodeBody(t, rec, &notifs)
	assert.Equal(t, 2, notifs.Unread)
}

func Test_queueApi_queryQueue(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", "stud@test.cd", "pwd", "", []string{user.RoleStudent}, true)
	admin := env.createUser(t, "Admin", "admin1", "admin@test.cd", "pwd", "", []string{user.RoleAdmin}, true)

	env.do(t, http.MethodPost, "/v1/queue/tickets", env.getToken(t, student), echoMap{"service": "Registrar"})
	env.do(t, http.MethodPost, "/v1/queue/tickets", env.getToken(t, student), echoMap{"service": "Library"})

	// the queue view is admin only
	rec := env.do(t, http.MethodGet, "/v1/queue?service=Registrar", env.getToken(t, student), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// service is required
	rec = env.do(t, http.MethodGet, "/v1/queue", env.getToken(t, admin), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/queue?service=Registrar", env.getToken(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tickets []queue.Ticket
	decodeBody(t, rec, &tickets)
	assert.Len(t, tickets, 1)

	// anyone can see which services have lines
	rec = env.do(t, http.MethodGet, "/v1/queue/services", env.getToken(t, student), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var services []string
	decodeBody(t, rec, &services)
	assert.Equal(t, []string{"Library", "Registrar"}, services)
}
