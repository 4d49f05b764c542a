// Package dummydb provides in-memory repositories for tests and local
// development without a database.
package dummydb

import (
	"sync"

	"github.com/campusconnect/backend/core/claim"
	"github.com/campusconnect/backend/core/faculty"
	"github.com/campusconnect/backend/core/lostfound"
	"github.com/campusconnect/backend/core/notification"
	"github.com/campusconnect/backend/core/problem"
	"github.com/campusconnect/backend/core/queue"
	"github.com/campusconnect/backend/core/user"
)

type (
	DB struct {
		user          *userTable
		item          *itemTable
		claim         *claimTable
		notification  *notificationTable
		queue         *queueTable
		problem       *problemTable
		facultyStatus *facultyStatusTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
	itemTable struct {
		sync.RWMutex
		table map[string]*lostfound.Item
	}
	claimTable struct {
		sync.RWMutex
		table map[string]*claim.Claim
	}
	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
	queueTable struct {
		sync.RWMutex
		table map[string]*queue.Ticket
	}
	problemTable struct {
		sync.RWMutex
		table map[string]*problem.Problem
	}
	facultyStatusTable struct {
		sync.RWMutex
		table map[string]*faculty.Status // keyed by faculty ID
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:          &userTable{table: make(map[string]*user.User)},
		item:          &itemTable{table: make(map[string]*lostfound.Item)},
		claim:         &claimTable{table: make(map[string]*claim.Claim)},
		notification:  &notificationTable{table: make(map[string]*notification.Notification)},
		queue:         &queueTable{table: make(map[string]*queue.Ticket)},
		problem:       &problemTable{table: make(map[string]*problem.Problem)},
		facultyStatus: &facultyStatusTable{table: make(map[string]*faculty.Status)},
	}
	return db, nil
}
