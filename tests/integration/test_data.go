package integration

import (
	"fmt"
	"sync/atomic"
	"time"
)

var userSeq atomic.Int64

// UniqueCredentials generates credentials that cannot collide across tests
// in the same run.
func UniqueCredentials(suffix string) (username, email, password string) {
	n := userSeq.Add(1)
	ts := time.Now().UnixNano()
	username = fmt.Sprintf("user-%d-%d-%s", ts, n, suffix)
	email = fmt.Sprintf("user-%d-%d-%s@example.com", ts, n, suffix)
	password = "TestPassword123!"
	return username, email, password
}
