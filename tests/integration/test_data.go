package integration

import (
	"fmt"
	"time"
)

// TestManager generates unique manager credentials using a timestamp
func TestManager(suffix string) (login, password string) {
	ts := time.Now().UnixNano()
	login = fmt.Sprintf("manager-%d-%s", ts, suffix)
	password = "TestPassword123!"
	return
}

// TestPhone generates a unique phone number for contact submissions
func TestPhone() string {
	return fmt.Sprintf("+1%010d", time.Now().UnixNano()%10000000000)
}
