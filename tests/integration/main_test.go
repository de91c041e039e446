package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("skipping integration tests in short mode")
		os.Exit(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	db, err := SetupTestDatabase(ctx)
	cancel()
	if err != nil {
		fmt.Printf("failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	teardownCtx, teardownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	_ = testDB.Teardown(teardownCtx)
	teardownCancel()

	os.Exit(code)
}
