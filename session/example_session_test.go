package session_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/swanhubx/swanlab-go/session"
)

// Example demonstrates a session recovering from transient server errors.
func Example() {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&requestCount, 1)
		if count <= 3 { // Fail first 3 times
			fmt.Printf("Server: Request %d -> 500 Internal Server Error\n", count)
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			fmt.Printf("Server: Request %d -> 200 OK\n", count)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Success after backoff"))
		}
	}))
	defer server.Close()

	// Zero backoff keeps the example fast; production sessions read
	// SWANLAB_RETRY_TOTAL and SWANLAB_RETRY_BACKOFF_FACTOR instead.
	client := session.NewSessionBuilder().
		WithRetryTotal(4).
		WithBackoffFactor(0).
		Build()

	fmt.Println("Client: Making request...")
	resp, err := client.Get(server.URL)
	if err != nil {
		fmt.Printf("Client: Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Client: Received response: Status=%s, Body='%s'\n", resp.Status, string(body))

	// Output:
	// Client: Making request...
	// Server: Request 1 -> 500 Internal Server Error
	// Server: Request 2 -> 500 Internal Server Error
	// Server: Request 3 -> 500 Internal Server Error
	// Server: Request 4 -> 200 OK
	// Client: Received response: Status=200 OK, Body='Success after backoff'
}
