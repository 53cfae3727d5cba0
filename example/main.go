// Demonstrates the request pipeline: default headers, a logging pre-hook,
// max-age driven caching and error-hook recovery.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/courierhttp/courier"
)

func main() {
	client := courier.New(
		courier.WithBaseURL("https://httpbin.org"),
		courier.WithHeader("Accept", "application/json"),
		courier.WithTimeout(10*time.Second),
		courier.WithCache(courier.NewMemoryCache(64)),
	).Use(courier.Middleware{
		Request: func(ctx context.Context, req *courier.Request) (*courier.Request, error) {
			log.Printf("-> %s", req.Method)
			return req, nil
		},
		Error: func(ctx context.Context, failure *courier.Error, retry courier.Retry) (courier.ErrorOutcome, error) {
			if failure.Type == courier.ErrorTypeHTTP && failure.StatusCode >= 500 {
				// One shot at recovery through the retry capability.
				if resp, err := retry(ctx); err == nil {
					return courier.Recover(resp), nil
				}
			}
			return courier.Continue(), nil
		},
	})

	resp, err := client.Get(context.Background(), "/json", &courier.Request{
		Query: map[string]interface{}{"pretty": true},
	})
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}

	fmt.Printf("status: %d %s\n", resp.Status, resp.StatusText)
	fmt.Printf("body: %v\n", resp.Body)
}
