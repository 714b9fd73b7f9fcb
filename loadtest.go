package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	url := "http://localhost:8080/api/summarize"
	userID := "loadtest-user"

	var successCount int64
	var limitedCount int64
	var errorCount int64
	var wg sync.WaitGroup

	numRequests := 200
	concurrentWorkers := 20

	startTime := time.Now()

	jobs := make(chan int, numRequests)

	// start workers
	for w := 0; w < concurrentWorkers; w++ {
		wg.Add(1)
		go worker(w, jobs, url, userID, &successCount, &limitedCount, &errorCount, &wg)
	}

	// send jobs
	for j := 0; j < numRequests; j++ {
		jobs <- j
	}
	close(jobs)

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests in %s\n", numRequests, elapsed)
	fmt.Printf("  200 OK:        %d\n", atomic.LoadInt64(&successCount))
	fmt.Printf("  429 limited:   %d\n", atomic.LoadInt64(&limitedCount))
	fmt.Printf("  other/errors:  %d\n", atomic.LoadInt64(&errorCount))
}

func worker(id int, jobs <-chan int, url, userID string, successCount, limitedCount, errorCount *int64, wg *sync.WaitGroup) {
	defer wg.Done()

	client := &http.Client{Timeout: 90 * time.Second}

	for j := range jobs {
		payload := map[string]interface{}{
			"appId":   fmt.Sprintf("load-%d", j%5),
			"reviews": []string{"Great game", "Fun but buggy", "Runs well on older hardware"},
			"userId":  userID,
		}

		body, _ := json.Marshal(payload)
		resp, err := client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("worker %d request %d failed: %v", id, j, err)
			atomic.AddInt64(errorCount, 1)
			continue
		}
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			atomic.AddInt64(successCount, 1)
		case http.StatusTooManyRequests:
			atomic.AddInt64(limitedCount, 1)
		default:
			atomic.AddInt64(errorCount, 1)
		}
	}
}
