// conflict_probe fires concurrent booking requests for the same
// classroom slot against a running server and verifies that exactly
// one of them wins. Useful as a smoke test for the booking
// transaction after schema or query changes.
//
// Usage:
//
//	go run ./scripts/conflict_probe -base http://localhost:8080/api/v1 \
//	  -classroom room-1 -student student-1 -date 2025-03-03 -slot 3-4 -n 8
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

type bookingPayload struct {
	StudentID    string `json:"student_id"`
	ClassroomID  string `json:"classroom_id"`
	ActivityName string `json:"activity_name"`
	Date         string `json:"date"`
	TimeSlot     string `json:"time_slot"`
}

type attempt struct {
	status   int
	duration time.Duration
	err      error
}

func main() {
	base := flag.String("base", "http://localhost:8080/api/v1", "API base URL")
	classroom := flag.String("classroom", "", "classroom id to contend for")
	student := flag.String("student", "", "student id used for every attempt")
	date := flag.String("date", "", "booking date (YYYY-MM-DD)")
	slot := flag.String("slot", "3-4", "named time slot")
	n := flag.Int("n", 8, "number of concurrent attempts")
	flag.Parse()

	if *classroom == "" || *student == "" || *date == "" {
		flag.Usage()
		os.Exit(2)
	}

	payload, err := json.Marshal(bookingPayload{
		StudentID:    *student,
		ClassroomID:  *classroom,
		ActivityName: "conflict probe",
		Date:         *date,
		TimeSlot:     *slot,
	})
	if err != nil {
		log.Fatalf("marshal payload: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	url := *base + "/reservations"

	attempts := make([]attempt, *n)
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < *n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			began := time.Now()
			resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
			attempts[i].duration = time.Since(began)
			if err != nil {
				attempts[i].err = err
				return
			}
			defer resp.Body.Close()
			attempts[i].status = resp.StatusCode
		}(i)
	}

	close(start)
	wg.Wait()

	var created, conflicted, failed int
	for i, a := range attempts {
		switch {
		case a.err != nil:
			failed++
			fmt.Printf("attempt %d: error after %s: %v\n", i, a.duration, a.err)
		case a.status == http.StatusCreated:
			created++
			fmt.Printf("attempt %d: 201 in %s\n", i, a.duration)
		case a.status == http.StatusConflict:
			conflicted++
			fmt.Printf("attempt %d: 409 in %s\n", i, a.duration)
		default:
			failed++
			fmt.Printf("attempt %d: unexpected status %d in %s\n", i, a.status, a.duration)
		}
	}

	fmt.Printf("\ncreated=%d conflicted=%d failed=%d\n", created, conflicted, failed)
	if created != 1 {
		fmt.Println("FAIL: expected exactly one winning booking")
		os.Exit(1)
	}
	fmt.Println("OK: single winner, remaining attempts rejected")
}
