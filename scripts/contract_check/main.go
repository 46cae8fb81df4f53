package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Legacy attendance clients match on the exact status codes and message
// strings returned by POST /api/attendance/mark. This tool logs in against a
// running instance and replays the deny table to catch accidental contract
// drift before a release.

type markCase struct {
	Name       string
	Token      string // "caller" uses the logged-in session, "" is anonymous
	Body       map[string]interface{}
	WantStatus int
	WantMsg    string // empty means any body is accepted
	Critical   bool
}

type result struct {
	Case     markCase
	Status   int
	Message  string
	Duration time.Duration
	Error    error
}

func main() {
	var (
		base     string
		email    string
		password string
		targetID int64
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", "", "Marker account email (mazer or assistant)")
	flag.StringVar(&password, "password", "", "Marker account password")
	flag.Int64Var(&targetID, "target", 0, "User ID the marker is allowed to mark")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if email == "" || password == "" || targetID == 0 {
		log.Fatal("usage: contract_check -email <marker> -password <pw> -target <userId>")
	}

	client := &http.Client{Timeout: timeout}
	token, err := login(client, base, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	cases := []markCase{
		{
			Name:       "missing fields",
			Token:      token,
			Body:       map[string]interface{}{},
			WantStatus: http.StatusBadRequest,
			WantMsg:    "Missing required fields",
			Critical:   true,
		},
		{
			Name:       "zero target id",
			Token:      token,
			Body:       map[string]interface{}{"userId": 0, "date": today, "status": "present"},
			WantStatus: http.StatusBadRequest,
			WantMsg:    "Missing required fields",
			Critical:   true,
		},
		{
			Name:       "anonymous caller",
			Token:      "",
			Body:       map[string]interface{}{"userId": targetID, "date": today, "status": "present"},
			WantStatus: http.StatusUnauthorized,
			WantMsg:    "Unauthorized",
			Critical:   true,
		},
		{
			Name:       "unknown target",
			Token:      token,
			Body:       map[string]interface{}{"userId": 999999999, "date": today, "status": "present"},
			WantStatus: http.StatusNotFound,
			WantMsg:    "User not found",
			Critical:   true,
		},
		{
			Name:       "allowed mark",
			Token:      token,
			Body:       map[string]interface{}{"userId": targetID, "date": today, "status": "present"},
			WantStatus: http.StatusOK,
			Critical:   true,
		},
	}

	var results []result
	breaking := 0
	for _, c := range cases {
		res := runCase(client, base, c)
		if res.Error != nil || res.Status != c.WantStatus || (c.WantMsg != "" && res.Message != c.WantMsg) {
			if c.Critical {
				breaking++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking diffs: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func login(client *http.Client, base, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(joinURL(base, "/api/auth/login"), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if envelope.Data.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}
	return envelope.Data.AccessToken, nil
}

func runCase(client *http.Client, base string, c markCase) result {
	res := result{Case: c}

	body, err := json.Marshal(c.Body)
	if err != nil {
		res.Error = err
		return res
	}
	req, err := http.NewRequest(http.MethodPost, joinURL(base, "/api/attendance/mark"), bytes.NewReader(body))
	if err != nil {
		res.Error = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}

	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err == nil {
		res.Message = msg.Message
	}
	return res
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func printReport(results []result) {
	fmt.Println("Mark Contract Report")
	fmt.Println("====================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.Status != res.Case.WantStatus:
			status = "DIFF"
		case res.Case.WantMsg != "" && res.Message != res.Case.WantMsg:
			status = "DIFF"
		}
		fmt.Printf("[%s] %s\n", status, res.Case.Name)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (want %d) in %s\n", res.Status, res.Case.WantStatus, res.Duration)
		if res.Case.WantMsg != "" {
			fmt.Printf("  Message: %q (want %q)\n", res.Message, res.Case.WantMsg)
		}
	}
}
