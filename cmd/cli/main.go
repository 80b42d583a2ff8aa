package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:4000"
	}
	key := os.Getenv("API_KEY")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Enter a site URL to monitor (e.g., https://example.com): ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		fmt.Println("Invalid URL.")
		return
	}

	fmt.Print("Extra alert emails, comma-separated (optional): ")
	extra, _ := reader.ReadString('\n')
	var emails []string
	for _, e := range strings.Split(extra, ",") {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}

	body, _ := json.Marshal(map[string]any{"url": raw, "alert_emails": emails})
	req, err := http.NewRequest(http.MethodPost, api+"/api/sites", bytes.NewReader(body))
	if err != nil {
		fmt.Println("Error building request:", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out struct {
			Site struct {
				ID     string `json:"id"`
				URL    string `json:"url"`
				Status string `json:"status"`
			} `json:"site"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err == nil {
			fmt.Printf("Added %s (id=%s), first check: %s\n", out.Site.URL, out.Site.ID, out.Site.Status)
			return
		}
		fmt.Println("Added! Check GET /api/sites for status.")
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
