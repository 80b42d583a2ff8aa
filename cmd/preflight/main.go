// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	apiKeys := strings.TrimSpace(os.Getenv("API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	smtpHost := strings.TrimSpace(os.Getenv("SMTP_HOST"))
	smtpUser := strings.TrimSpace(os.Getenv("SMTP_USER"))
	smtpPass := strings.TrimSpace(os.Getenv("SMTP_PASS"))
	fcmCreds := strings.TrimSpace(os.Getenv("FCM_CREDENTIALS_FILE"))
	slack := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK"))

	if apiKeys == "" {
		warn("API_KEYS empty — the API runs in open dev mode (everyone acts as one account).")
	} else {
		bad := 0
		for _, pair := range strings.Split(apiKeys, ",") {
			if !strings.Contains(pair, ":") {
				bad++
			}
		}
		if bad > 0 {
			fail("API_KEYS must be key:user pairs, e.g. k1:alice,k2:bob")
		}
		ok("API_KEYS present")
	}

	if apiAddr == "" {
		warn("API_ADDR is empty; the default bind address will be used.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	if db == "" {
		warn("DATABASE_URL empty — the API will use in-memory stores; sites vanish on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	switch {
	case smtpHost == "":
		warn("SMTP_HOST empty — email alerts disabled.")
	case smtpUser == "" || smtpPass == "":
		fail("SMTP_HOST set but SMTP_USER/SMTP_PASS missing.")
	default:
		ok("SMTP configured (" + smtpHost + ")")
	}

	if fcmCreds == "" {
		warn("FCM_CREDENTIALS_FILE empty — push alerts disabled.")
	} else if _, err := os.Stat(fcmCreds); err != nil {
		fail("FCM_CREDENTIALS_FILE does not exist: " + fcmCreds)
	} else {
		ok("FCM credentials present")
	}

	if slack == "" {
		warn("SLACK_WEBHOOK empty — ops mirror disabled.")
	} else {
		ok("SLACK_WEBHOOK present")
	}

	ok("preflight passed")
}
