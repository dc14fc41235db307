// Command gate is the staff exit-gate client. It reads scanned QR payloads
// from stdin, one per line, and verifies each against the API.
//
//	SCANPAY_URL=http://localhost:10000 SCANPAY_TOKEN=<staff jwt> gate
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"scanpay/internal/config"
	"scanpay/internal/gate"
	"scanpay/internal/models"
)

func main() {
	config.LoadEnv()

	token := os.Getenv("SCANPAY_TOKEN")
	if token == "" {
		log.Fatal("SCANPAY_TOKEN must be set to a staff access token")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier := gate.NewHTTPVerifier(
		config.GetEnv("SCANPAY_URL", "http://localhost:10000"),
		token,
		config.GetDurationEnv("SCANPAY_TIMEOUT", 0),
	)
	workflow := gate.NewWorkflow(verifier,
		gate.WithDwell(config.GetDurationEnv("GATE_DWELL", gate.DefaultDwell)))

	fmt.Println("Ready to scan. Type 'reset' to scan again immediately.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "reset":
			workflow.Reset()
			fmt.Println("Ready to scan.")
			continue
		}

		attempt, err := workflow.Scan(ctx, line)
		if errors.Is(err, gate.ErrBusy) {
			fmt.Printf("Busy (%s), scan ignored\n", workflow.State())
			continue
		}
		fmt.Println(describe(attempt))
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Reading scans failed: %v", err)
	}

	for _, a := range workflow.History() {
		log.Printf("%s %s %s %s", a.At.Format("15:04:05"), a.ReceiptID, a.Outcome, a.Reason)
	}
}

func describe(a *gate.Attempt) string {
	switch a.Outcome {
	case models.OutcomeValid:
		return fmt.Sprintf("VALID  %s  %d paise, %d item(s), paid %s via %s",
			a.ReceiptID, a.Payload.Amount, a.Payload.ItemsCount, a.Payload.PaidAt.Format("02 Jan 15:04"), a.Payload.Method)
	case models.OutcomeAlreadyUsed:
		return fmt.Sprintf("ALREADY USED  %s", a.ReceiptID)
	}
	return fmt.Sprintf("INVALID  %s (%s)", a.ReceiptID, a.Reason)
}
