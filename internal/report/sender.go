// Package report posts the day's shifts to the configured report
// endpoint. Failures are logged and retried only by the next day's
// scheduled attempt.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crewtime/shiftclock/internal/export"
)

type Sender struct {
	URL    string
	Client *http.Client
	log    io.Writer
}

// NewSender creates a sender posting to url. Send outcomes are written
// to w, one line per attempt.
func NewSender(url string, w io.Writer) *Sender {
	return &Sender{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		log:    w,
	}
}

type payload struct {
	Date   string       `json:"date"`
	Shifts []export.Row `json:"shifts"`
}

// Send posts {date, shifts} as JSON. A transport failure or non-2xx
// response is logged and returned; the caller does not retry within
// the same day.
func (s *Sender) Send(ctx context.Context, date string, rows []export.Row) error {
	body, err := json.Marshal(payload{Date: date, Shifts: rows})
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		s.logf(date, len(rows), "err:"+err.Error())
		return fmt.Errorf("send report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logf(date, len(rows), fmt.Sprintf("err:http_%d", resp.StatusCode))
		return fmt.Errorf("send report: unexpected status %d", resp.StatusCode)
	}

	s.logf(date, len(rows), "ok")
	return nil
}

func (s *Sender) logf(date string, count int, status string) {
	if s.log == nil {
		return
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	fmt.Fprintf(s.log, "[%s] report_send date=%s shifts=%d status=%s\n", ts, date, count, status)
}
