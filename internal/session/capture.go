package session

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// CaptureLogger is the default EvidenceCapturer. The mobile client owns the
// actual recording; the backend hands out a capture id the client attaches
// its upload to, and logs the request.
type CaptureLogger struct{}

func NewCaptureLogger() CaptureLogger {
	return CaptureLogger{}
}

func (CaptureLogger) Capture(_ context.Context, reason string) (string, error) {
	id := uuid.NewString()
	log.Printf("evidence_capture capture=%s reason=%q", id, reason)
	return id, nil
}
