package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
)

type fakeSender struct {
	name  string
	fail  int // fail this many calls before succeeding; -1 fails forever
	err   error
	calls int
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(_ context.Context, _ Contact, _ string) (string, error) {
	f.calls++
	if f.fail == -1 || f.calls <= f.fail {
		if f.err != nil {
			return "", f.err
		}
		return "", errors.New(f.name + " unavailable")
	}
	return f.name, nil
}

func testConfig() config.Config {
	return config.Config{SMSCountryCode: "91", AlertMaxRetries: 5, AlertRetryDelayMs: 30000}
}

func noSleep(sleeps *int) Sleeper {
	return func(ctx context.Context, _ time.Duration) error {
		if sleeps != nil {
			*sleeps++
		}
		return ctx.Err()
	}
}

func TestSendExhaustsRetriesWhenEverythingFails(t *testing.T) {
	sms := &fakeSender{name: "twilio", fail: -1}
	email := &fakeSender{name: "sendgrid", fail: -1}
	d := NewDispatcher(Providers{SMSChain: []Sender{sms}, Email: email}, testConfig())

	sleeps := 0
	d.SetSleeper(noSleep(&sleeps))

	contact := Contact{ID: "c1", Name: "Asha", Phone: "9876543210", Email: "asha@example.com"}
	results := d.Send(context.Background(), []Contact{contact}, "help", SelectorBoth)

	if len(results) != 1 {
		t.Fatalf("expected one result")
	}
	r := results[0]
	if r.OverallSuccess {
		t.Fatalf("expected overall failure")
	}
	if r.AttemptsUsed != 5 {
		t.Fatalf("expected exactly 5 attempts, got %d", r.AttemptsUsed)
	}
	if sleeps != 4 {
		t.Fatalf("expected 4 retry waits, got %d", sleeps)
	}
	if sms.calls != 5 || email.calls != 5 {
		t.Fatalf("expected 5 calls per channel, got sms=%d email=%d", sms.calls, email.calls)
	}
	if r.ChannelResults[ChannelSMS].Success || r.ChannelResults[ChannelSMS].Error == "" {
		t.Fatalf("expected failed sms result with last error")
	}
}

func TestSMSFallbackProviderSucceeds(t *testing.T) {
	primary := &fakeSender{name: "twilio", fail: -1, err: ErrNotConfigured}
	fallback := &fakeSender{name: "textbelt"}
	d := NewDispatcher(Providers{SMSChain: []Sender{primary, fallback}}, testConfig())
	d.SetSleeper(noSleep(nil))

	contact := Contact{ID: "c1", Phone: "9876543210"}
	results := d.Send(context.Background(), []Contact{contact}, "help", string(ChannelSMS))

	r := results[0]
	if !r.OverallSuccess || r.AttemptsUsed != 1 {
		t.Fatalf("expected first-attempt success via fallback, got %+v", r)
	}
	cr := r.ChannelResults[ChannelSMS]
	if !cr.Success || cr.ProviderID != "textbelt" {
		t.Fatalf("expected fallback provider id, got %+v", cr)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("unexpected call counts: %d %d", primary.calls, fallback.calls)
	}
}

func TestOneChannelSuccessStopsRetries(t *testing.T) {
	sms := &fakeSender{name: "twilio", fail: -1}
	email := &fakeSender{name: "sendgrid"}
	d := NewDispatcher(Providers{SMSChain: []Sender{sms}, Email: email}, testConfig())
	d.SetSleeper(noSleep(nil))

	contact := Contact{ID: "c1", Phone: "9876543210", Email: "a@b.c"}
	r := d.Send(context.Background(), []Contact{contact}, "help", SelectorBoth)[0]

	if !r.OverallSuccess || r.AttemptsUsed != 1 {
		t.Fatalf("expected single attempt with overall success, got %+v", r)
	}
	if !r.ChannelResults[ChannelEmail].Success || r.ChannelResults[ChannelSMS].Success {
		t.Fatalf("unexpected channel results: %+v", r.ChannelResults)
	}
}

func TestInvalidPhoneSkippedWithoutConsumingRetries(t *testing.T) {
	sms := &fakeSender{name: "twilio"}
	d := NewDispatcher(Providers{SMSChain: []Sender{sms}}, testConfig())
	d.SetSleeper(noSleep(nil))

	contact := Contact{ID: "c1", Phone: "12345"}
	r := d.Send(context.Background(), []Contact{contact}, "help", string(ChannelSMS))[0]

	if r.OverallSuccess || r.AttemptsUsed != 0 {
		t.Fatalf("expected zero attempts for invalid phone, got %+v", r)
	}
	if sms.calls != 0 {
		t.Fatalf("expected no provider calls")
	}
	if r.ChannelResults[ChannelSMS].Error == "" {
		t.Fatalf("expected validation error recorded")
	}
}

func TestMissingAddressChannelNotAttempted(t *testing.T) {
	email := &fakeSender{name: "sendgrid"}
	d := NewDispatcher(Providers{Email: email}, testConfig())
	d.SetSleeper(noSleep(nil))

	// No phone: sms silently unavailable, email still delivers.
	contact := Contact{ID: "c1", Email: "a@b.c"}
	r := d.Send(context.Background(), []Contact{contact}, "help", SelectorBoth)[0]

	if !r.OverallSuccess {
		t.Fatalf("expected email delivery, got %+v", r)
	}
	if _, attempted := r.ChannelResults[ChannelSMS]; attempted {
		t.Fatalf("sms should not be attempted without a phone")
	}
}

func TestContactsProcessedIndependently(t *testing.T) {
	email := &fakeSender{name: "sendgrid", fail: -1}
	telegram := &fakeSender{name: "telegram"}
	d := NewDispatcher(Providers{Email: email, Telegram: telegram}, testConfig())
	d.SetSleeper(noSleep(nil))

	contacts := []Contact{
		{ID: "failing", Email: "a@b.c"},
		{ID: "ok", ChatID: "42"},
	}
	results := d.Send(context.Background(), contacts, "help", SelectorAll)

	if results[0].OverallSuccess || results[0].AttemptsUsed != 5 {
		t.Fatalf("expected first contact exhausted, got %+v", results[0])
	}
	if !results[1].OverallSuccess || results[1].AttemptsUsed != 1 {
		t.Fatalf("expected second contact delivered, got %+v", results[1])
	}

	s := Summarize(results)
	if s.TotalContacts != 2 || s.Successful != 1 || s.Failed != 1 || s.TotalAttempts != 6 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestCancelAbandonsPendingRetries(t *testing.T) {
	email := &fakeSender{name: "sendgrid", fail: -1}
	d := NewDispatcher(Providers{Email: email}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	d.SetSleeper(func(sleepCtx context.Context, _ time.Duration) error {
		cancel()
		return sleepCtx.Err()
	})

	r := d.Send(ctx, []Contact{{ID: "c1", Email: "a@b.c"}}, "help", string(ChannelEmail))[0]
	if r.OverallSuccess {
		t.Fatalf("expected failure")
	}
	if r.AttemptsUsed != 1 {
		t.Fatalf("expected retries abandoned after first attempt, got %d", r.AttemptsUsed)
	}
	if email.calls != 1 {
		t.Fatalf("expected one issued send, got %d", email.calls)
	}
}

func TestSelectorAllUsesEveryAvailableChannel(t *testing.T) {
	sms := &fakeSender{name: "twilio"}
	email := &fakeSender{name: "sendgrid"}
	whatsapp := &fakeSender{name: "twilio-whatsapp"}
	telegram := &fakeSender{name: "telegram"}
	push := &fakeSender{name: "webpush"}
	d := NewDispatcher(Providers{
		SMSChain: []Sender{sms}, Email: email, WhatsApp: whatsapp, Telegram: telegram, Push: push,
	}, testConfig())
	d.SetSleeper(noSleep(nil))

	contact := Contact{
		ID: "c1", Phone: "9876543210", Email: "a@b.c",
		ChatID: "42", PushEndpoint: "https://push.example/sub",
	}
	r := d.Send(context.Background(), []Contact{contact}, "help", SelectorAll)[0]

	if len(r.ChannelResults) != 5 {
		t.Fatalf("expected 5 channel results, got %d", len(r.ChannelResults))
	}
	for ch, cr := range r.ChannelResults {
		if !cr.Success {
			t.Fatalf("expected %s delivered: %+v", ch, cr)
		}
	}
}

func TestDefaultSleeperHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := defaultSleeper(ctx, time.Minute); err == nil {
		t.Fatalf("expected context error")
	}
	if err := defaultSleeper(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected sleep error: %v", err)
	}
}
