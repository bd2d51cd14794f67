package alert

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
)

// Sleeper waits out the retry delay. Injectable so tests run without real
// wall-clock waits. Returns the context error when canceled mid-wait.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Dispatcher fans an alert out to each contact's channels with per-channel
// provider fallback and a bounded per-contact retry loop. Contacts are
// processed concurrently and independently; each contact's own retry
// sequence is strictly sequential.
type Dispatcher struct {
	providers   Providers
	countryCode string
	maxRetries  int
	retryDelay  time.Duration
	sleep       Sleeper
}

func NewDispatcher(providers Providers, cfg config.Config) *Dispatcher {
	maxRetries := cfg.AlertMaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	retryDelay := time.Duration(cfg.AlertRetryDelayMs) * time.Millisecond
	if retryDelay <= 0 {
		retryDelay = 30 * time.Second
	}
	return &Dispatcher{
		providers:   providers,
		countryCode: cfg.SMSCountryCode,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		sleep:       defaultSleeper,
	}
}

// SetSleeper replaces the retry delay wait, for tests.
func (d *Dispatcher) SetSleeper(s Sleeper) {
	d.sleep = s
}

// Send delivers message to every contact over the channels implied by
// selector. Canceling ctx abandons pending retries but lets an already
// issued provider call run to completion.
func (d *Dispatcher) Send(ctx context.Context, contacts []Contact, message, selector string) []AttemptResult {
	results := make([]AttemptResult, len(contacts))

	var wg sync.WaitGroup
	for i, c := range contacts {
		wg.Add(1)
		go func(i int, c Contact) {
			defer wg.Done()
			results[i] = d.sendContact(ctx, c, message, selector)
		}(i, c)
	}
	wg.Wait()

	s := Summarize(results)
	log.Printf("alert_dispatch_summary contacts=%d successful=%d failed=%d attempts=%d",
		s.TotalContacts, s.Successful, s.Failed, s.TotalAttempts)
	return results
}

func (d *Dispatcher) sendContact(ctx context.Context, c Contact, message, selector string) AttemptResult {
	res := AttemptResult{
		ContactID:      c.ID,
		ContactName:    c.Name,
		ChannelResults: map[Channel]ChannelResult{},
	}

	channels := d.usableChannels(&c, selector, res.ChannelResults)
	if len(channels) == 0 {
		log.Printf("alert_dispatch contact=%s status=skipped reason=no_usable_channel", c.ID)
		return res
	}

	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		res.AttemptsUsed = attempt

		for _, ch := range channels {
			cr := d.sendChannel(ctx, ch, c, message)
			res.ChannelResults[ch] = cr

			status := "failed"
			if cr.Success {
				status = "delivered"
			}
			log.Printf("alert_dispatch contact=%s channel=%s attempt=%d status=%s provider=%s error=%q",
				c.ID, ch, attempt, status, cr.ProviderID, cr.Error)

			if cr.Success {
				res.OverallSuccess = true
			}
		}
		if res.OverallSuccess {
			return res
		}

		if attempt < d.maxRetries {
			if err := d.sleep(ctx, d.retryDelay); err != nil {
				log.Printf("alert_dispatch contact=%s status=canceled after_attempt=%d", c.ID, attempt)
				return res
			}
		}
	}
	return res
}

// usableChannels resolves the selector to the channels this contact can be
// reached on, normalizing phone numbers up front. Validation failures are
// recorded once and the channel is excluded; they never consume a retry.
func (d *Dispatcher) usableChannels(c *Contact, selector string, results map[Channel]ChannelResult) []Channel {
	var requested []Channel
	switch selector {
	case SelectorBoth, "":
		requested = []Channel{ChannelSMS, ChannelEmail}
	case SelectorAll:
		requested = []Channel{ChannelSMS, ChannelEmail, ChannelWhatsApp, ChannelTelegram, ChannelPush}
	default:
		requested = []Channel{Channel(selector)}
	}

	var usable []Channel
	for _, ch := range requested {
		switch ch {
		case ChannelSMS, ChannelWhatsApp:
			if c.Phone == "" {
				continue
			}
			normalized, err := NormalizePhone(c.Phone, d.countryCode)
			if err != nil {
				results[ch] = ChannelResult{Error: err.Error()}
				continue
			}
			c.Phone = normalized
			usable = append(usable, ch)
		case ChannelEmail:
			if c.Email == "" {
				continue
			}
			if !strings.Contains(c.Email, "@") {
				results[ch] = ChannelResult{Error: ErrInvalidRecipient.Error() + ": " + c.Email}
				continue
			}
			usable = append(usable, ch)
		case ChannelTelegram:
			if c.ChatID != "" {
				usable = append(usable, ch)
			}
		case ChannelPush:
			if c.PushEndpoint != "" {
				usable = append(usable, ch)
			}
		}
	}
	return usable
}

func (d *Dispatcher) sendChannel(ctx context.Context, ch Channel, c Contact, message string) ChannelResult {
	// Provider calls run on a detached context: once a send is issued it is
	// past its point of no return, only retry waits observe cancellation.
	// The provider client's own timeout still bounds the call.
	sendCtx := context.WithoutCancel(ctx)

	if ch == ChannelSMS {
		var lastErr error
		for _, s := range d.providers.SMSChain {
			id, err := s.Send(sendCtx, c, message)
			if err == nil {
				return ChannelResult{Success: true, ProviderID: id}
			}
			lastErr = err
			log.Printf("alert_dispatch contact=%s channel=sms provider=%s status=fallback error=%q", c.ID, s.Name(), err.Error())
		}
		if lastErr == nil {
			lastErr = ErrNotConfigured
		}
		return ChannelResult{Error: lastErr.Error()}
	}

	var sender Sender
	switch ch {
	case ChannelEmail:
		sender = d.providers.Email
	case ChannelWhatsApp:
		sender = d.providers.WhatsApp
	case ChannelTelegram:
		sender = d.providers.Telegram
	case ChannelPush:
		sender = d.providers.Push
	}
	if sender == nil {
		return ChannelResult{Error: ErrNotConfigured.Error()}
	}

	id, err := sender.Send(sendCtx, c, message)
	if err != nil {
		return ChannelResult{Error: err.Error()}
	}
	return ChannelResult{Success: true, ProviderID: id}
}
