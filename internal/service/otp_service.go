package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/therebootai/democlinicsoftwarebackend/pkg/notify"
	"go.uber.org/zap"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

var (
	ErrOTPExpired  = errors.New("otp has expired")
	ErrOTPMismatch = errors.New("otp does not match")
)

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// OTPService issues and verifies one-time passwords. Codes live in an
// in-process map keyed by normalized phone number; they are lost on
// restart, which is acceptable for a 5-minute credential.
type OTPService struct {
	notifier notify.Notifier
	ttl      time.Duration
	length   int
	log      *zap.Logger

	mu    sync.Mutex
	codes map[string]otpEntry
}

func NewOTPService(notifier notify.Notifier, ttl time.Duration, length int, log *zap.Logger) *OTPService {
	if length <= 0 {
		length = 6
	}
	return &OTPService{
		notifier: notifier,
		ttl:      ttl,
		length:   length,
		log:      log,
		codes:    make(map[string]otpEntry),
	}
}

// Issue generates a fresh code for the phone number and hands it to the
// notifier. Re-issuing overwrites any outstanding code.
func (s *OTPService) Issue(ctx context.Context, phone string) error {
	phone = normalizePhone(phone)
	if phone == "" {
		return &ValidationError{Fields: []string{"phone is required"}}
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}

	s.mu.Lock()
	s.codes[phone] = otpEntry{code: code, expiresAt: timeNow().Add(s.ttl)}
	s.mu.Unlock()

	if err := s.notifier.SendOTP(ctx, phone, code); err != nil {
		s.log.Error("failed to send otp", zap.String("phone", phone), zap.Error(err))
		return &DependencyError{Dependency: "notification", Err: err}
	}
	return nil
}

// Verify consumes the outstanding code for the phone number. A code
// verifies at most once.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	phone = normalizePhone(phone)

	s.mu.Lock()
	entry, ok := s.codes[phone]
	if ok {
		delete(s.codes, phone)
	}
	s.mu.Unlock()

	if !ok || timeNow().After(entry.expiresAt) {
		return ErrOTPExpired
	}
	if entry.code != code {
		return ErrOTPMismatch
	}
	return nil
}

// PurgeExpired drops expired codes; run periodically from the scheduler.
func (s *OTPService) PurgeExpired() int {
	now := timeNow()
	purged := 0

	s.mu.Lock()
	for phone, entry := range s.codes {
		if now.After(entry.expiresAt) {
			delete(s.codes, phone)
			purged++
		}
	}
	s.mu.Unlock()

	return purged
}

func (s *OTPService) generateCode() (string, error) {
	var b strings.Builder
	for i := 0; i < s.length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
