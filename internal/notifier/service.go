package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hwbot/internal/homework"
	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

var ErrEmptyText = errors.New("notification text is empty")

// Service sends notifications to a single recipient.
// It is safe for concurrent use.
type Service struct {
	cfg     Config
	sender  kit.Sender
	log     logx.Logger
	limiter *rate.Limiter
	now     func() time.Time

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender kit.Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.HistorySize < 0 {
		cfg.HistorySize = 0
	}
	return &Service{
		cfg:    cfg,
		sender: sender,
		log:    log,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		now:     time.Now,
	}
}

// Notify delivers text to the configured target.
// Any failure is returned as a homework.KindDelivery error.
func (s *Service) Notify(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(text) == "" {
		return homework.DeliveryError(ErrEmptyText)
	}
	if s.sender == nil {
		return homework.DeliveryError(errors.New("no sender configured"))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.record(text, err)
		return homework.DeliveryError(err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	start := s.now()
	ref, err := s.sender.SendText(sctx, s.cfg.Target, text, &kit.SendOptions{DisablePreview: s.cfg.DisablePreview})
	s.record(text, err)
	if err != nil {
		return homework.DeliveryError(err)
	}
	s.log.Debug("notification delivered",
		logx.Int64("chat_id", ref.ChatID),
		logx.Int("message_id", ref.MessageID),
		logx.Duration("took", s.now().Sub(start)),
	)
	return nil
}

func (s *Service) record(text string, err error) {
	if s.cfg.HistorySize == 0 {
		return
	}
	it := HistoryItem{At: s.now(), Text: text, OK: err == nil}
	if err != nil {
		it.Error = err.Error()
	}
	s.hmu.Lock()
	s.history = append(s.history, it)
	if over := len(s.history) - s.cfg.HistorySize; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
	s.hmu.Unlock()
}

// History returns a copy of recent delivery attempts, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}
