// Package scanner discovers NeuroPlay devices over BLE advertisements,
// filtering by model and deduplicating by address across a scan pass.
package scanner

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
	"github.com/dbehnke/neuroplay-go/pkg/model"
	"github.com/dbehnke/neuroplay-go/pkg/session"
)

// ErrEmptyFilter is returned by New when the configured model filter set
// is empty; a scanner with nothing to match would never discover a
// device, which almost always indicates a configuration mistake rather
// than an intentional "match nothing" scan.
var ErrEmptyFilter = errors.New("scanner: model filter set must not be empty")

// Config controls which devices a Scanner accepts and how long a single
// discovery pass runs.
type Config struct {
	Models  map[model.Model]bool
	Timeout time.Duration
}

// SessionFactory builds a Session for a newly discovered device.
type SessionFactory func(desc *model.Descriptor, addr ble.Addr) *session.Session

// Scanner drives BLE advertisement scanning and hands off newly discovered,
// model-matching, not-yet-seen devices as ready-to-connect Sessions.
type Scanner struct {
	cfg     Config
	log     *logger.Logger
	factory SessionFactory

	mu   sync.Mutex
	seen map[string]*session.Session
}

// New returns a Scanner. It fails with ErrEmptyFilter if cfg.Models is
// empty; a zero cfg.Timeout defaults to 5 seconds.
func New(cfg Config, log *logger.Logger, factory SessionFactory) (*Scanner, error) {
	if len(cfg.Models) == 0 {
		return nil, ErrEmptyFilter
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Scanner{
		cfg:     cfg,
		log:     log.WithComponent("scanner"),
		factory: factory,
		seen:    make(map[string]*session.Session),
	}, nil
}

// Discover drives one scan pass, calling onFound for each newly
// discovered, model-matching, non-duplicate device. It returns when
// cfg.Timeout elapses or ctx is done.
func (s *Scanner) Discover(ctx context.Context, onFound func(*session.Session)) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	err := ble.Scan(ctx, false, func(a ble.Advertisement) {
		name := a.LocalName()
		if name == "" || !s.matchesModel(name) {
			return
		}

		addr := a.Addr().String()
		s.mu.Lock()
		if _, exists := s.seen[addr]; exists {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		desc, err := model.ParseDescriptor(name, addr)
		if err != nil {
			return
		}

		sess := s.factory(desc, a.Addr())
		s.mu.Lock()
		s.seen[addr] = sess
		s.mu.Unlock()

		s.log.Info("discovered device", logger.String("name", desc.FullName), logger.String("address", addr))
		onFound(sess)
	}, nil)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SearchFor scans until a device whose full name matches
// "<model>.* (<id>)" is found, returning it immediately, or returns nil if
// the configured timeout elapses first.
func (s *Scanner) SearchFor(ctx context.Context, m model.Model, id int) (*session.Session, error) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(m.String()) + `.* \(` + strconv.Itoa(id) + `\)$`)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var found *session.Session
	err := s.Discover(ctx, func(sess *session.Session) {
		if found == nil && pattern.MatchString(sess.Descriptor.FullName) {
			found = sess
			cancel()
		}
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// DiscoveredDevices returns every session produced so far, keyed by
// address.
func (s *Scanner) DiscoveredDevices() map[string]*session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*session.Session, len(s.seen))
	for k, v := range s.seen {
		out[k] = v
	}
	return out
}

// ClearDiscovered forgets every previously discovered address, allowing a
// future scan pass to rediscover them.
func (s *Scanner) ClearDiscovered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]*session.Session)
}

func (s *Scanner) matchesModel(name string) bool {
	for m := range s.cfg.Models {
		if strings.Contains(name, m.String()) {
			return true
		}
	}
	return false
}
