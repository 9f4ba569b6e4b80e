package service

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/heatmap-viewer-go/internal/auth"
	"github.com/jengzang/heatmap-viewer-go/internal/broadcast"
	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/kafkabus"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/observability"
	"github.com/jengzang/heatmap-viewer-go/internal/projector"
	"github.com/jengzang/heatmap-viewer-go/internal/viewer"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
)

var (
	// ErrViewerNotFound is returned for unknown or expired sessions.
	ErrViewerNotFound = errors.New("viewer not found")
	// ErrTooManyViewers is returned when the session limit is reached.
	ErrTooManyViewers = errors.New("too many open viewers")
	// ErrInvalidSize is returned for container sizes outside the limits.
	ErrInvalidSize = errors.New("invalid container size")
)

// Session is one open viewer bound to a dataset.
type Session struct {
	ID        string
	DatasetID string
	Viewer    *viewer.Viewer
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	subs     []broadcast.Subscription
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	for _, sub := range s.subs {
		sub.Remove()
	}
	s.Viewer.Close()
}

// ViewerOptions configure a ViewerService.
type ViewerOptions struct {
	Viewer       viewer.Config
	TTL          time.Duration
	MaxViewers   int     // <= 0 means unlimited
	MaxContainer float64 // largest width or height in pixels; <= 0 means unlimited
	Signer       *auth.Signer
	Publisher    kafkabus.Publisher
	Metrics      *observability.Metrics
	Logger       logrus.FieldLogger
}

// ViewerService keeps viewer sessions in memory and expires idle ones.
type ViewerService struct {
	datasets *DatasetService
	opts     ViewerOptions
	log      logrus.FieldLogger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	stopOnce sync.Once
	stop     chan struct{}
}

// NewViewerService creates a new viewer service
func NewViewerService(datasets *DatasetService, opts ViewerOptions) *ViewerService {
	if opts.Publisher == nil {
		opts.Publisher = kafkabus.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &ViewerService{
		datasets: datasets,
		opts:     opts,
		log:      opts.Logger.WithField("component", "viewers"),
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
}

// Open creates a viewer for a stored dataset and returns it with an access
// token.
func (s *ViewerService) Open(req models.CreateViewerRequest) (*Session, string, error) {
	if err := s.checkSize(req.Width, req.Height); err != nil {
		return nil, "", err
	}
	ds, samples, err := s.datasets.Load(req.DatasetID)
	if err != nil {
		return nil, "", err
	}

	cfg := s.opts.Viewer
	cfg.Axes.X, cfg.Axes.Y = ds.RangeX, ds.RangeY

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		DatasetID: ds.ID,
		Viewer:    viewer.New(samples, req.Width, req.Height, cfg),
		CreatedAt: now,
		lastSeen:  now,
	}

	token, err := s.opts.Signer.Issue(sess.ID)
	if err != nil {
		sess.Viewer.Close()
		return nil, "", err
	}

	s.wire(sess)

	s.mu.Lock()
	if s.opts.MaxViewers > 0 && len(s.sessions) >= s.opts.MaxViewers {
		s.mu.Unlock()
		sess.close()
		return nil, "", ErrTooManyViewers
	}
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.opts.Metrics.SetActiveViewers(n)
	s.log.WithFields(logrus.Fields{"viewer": sess.ID, "dataset": ds.ID, "samples": len(samples)}).Info("viewer opened")
	return sess, token, nil
}

// checkSize rejects sizes that are negative, not finite or above
// MaxContainer.
func (s *ViewerService) checkSize(width, height float64) error {
	limit := s.opts.MaxContainer
	if limit <= 0 {
		limit = math.MaxFloat64
	}
	for _, v := range []float64{width, height} {
		if !(v >= 0 && v <= limit) {
			return fmt.Errorf("%w: %vx%v is outside the allowed range", ErrInvalidSize, width, height)
		}
	}
	return nil
}

// wire forwards pointer and view changes to the message bus.
func (s *ViewerService) wire(sess *Session) {
	pub := s.opts.Publisher
	sess.subs = append(sess.subs,
		sess.Viewer.SubscribePointer(func(p interaction.PointerState) {
			pub.Publish(kafkabus.Update{ViewerID: sess.ID, Kind: "pointer", At: s.now(), Payload: p})
		}),
		sess.Viewer.SubscribeView(func(t viewport.Transform) {
			pub.Publish(kafkabus.Update{ViewerID: sess.ID, Kind: "view", At: s.now(), Payload: t})
		}),
	)
}

// Authorize checks that token grants access to viewer id. While the session
// is open its sliding idle TTL governs access, so token expiry only matters
// once the session is gone.
func (s *ViewerService) Authorize(id, token string) error {
	subject, err := s.opts.Signer.Subject(token)
	if err != nil {
		return err
	}
	if subject != id {
		return fmt.Errorf("%w: token is for another viewer", auth.ErrInvalidToken)
	}
	if s.live(id) {
		return nil
	}
	_, err = s.opts.Signer.Verify(token)
	return err
}

func (s *ViewerService) live(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Get returns a live session and marks it as used.
func (s *ViewerService) Get(id string) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("viewer %s: %w", id, ErrViewerNotFound)
	}
	sess.touch(s.now())
	return sess, nil
}

// Info describes a session.
func (s *ViewerService) Info(sess *Session) models.ViewerInfo {
	return models.ViewerInfo{
		ID:        sess.ID,
		DatasetID: sess.DatasetID,
		Samples:   sess.Viewer.SampleCount(),
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.idleSince().Add(s.opts.TTL),
	}
}

// Dispatch feeds one event to a viewer.
func (s *ViewerService) Dispatch(id string, e interaction.Event) (interaction.Result, error) {
	sess, err := s.Get(id)
	if err != nil {
		return interaction.Result{}, err
	}
	res, err := sess.Viewer.Dispatch(e)
	if err != nil {
		return res, err
	}
	s.opts.Metrics.Event(string(e.Kind))
	return res, nil
}

// Frame builds the current frame of a viewer.
func (s *ViewerService) Frame(id string) (viewer.Frame, error) {
	sess, err := s.Get(id)
	if err != nil {
		return viewer.Frame{}, err
	}
	start := time.Now()
	f, err := sess.Viewer.Frame()
	if err != nil {
		return f, err
	}
	s.opts.Metrics.Frame(time.Since(start), f.Buckets)
	return f, nil
}

// Resize changes a viewer's container size.
func (s *ViewerService) Resize(id string, width, height float64) (bool, error) {
	if err := s.checkSize(width, height); err != nil {
		return false, err
	}
	sess, err := s.Get(id)
	if err != nil {
		return false, err
	}
	return sess.Viewer.Resize(width, height)
}

// SetFlags switches a viewer's layers.
func (s *ViewerService) SetFlags(id string, f projector.Flags) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.Viewer.SetFlags(f)
	return nil
}

// Selection returns the samples inside a viewer's selection.
func (s *ViewerService) Selection(id string) ([]models.Sample, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Viewer.SelectedSamples(), nil
}

// Close ends a session.
func (s *ViewerService) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("viewer %s: %w", id, ErrViewerNotFound)
	}
	sess.close()
	s.opts.Metrics.SetActiveViewers(n)
	s.log.WithField("viewer", id).Info("viewer closed")
	return nil
}

// Len returns the number of open sessions.
func (s *ViewerService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed.
func (s *ViewerService) Sweep() int {
	cutoff := s.now().Add(-s.opts.TTL)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		s.log.WithField("viewer", sess.ID).Info("viewer expired")
	}
	if len(expired) > 0 {
		s.opts.Metrics.SetActiveViewers(n)
	}
	return len(expired)
}

// Start sweeps expired sessions every interval until Shutdown.
func (s *ViewerService) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Shutdown stops the sweeper and closes every session.
func (s *ViewerService) Shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
	s.opts.Metrics.SetActiveViewers(0)
}
