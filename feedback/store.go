// Package feedback implements the append-only submission log of the condo
// feedback portal: append, count, list, recent, delimited/structured export
// and whole-log purge, persisted through an injected kvstore handle.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/essexfb/backend/kvstore"
)

// DefaultLogKey matches the key the browser build of the portal used, so a
// migrated data file keeps working.
const DefaultLogKey = "essex-feedback-submissions"

const sinkTimeout = 15 * time.Second

// Store owns the submission log. Appends from one Store instance are
// serialized by a mutex; independent processes sharing the same backing
// storage overwrite each other last-writer-wins. That limitation is
// accepted: the log is read whole and written whole on every mutation.
type Store struct {
	kv     kvstore.Store
	logKey string
	now    func() time.Time
	sinks  []Sink
	logger *slog.Logger

	mu      sync.Mutex
	lastSeq int64
}

type StoreOption func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithSink registers a best-effort forwarding target for appended records.
func WithSink(sink Sink) StoreOption {
	return func(s *Store) { s.sinks = append(s.sinks, sink) }
}

func WithLogKey(key string) StoreOption {
	return func(s *Store) { s.logKey = key }
}

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

func NewStore(kv kvstore.Store, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		logKey: DefaultLogKey,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) load(ctx context.Context) ([]Submission, error) {
	raw, ok, err := s.kv.Get(ctx, s.logKey)
	if err != nil {
		return nil, newErrPersistenceFailure("read log", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var subs []Submission
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return nil, newErrPersistenceFailure("decode log", err)
	}
	return subs, nil
}

func (s *Store) persist(ctx context.Context, subs []Submission) error {
	data, err := json.Marshal(subs)
	if err != nil {
		return newErrPersistenceFailure("encode log", err)
	}
	if err := s.kv.Set(ctx, s.logKey, string(data)); err != nil {
		return newErrPersistenceFailure("write log", err)
	}
	return nil
}

// nextID issues an opaque id that increases with every append, even across
// restarts: ids embed a sequence number seeded from wall time and bumped
// past both the previous issue and the newest id already in the log.
func (s *Store) nextID(subs []Submission) string {
	seq := s.now().UnixMilli()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	if len(subs) > 0 {
		if tail := parseSeq(subs[len(subs)-1].ID); tail >= seq {
			seq = tail + 1
		}
	}
	s.lastSeq = seq
	return fmt.Sprintf("feedback_%d", seq)
}

func parseSeq(id string) int64 {
	n, err := strconv.ParseInt(strings.TrimPrefix(id, "feedback_"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Append assigns a fresh id and timestamp to the given fields, persists the
// grown log, and only then reports success. Registered sinks are notified
// afterwards in the background; their failures never affect the result.
func (s *Store) Append(ctx context.Context, f Fields) (AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load(ctx)
	if err != nil {
		return AppendResult{}, err
	}

	sub := Submission{
		ID:          s.nextID(subs),
		SubmittedAt: s.now(),
		Fields:      f,
	}
	subs = append(subs, sub)

	if err := s.persist(ctx, subs); err != nil {
		return AppendResult{}, err
	}

	s.forward(sub)

	return AppendResult{ID: sub.ID, Count: len(subs)}, nil
}

func (s *Store) forward(sub Submission) {
	for _, sink := range s.sinks {
		sink := sink
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			defer cancel()
			if err := sink.Forward(ctx, sub); err != nil {
				s.logger.Warn("feedback sink failed",
					"sink", sink.Name(), "submission", sub.ID, "error", err)
			}
		}()
	}
}

// Count returns the current number of records, 0 if the log was never
// created.
func (s *Store) Count(ctx context.Context) (int, error) {
	subs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(subs), nil
}

// List returns the whole log in append order. An absent log is an empty
// slice, not an error.
func (s *Store) List(ctx context.Context) ([]Submission, error) {
	return s.load(ctx)
}

// Recent returns the n newest records by submission time, newest first.
// Records sharing a timestamp order by reverse append position. n <= 0
// yields nothing; n beyond the log size yields the whole log.
func (s *Store) Recent(ctx context.Context, n int) ([]Submission, error) {
	if n <= 0 {
		return nil, nil
	}
	subs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	type indexed struct {
		sub Submission
		pos int
	}
	ordered := make([]indexed, len(subs))
	for i, sub := range subs {
		ordered[i] = indexed{sub: sub, pos: i}
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.sub.SubmittedAt.Equal(b.sub.SubmittedAt) {
			return a.sub.SubmittedAt.After(b.sub.SubmittedAt)
		}
		return a.pos > b.pos
	})

	if n > len(ordered) {
		n = len(ordered)
	}
	result := make([]Submission, n)
	for i := 0; i < n; i++ {
		result[i] = ordered[i].sub
	}
	return result, nil
}

// Purge clears the whole log. The caller is responsible for confirming with
// a human first; the store just deletes. An already-empty log reports
// nothing_to_clear so callers can skip their confirmation prompt.
func (s *Store) Purge(ctx context.Context) (PurgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load(ctx)
	if err != nil {
		return PurgeResult{}, err
	}
	if len(subs) == 0 {
		return PurgeResult{}, newErrNothingToClear()
	}
	if err := s.kv.Remove(ctx, s.logKey); err != nil {
		return PurgeResult{}, newErrPersistenceFailure("clear log", err)
	}
	return PurgeResult{ClearedCount: len(subs)}, nil
}
