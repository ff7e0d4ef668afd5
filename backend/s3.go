package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sync"

	"github.com/rlmcpherson/s3gof3r"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/symmetree-labs/infinitree/object"
)

// S3 stores one object per object.ID hex string as an S3 key, grounded
// directly on the teacher's S3Remote/s3gof3r wrapper. Unlike the
// teacher's git-remote use case, the object layer issues many concurrent
// whole-object puts, so writes are bounded by a semaphore and a
// superseded write for the same id is canceled before the new one is
// registered.
type S3 struct {
	bucket *s3gof3r.Bucket

	sem    *semaphore.Weighted
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[object.ID]*context.CancelFunc
}

// S3Config configures a new S3 backend. AccessKey/SecretKey default to
// the AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY environment variables via
// s3gof3r.EnvKeys() when left empty, matching the credential contract
// used throughout the rest of the ecosystem.
type S3Config struct {
	Domain    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// NewS3 constructs an S3 backend. The returned backend's Sync awaits
// every write accepted so far.
func NewS3(cfg S3Config) (*S3, error) {
	keys := s3gof3r.Keys{AccessKey: cfg.AccessKey, SecretKey: cfg.SecretKey}
	if cfg.AccessKey == "" && cfg.SecretKey == "" {
		var err error
		keys, err = s3gof3r.EnvKeys()
		if err != nil {
			return nil, fmt.Errorf("backend: failed to read S3 credentials from environment: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, _ := errgroup.WithContext(ctx)

	return &S3{
		bucket:  s3gof3r.New(cfg.Domain, keys).Bucket(cfg.Bucket),
		sem:     semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		group:   group,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[object.ID]*context.CancelFunc),
	}, nil
}

func (s *S3) key(id object.ID) string { return id.String() }

// WriteObject hands o's buffer off to an asynchronous, semaphore-bounded
// upload and returns once that upload has been admitted (not completed).
// A still-in-flight upload for the same id is canceled first, so the
// most recently submitted write always wins; call Sync to wait for every
// outstanding upload to finish.
func (s *S3) WriteObject(o *object.WriteObject) error {
	id := o.ID()

	// o's buffer belongs to a reusable WriteObject that may be Reset
	// once this call returns, so the upload needs its own copy.
	payload := make([]byte, len(o.Bytes()))
	copy(payload, o.Bytes())

	s.mu.Lock()
	if cancelPrev, ok := s.pending[id]; ok {
		(*cancelPrev)()
	}
	writeCtx, cancelThis := context.WithCancel(s.ctx)
	s.pending[id] = &cancelThis
	s.mu.Unlock()

	if err := s.sem.Acquire(writeCtx, 1); err != nil {
		return nil // superseded before it even started; not an error
	}

	s.group.Go(func() error {
		defer s.sem.Release(1)

		w, err := s.bucket.PutWriter(s.key(id), nil, nil)
		if err != nil {
			return ioFailure("WriteObject", id, err)
		}
		if _, err := w.Write(payload); err != nil {
			w.Close()
			return ioFailure("WriteObject", id, err)
		}
		if err := w.Close(); err != nil {
			return ioFailure("WriteObject", id, err)
		}

		s.mu.Lock()
		if s.pending[id] == &cancelThis {
			delete(s.pending, id)
		}
		s.mu.Unlock()
		return nil
	})
	return nil
}

func (s *S3) ReadObject(id object.ID) (*object.ReadObject, error) {
	return s.ReadFresh(id)
}

func (s *S3) ReadFresh(id object.ID) (*object.ReadObject, error) {
	r, _, err := s.bucket.GetReader(s.key(id), nil)
	if err != nil {
		return nil, notFound("ReadObject", id)
	}
	defer r.Close()

	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, ioFailure("ReadObject", id, err)
	}
	return object.NewReadObject(id, buf), nil
}

// Preload is a no-op: S3 has no local cache tier of its own (wrap it in
// a Cache for that).
func (s *S3) Preload(ids []object.ID) {}

// KeepWarm is a no-op for the same reason.
func (s *S3) KeepWarm(ids []object.ID) error { return nil }

// Delete issues a signed DELETE request directly, since s3gof3r's Bucket
// only exposes Get/Put helpers, mirroring the signed-request pattern the
// teacher uses in S3Remote.ListChunks.
func (s *S3) Delete(id object.ID) error {
	loc := fmt.Sprintf("%s://%s.%s/%s", s.bucket.Scheme, s.bucket.Name, s.bucket.Domain, s.key(id))
	req, err := http.NewRequest(http.MethodDelete, loc, nil)
	if err != nil {
		return ioFailure("Delete", id, err)
	}
	s.bucket.Sign(req)

	resp, err := s.bucket.Client.Do(req)
	if err != nil {
		return ioFailure("Delete", id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return ioFailure("Delete", id, fmt.Errorf("unexpected status %s", resp.Status))
	}
	return nil
}

// Sync awaits every write accepted so far, surfacing the first error.
func (s *S3) Sync() error {
	return s.group.Wait()
}
