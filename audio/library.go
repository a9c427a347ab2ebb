package audio

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"golang.org/x/sync/errgroup"

	"go-drumseq/debug"
)

// maxParallelDecodes bounds concurrent sample decodes in Preload.
const maxParallelDecodes = 4

// Library is the decoded sample cache keyed by sample name. Lookups never
// block; a sample that failed to load simply stays absent.
type Library struct {
	dir        string
	sampleRate int
	synth      bool

	mu      sync.RWMutex
	buffers map[string]*Buffer
	custom  map[string]string  // name → file path added by the user
	static  map[string]*Buffer // buffers put directly, with no file behind them
	loading map[string]chan struct{}
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithSynthFallback serves the built-in synthesized kit for bundled names
// that are missing from the sample directory.
func WithSynthFallback(enabled bool) LibraryOption {
	return func(l *Library) {
		l.synth = enabled
	}
}

// NewLibrary creates an empty cache reading from dir at sampleRate.
func NewLibrary(dir string, sampleRate int, opts ...LibraryOption) *Library {
	l := &Library{
		dir:        dir,
		sampleRate: sampleRate,
		synth:      true,
		buffers:    make(map[string]*Buffer),
		custom:     make(map[string]string),
		static:     make(map[string]*Buffer),
		loading:    make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SampleRate is the rate every cached buffer is resampled to.
func (l *Library) SampleRate() int {
	return l.sampleRate
}

// Lookup returns the decoded buffer for name, if loaded.
func (l *Library) Lookup(name string) (*Buffer, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	buf, ok := l.buffers[name]
	return buf, ok
}

// Names returns the loaded sample names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.buffers))
	for name := range l.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put stores an already decoded buffer under name.
func (l *Library) Put(name string, buf *Buffer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.static[name] = buf
	l.buffers[name] = buf
}

// AddCustom registers a user sample file under name and drops any cached
// buffer so the next Load reads the new file.
func (l *Library) AddCustom(name, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.custom[name] = path
	delete(l.static, name)
	delete(l.buffers, name)
}

// Load decodes name into the cache unless it is cached or already loading.
// Failures are logged and leave the sample absent.
func (l *Library) Load(ctx context.Context, name string) error {
	l.mu.Lock()
	if _, ok := l.buffers[name]; ok {
		l.mu.Unlock()
		return nil
	}
	if wait, ok := l.loading[name]; ok {
		l.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		if _, ok := l.Lookup(name); !ok {
			return fault.New("sample unavailable after concurrent load",
				fmsg.With(name), ftag.With(ftag.NotFound))
		}
		return nil
	}
	done := make(chan struct{})
	l.loading[name] = done
	l.mu.Unlock()

	buf, err := l.decode(name)

	l.mu.Lock()
	delete(l.loading, name)
	if err == nil {
		l.buffers[name] = buf
	}
	close(done)
	l.mu.Unlock()

	if err != nil {
		debug.Log("audio", "failed to load sample %s: %v", name, err)
		return err
	}
	debug.Log("audio", "loaded sample %s (%d frames)", name, buf.Frames())
	return nil
}

func (l *Library) decode(name string) (*Buffer, error) {
	l.mu.RLock()
	path, isCustom := l.custom[name]
	l.mu.RUnlock()

	if !isCustom && l.dir != "" {
		candidate := filepath.Join(l.dir, name)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		buf, err := DecodeFile(path, l.sampleRate)
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("decode sample "+name), ftag.With(ftag.InvalidArgument))
		}
		return buf, nil
	}
	if l.synth {
		if buf, ok := Synthesize(name, l.sampleRate); ok {
			return buf, nil
		}
	}
	return nil, fault.New("sample not found", fmsg.With(name), ftag.With(ftag.NotFound))
}

// Preload loads every name concurrently and returns the first failure.
// The remaining names are still loaded when one fails.
func (l *Library) Preload(ctx context.Context, names []string) error {
	var g errgroup.Group
	g.SetLimit(maxParallelDecodes)
	for _, name := range unique(names) {
		g.Go(func() error {
			return l.Load(ctx, name)
		})
	}
	return g.Wait()
}

// Fork decodes fresh, independent copies of names at sampleRate into a new
// Library with the same sources. The render path uses a fork so that no
// buffer is shared with the live mixer. Names that exist nowhere are
// skipped (they render silent); any other decode failure is returned.
func (l *Library) Fork(ctx context.Context, sampleRate int, names []string) (*Library, error) {
	f := NewLibrary(l.dir, sampleRate, WithSynthFallback(l.synth))

	l.mu.RLock()
	for name, path := range l.custom {
		f.custom[name] = path
	}
	static := make(map[string]*Buffer, len(l.static))
	for name, buf := range l.static {
		static[name] = buf.Clone()
	}
	l.mu.RUnlock()

	for name, buf := range static {
		resampled, err := Resample(buf, sampleRate)
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("resample "+name))
		}
		f.static[name] = resampled
		f.buffers[name] = resampled
	}

	var g errgroup.Group
	g.SetLimit(maxParallelDecodes)
	for _, name := range unique(names) {
		g.Go(func() error {
			err := f.Load(ctx, name)
			if err != nil && ftag.Get(err) == ftag.NotFound {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
