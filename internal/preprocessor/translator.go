package preprocessor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures a Translator.
type Options struct {
	Markers  MarkerStyle
	Logger   *zap.Logger
	Registry *Registry
}

// Option is a functional option for New.
type Option func(*Options)

// WithMarkers selects the compact line-marker style when compact is true.
func WithMarkers(compact bool) Option {
	return func(o *Options) {
		o.Markers = MarkerStyleFor(compact)
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithRegistry replaces the directive set.
func WithRegistry(r *Registry) Option {
	return func(o *Options) {
		if r != nil {
			o.Registry = r
		}
	}
}

// Translator turns annotated sources into compilable sources with a generated
// suite. A Translator holds no per-file state and is safe for concurrent use.
type Translator struct {
	opts Options
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	o := Options{
		Markers:  StyleLineDirective,
		Logger:   zap.NewNop(),
		Registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Translator{opts: o}
}

// Result describes a completed translation.
type Result struct {
	Source        string
	SuiteName     string
	WrapModule    string
	Metadata      *Metadata
	Registrations int
	Lines         int
	Duration      time.Duration
}

// TestNames returns the declared tests in order.
func (r *Result) TestNames() []string {
	return r.Metadata.TestNames()
}

// Translate reads name's content from r and writes the translation to w.
// Nothing is written to w unless the whole translation succeeds.
func (t *Translator) Translate(name string, r io.Reader, w io.Writer) (*Result, error) {
	start := time.Now()
	base := fileBase(name)

	var out bytes.Buffer
	sc := NewScanner(name, r, &out)
	meta := NewMetadata(base)
	ctx := NewContext(sc, &out, meta, t.opts.Markers, t.opts.Logger.With(zap.String("file", name)))

	for {
		raw, ok := sc.Next()
		if !ok {
			break
		}
		matched, err := t.opts.Registry.Dispatch(ctx, raw)
		if err != nil {
			return nil, err
		}
		if !matched {
			out.WriteString(raw)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	meta.Finalize()
	emitter := NewEmitter(meta, base, name)
	n, err := emitter.Emit(&out)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(out.Bytes()); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	res := &Result{
		Source:        name,
		SuiteName:     emitter.SuiteName(),
		WrapModule:    meta.Suite.WrapModuleName,
		Metadata:      meta,
		Registrations: n,
		Lines:         sc.Line(),
		Duration:      time.Since(start),
	}
	t.opts.Logger.Debug("translated",
		zap.String("file", name),
		zap.String("suite", res.SuiteName),
		zap.Int("tests", len(meta.Methods)),
		zap.Int("registrations", n),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// TranslateFile translates source into target. target is replaced atomically,
// so a failed translation never leaves a partial file behind.
func (t *Translator) TranslateFile(source, target string) (*Result, error) {
	in, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	var buf bytes.Buffer
	res, err := t.Translate(source, in, &buf)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(target, buf.Bytes()); err != nil {
		return nil, err
	}
	return res, nil
}

// Inspect translates source without writing any output.
func (t *Translator) Inspect(source string) (*Result, error) {
	in, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	return t.Translate(source, in, io.Discard)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// fileBase strips directory and extension from name.
func fileBase(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
