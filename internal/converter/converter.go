// Package converter sequences a conversion: parse, decode, validate,
// encode.
//
// A Converter holds only shared read-only registries, so one value serves
// any number of concurrent conversions. Each call to Transform owns its
// tree and its error accumulators.
//
// Failures cross the boundary as a single *failure.TransformError. A
// document that cannot be parsed or decoded fails fatally with one detail.
// Validation and encoding collect every detail in the tree and fail once
// at the end of their phase.
package converter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/qppconv/internal/decode"
	"github.com/roach88/qppconv/internal/encode"
	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/ir"
	"github.com/roach88/qppconv/internal/logging"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/store"
	"github.com/roach88/qppconv/internal/validate"
	"github.com/roach88/qppconv/internal/xmldoc"
)

// Recorder persists the outcome of each conversion.
// Implemented by *store.Store.
type Recorder interface {
	RecordConversion(ctx context.Context, c store.Conversion) (store.Conversion, bool, error)
}

// Result is a successful conversion.
type Result struct {
	RequestID string
	Source    string
	Scopes    []string

	// Output is the encoded document, or the scoped fragment list.
	Output ir.Value

	// Hash is the domain-separated content hash of Output.
	Hash string
}

// JSON renders Output as indented canonical JSON.
func (r *Result) JSON() ([]byte, error) {
	return ir.Indent(r.Output)
}

// Converter runs conversions.
type Converter struct {
	decoders   *decode.Registry
	paths      *decode.PathRegistry
	validators *validate.Registry
	encoders   *encode.Registry
	ids        IDGenerator
	recorder   Recorder
	logger     *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithIDGenerator sets the request ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Converter) { c.ids = g }
}

// WithRecorder records every finished conversion, successful or not.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) { c.recorder = r }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithDecoders replaces the decode registries. paths may be nil.
func WithDecoders(decoders *decode.Registry, paths *decode.PathRegistry) Option {
	return func(c *Converter) { c.decoders, c.paths = decoders, paths }
}

// WithValidators replaces the validator registry.
func WithValidators(r *validate.Registry) Option {
	return func(c *Converter) { c.validators = r }
}

// WithEncoders replaces the encoder registry.
func WithEncoders(r *encode.Registry) Option {
	return func(c *Converter) { c.encoders = r }
}

// New creates a Converter over the default registries.
func New(opts ...Option) *Converter {
	decoders, paths := decode.Defaults()
	c := &Converter{
		decoders:   decoders,
		paths:      paths,
		validators: validate.Default(),
		encoders:   encode.Default(),
		ids:        UUIDv7Generator{},
		logger:     logging.New("converter"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transform converts the document from src under the settings in cc. A nil
// cc uses NewContext.
//
// Conversion failures are returned as *failure.TransformError. An I/O
// error opening src is returned as is. If recording fails after a
// successful conversion, the result is returned together with the
// recording error.
func (c *Converter) Transform(ctx context.Context, cc *Context, src Source) (*Result, error) {
	if cc == nil {
		cc = NewContext()
	}
	id := c.ids.Generate()
	name := src.Name()
	logger := c.logger.With(slog.String("request_id", id), slog.String("source", name))

	root, err := c.parse(src)
	if err != nil {
		if te, ok := failure.AsTransformError(err); ok {
			return nil, c.fail(ctx, logger, id, cc, name, te)
		}
		return nil, err
	}
	logger.Debug("parsed", "root", root.Name)

	tree, err := decode.NewWalker(c.decoders, c.paths).Tree(root)
	if err != nil {
		return nil, c.fail(ctx, logger, id, cc, name, failure.Fatal(name, failure.KindDecode, err))
	}
	logger.Debug("decoded", "nodes", tree.Size())

	out, te := c.convertTree(tree, cc, name)
	if te != nil {
		return nil, c.fail(ctx, logger, id, cc, name, te)
	}

	hash, err := ir.OutputHash(out)
	if err != nil {
		return nil, fmt.Errorf("hash output: %w", err)
	}
	res := &Result{
		RequestID: id,
		Source:    name,
		Scopes:    cc.ScopeNames(),
		Output:    out,
		Hash:      hash,
	}
	logger.Info("conversion finished", "status", store.StatusSuccess, "scopes", res.Scopes, "errors", 0)

	if err := c.record(ctx, store.Conversion{
		ID:               id,
		Source:           name,
		Scopes:           res.Scopes,
		Status:           store.StatusSuccess,
		OutputHash:       hash,
		ConverterVersion: ir.ConverterVersion,
	}); err != nil {
		return res, err
	}
	return res, nil
}

// ConvertTree validates and encodes an already decoded tree. It performs
// no parsing, logging of outcomes or recording.
func (c *Converter) ConvertTree(tree *node.Node, cc *Context, source string) (ir.Value, error) {
	if cc == nil {
		cc = NewContext()
	}
	out, te := c.convertTree(tree, cc, source)
	if te != nil {
		return nil, te
	}
	return out, nil
}

func (c *Converter) convertTree(tree *node.Node, cc *Context, source string) (ir.Value, *failure.TransformError) {
	selected := cc.Selected()

	if cc.DoValidation() {
		if details := validate.Tree(tree, selected, c.validators); len(details) > 0 {
			return nil, failure.Aggregate(source, failure.KindValidation, details)
		}
	}

	out, details := encode.NewWalker(c.encoders).Tree(tree, selected)
	if len(details) > 0 {
		return nil, failure.Aggregate(source, failure.KindEncode, details)
	}
	return out, nil
}

func (c *Converter) parse(src Source) (*xmldoc.Element, error) {
	r, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer r.Close()

	root, err := xmldoc.Parse(r)
	if err != nil {
		return nil, failure.Fatal(src.Name(), failure.KindParse, err)
	}
	return root, nil
}

// fail logs and records a failed conversion and returns te.
func (c *Converter) fail(ctx context.Context, logger *slog.Logger, id string, cc *Context, source string, te *failure.TransformError) error {
	logger.Info("conversion finished",
		"status", store.StatusFailed,
		"kind", te.Kind(),
		"scopes", cc.ScopeNames(),
		"errors", te.Payload.DetailCount(),
	)
	if err := c.record(ctx, store.Conversion{
		ID:               id,
		Source:           source,
		Scopes:           cc.ScopeNames(),
		Status:           store.StatusFailed,
		ErrorKind:        te.Kind(),
		Errors:           te.Payload,
		ConverterVersion: ir.ConverterVersion,
	}); err != nil {
		logger.Error("record failed conversion", "error", err)
	}
	return te
}

func (c *Converter) record(ctx context.Context, conv store.Conversion) error {
	if c.recorder == nil {
		return nil
	}
	if _, _, err := c.recorder.RecordConversion(ctx, conv); err != nil {
		return fmt.Errorf("record conversion %s: %w", conv.ID, err)
	}
	return nil
}
