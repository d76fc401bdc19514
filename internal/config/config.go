// Package config loads qppconv settings from CUE files.
//
// A file is unified with the embedded #Config definition, so omitted fields
// take their schema defaults and unknown fields are rejected. Scope names
// are checked against the scope catalog.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qppconv/internal/scope"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Scopes     []string `json:"scopes"`
	Validation bool     `json:"validation"`
	Format     string   `json:"format"`
	LogLevel   string   `json:"log_level"`
	DB         string   `json:"db,omitempty"`
	Parallel   int      `json:"parallel"`
	Pretty     bool     `json:"pretty"`
	OutputDir  string   `json:"output_dir"`
}

// Error is a configuration problem, located when CUE reports a position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Parse("default.cue", nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema is invalid: %v", err))
	}
	return cfg
}

// Load reads and parses the file at path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Parse unifies src with #Config and decodes the result. filename is used
// in error positions.
func Parse(filename string, src []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	v := def.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}

	if _, err := scope.Parse(cfg.Scopes); err != nil {
		return Config{}, &Error{
			Field:   "scopes",
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath("scopes")).Pos(),
		}
	}
	return cfg, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	e := &Error{Field: "cue", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		e.Field = path[len(path)-1]
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
