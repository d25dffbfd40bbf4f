package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

var (
	// ErrMissingField is returned when a required option is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidType is returned when an option's wire type or value does not
	// match what the field expects.
	ErrInvalidType = errors.New("invalid option type")
)

// BindError names the option that failed to bind.
type BindError struct {
	Option string
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("option %q: %v", e.Option, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Converter pairs a wire type with a pure conversion of the raw value.
type Converter[T any] struct {
	Type    protocol.OptionType
	Convert func(raw json.RawMessage) (T, error)
}

// Built-in converters.
var (
	String = Converter[string]{
		Type: protocol.OptionString,
		Convert: func(raw json.RawMessage) (string, error) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return "", ErrInvalidType
			}
			return s, nil
		},
	}

	Integer = Converter[int64]{
		Type:    protocol.OptionInteger,
		Convert: decodeInteger,
	}

	Int = Map(Integer, func(v int64) (int, error) {
		if v < math.MinInt || v > math.MaxInt {
			return 0, ErrInvalidType
		}
		return int(v), nil
	})

	Number = Converter[float64]{
		Type: protocol.OptionNumber,
		Convert: func(raw json.RawMessage) (float64, error) {
			var f float64
			if err := json.Unmarshal(raw, &f); err != nil {
				return 0, ErrInvalidType
			}
			return f, nil
		},
	}

	Boolean = Converter[bool]{
		Type: protocol.OptionBoolean,
		Convert: func(raw json.RawMessage) (bool, error) {
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return false, ErrInvalidType
			}
			return b, nil
		},
	}
)

// Snowflake converts an entity reference option (user, channel, role,
// mentionable, attachment) to its id.
func Snowflake(t protocol.OptionType) Converter[string] {
	return Converter[string]{Type: t, Convert: String.Convert}
}

// Map derives a converter with the same wire type from an existing one.
func Map[T, U any](base Converter[T], fn func(T) (U, error)) Converter[U] {
	return Converter[U]{
		Type: base.Type,
		Convert: func(raw json.RawMessage) (U, error) {
			v, err := base.Convert(raw)
			if err != nil {
				var zero U
				return zero, err
			}
			return fn(v)
		},
	}
}

func decodeInteger(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err == nil {
		return n, nil
	}
	// Integers may arrive in exponent or trailing-zero float form.
	var f float64
	if json.Unmarshal(raw, &f) != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, ErrInvalidType
	}
	return int64(f), nil
}

// Field binds one named option into a command struct C.
type Field[C any] struct {
	option protocol.CommandOption
	bind   func(c *C, opt *protocol.CommandDataOption) error
}

// Required declares an option that must be present.
func Required[C, T any](name string, conv Converter[T], set func(c *C, v T)) Field[C] {
	return Field[C]{
		option: protocol.CommandOption{Type: conv.Type, Name: name, Required: true},
		bind: func(c *C, opt *protocol.CommandDataOption) error {
			if opt == nil {
				return ErrMissingField
			}
			v, err := convert(conv, opt)
			if err != nil {
				return err
			}
			set(c, v)
			return nil
		},
	}
}

// Optional declares an option that may be absent; set receives nil then.
func Optional[C, T any](name string, conv Converter[T], set func(c *C, v *T)) Field[C] {
	return Field[C]{
		option: protocol.CommandOption{Type: conv.Type, Name: name},
		bind: func(c *C, opt *protocol.CommandDataOption) error {
			if opt == nil {
				set(c, nil)
				return nil
			}
			v, err := convert(conv, opt)
			if err != nil {
				return err
			}
			set(c, &v)
			return nil
		},
	}
}

func convert[T any](conv Converter[T], opt *protocol.CommandDataOption) (T, error) {
	if opt.Type != conv.Type {
		var zero T
		return zero, fmt.Errorf("%w: got %s, want %s", ErrInvalidType, opt.Type, conv.Type)
	}
	return conv.Convert(opt.Value)
}

// Describe sets the option description shown in the client.
func (f Field[C]) Describe(description string) Field[C] {
	f.option.Description = description
	return f
}

// Choices restricts the option to fixed values.
func (f Field[C]) Choices(choices ...protocol.CommandOptionChoice) Field[C] {
	f.option.Choices = append([]protocol.CommandOptionChoice(nil), choices...)
	return f
}

// Length bounds a string option's length.
func (f Field[C]) Length(min, max int) Field[C] {
	f.option.MinLength = &min
	f.option.MaxLength = &max
	return f
}

// Range bounds an integer or number option's value.
func (f Field[C]) Range(min, max float64) Field[C] {
	f.option.MinValue = &min
	f.option.MaxValue = &max
	return f
}

// Name returns the option name the field binds.
func (f Field[C]) Name() string {
	return f.option.Name
}

// Schema is the option table of a command.
type Schema[C any] []Field[C]

// Bind converts options into a C. Unknown options are ignored. On error the
// zero value is returned, never a partially bound command.
func (s Schema[C]) Bind(options []protocol.CommandDataOption) (C, error) {
	byName := make(map[string]*protocol.CommandDataOption, len(options))
	for i := range options {
		byName[options[i].Name] = &options[i]
	}

	var cmd C
	for _, f := range s {
		if err := f.bind(&cmd, byName[f.option.Name]); err != nil {
			var zero C
			return zero, &BindError{Option: f.option.Name, Err: err}
		}
	}
	return cmd, nil
}

// Options declares the schema for export. Required options come first, as
// the platform demands, otherwise declaration order is kept.
func (s Schema[C]) Options() []protocol.CommandOption {
	if len(s) == 0 {
		return nil
	}
	out := make([]protocol.CommandOption, 0, len(s))
	for _, f := range s {
		if f.option.Required {
			out = append(out, f.describe())
		}
	}
	for _, f := range s {
		if !f.option.Required {
			out = append(out, f.describe())
		}
	}
	return out
}

func (f Field[C]) describe() protocol.CommandOption {
	opt := f.option
	if opt.Description == "" {
		opt.Description = opt.Name
	}
	return opt
}
