package mlmodel

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion tags every serialized model.
const FormatVersion = "mandipulse.model/v1"

type envelope struct {
	Format    string           `msgpack:"format"`
	Kind      Kind             `msgpack:"kind"`
	Forest    *Forest          `msgpack:"forest,omitempty"`
	Isolation *IsolationForest `msgpack:"isolation,omitempty"`
}

// EncodeForest writes f as msgpack.
func EncodeForest(w io.Writer, f *Forest) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(&envelope{Format: FormatVersion, Kind: f.Kind, Forest: f})
}

// EncodeIsolationForest writes f as msgpack.
func EncodeIsolationForest(w io.Writer, f *IsolationForest) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(&envelope{Format: FormatVersion, Kind: KindIsolation, Isolation: f})
}

func decodeEnvelope(r io.Reader, want Kind) (*envelope, error) {
	var env envelope
	if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if env.Format != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrCorruptModel, env.Format)
	}
	if env.Kind != want {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, want, env.Kind)
	}
	return &env, nil
}

// DecodeForest reads a forest of the wanted kind and validates it.
func DecodeForest(r io.Reader, want Kind) (*Forest, error) {
	env, err := decodeEnvelope(r, want)
	if err != nil {
		return nil, err
	}
	if env.Forest == nil || env.Forest.Kind != want {
		return nil, fmt.Errorf("%w: missing %s payload", ErrCorruptModel, want)
	}
	if err := env.Forest.Validate(); err != nil {
		return nil, err
	}
	return env.Forest, nil
}

// DecodeIsolationForest reads an isolation forest and validates it.
func DecodeIsolationForest(r io.Reader) (*IsolationForest, error) {
	env, err := decodeEnvelope(r, KindIsolation)
	if err != nil {
		return nil, err
	}
	if env.Isolation == nil {
		return nil, fmt.Errorf("%w: missing isolation payload", ErrCorruptModel)
	}
	if err := env.Isolation.Validate(); err != nil {
		return nil, err
	}
	return env.Isolation, nil
}
