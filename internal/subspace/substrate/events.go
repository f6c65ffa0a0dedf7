package substrate

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/goodnatureofminers/farmerledger/pkg/safe"
)

// minEventRecordSize is a phase tag, the pallet and variant indexes and an empty topic list.
const minEventRecordSize = 4

// EventDecoder splits System.Events storage into individual events using one runtime's metadata.
type EventDecoder struct {
	registry registry.EventRegistry
	parser   parser.EventParser
}

// NewEventDecoder builds the event registry of the runtime described by rawMetadata.
func NewEventDecoder(rawMetadata []byte) (*EventDecoder, error) {
	var meta types.Metadata
	if err := guard("metadata", func() error {
		return codec.Decode(rawMetadata, &meta)
	}); err != nil {
		return nil, err
	}

	var reg registry.EventRegistry
	if err := guard("event registry", func() (err error) {
		reg, err = registry.NewFactory().CreateEventRegistry(&meta)
		return err
	}); err != nil {
		return nil, err
	}
	return &EventDecoder{registry: reg, parser: parser.NewEventParser()}, nil
}

// Decode decodes the SCALE-encoded Vec<EventRecord>, preserving event order.
// Each field is kept as its SCALE encoding.
func (d *EventDecoder) Decode(raw []byte) ([]model.Event, error) {
	if err := checkEventCount(raw); err != nil {
		return nil, err
	}

	storage := types.StorageDataRaw(raw)
	var parsed []*parser.Event
	if err := guard("events", func() (err error) {
		parsed, err = d.parser.ParseEvents(d.registry, &storage)
		return err
	}); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(parsed))
	for i, ev := range parsed {
		pallet, method, ok := strings.Cut(ev.Name, ".")
		if !ok {
			return nil, fmt.Errorf("%w: event %d has no pallet in name %q", model.ErrDecode, i, ev.Name)
		}
		data := make([][]byte, 0, len(ev.Fields))
		for _, f := range ev.Fields {
			b, err := encodeValue(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: event %d %s field %s: %v", model.ErrDecode, i, ev.Name, f.Name, err)
			}
			data = append(data, b)
		}
		events = append(events, model.Event{
			Section: lowerFirst(pallet),
			Method:  method,
			Data:    data,
		})
	}
	return events, nil
}

// checkEventCount rejects event counts the input cannot possibly hold.
func checkEventCount(raw []byte) error {
	r := bytes.NewReader(raw)
	n, err := scale.NewDecoder(r).DecodeUintCompact()
	if err != nil {
		return fmt.Errorf("%w: event count: %v", model.ErrDecode, err)
	}
	if !n.IsUint64() {
		return fmt.Errorf("%w: event count %s out of range", model.ErrDecode, n)
	}
	count, err := safe.Int(n.Uint64())
	if err != nil {
		return fmt.Errorf("%w: event count: %v", model.ErrDecode, err)
	}
	if count > r.Len()/minEventRecordSize {
		return fmt.Errorf("%w: %d events do not fit in %d bytes", model.ErrDecode, count, r.Len())
	}
	return nil
}

// encodeValue turns a decoded field back into SCALE bytes. Sequences are
// flattened without their length prefix, which is exact for fixed-size fields.
func encodeValue(v any) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case registry.DecodedFields:
		var out []byte
		for _, f := range v {
			b, err := encodeValue(f.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	case []any:
		var out []byte
		for _, item := range v {
			b, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		return out, nil
	case *big.Int:
		return codec.Encode(types.NewUCompact(v))
	default:
		return codec.Encode(v)
	}
}

// guard runs a decoder over node-supplied bytes, reporting failures and
// panics on malformed input as model.ErrDecode.
func guard(what string, decode func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", model.ErrDecode, what, r)
		}
	}()
	if err := decode(); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrDecode, what, err)
	}
	return nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
