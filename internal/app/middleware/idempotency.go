package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"rentshare/internal/app/commands"
)

// IdempotentCommand is implemented by commands a client may safely retry,
// like a booking request sent again after a timeout.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer the stored result decodes into.
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored result of a command that already succeeded
// under the same key. Keys are scoped by command and actor so two users can
// reuse a client generated key. Failures are not stored so the client can retry.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idem, key := idempotencyKey(cmd)
			if key == "" {
				return next.Dispatch(ctx, cmd)
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("idempotency lookup %s: %w", cmd.Key(), err)
			}
			if found {
				return replay(codec, idem, rec)
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			rec = IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if result != nil {
				if rec.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, rec); err != nil {
				return nil, errors.Join(errors.New("middleware: result not recorded"), err)
			}
			return result, nil
		})
	}
}

func idempotencyKey(cmd commands.Command) (IdempotentCommand, string) {
	idem, ok := cmd.(IdempotentCommand)
	if !ok || idem.IdempotencyKey() == "" {
		return nil, ""
	}
	actor := ""
	if m, ok := cmd.(ActorMessage); ok {
		actor = m.ActorID()
	}
	if actor == "" {
		return idem, cmd.Key() + ":" + idem.IdempotencyKey()
	}
	return idem, cmd.Key() + ":" + actor + ":" + idem.IdempotencyKey()
}

func replay(codec ResultCodec, cmd IdempotentCommand, rec IdempotencyRecord) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, fmt.Errorf("idempotency replay %s: %w", cmd.Key(), err)
	}
	if rv := reflect.ValueOf(proto); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}
	return proto, nil
}
