package middleware

import (
	"context"
	"errors"
	"fmt"

	"rentshare/internal/app/commands"
	"rentshare/internal/app/uow"
)

// TxOptionsProvider picks transaction options per command. Nil means defaults.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction gives each command its own unit of work. The handler finds it
// through uow.FromContext. Any handler error rolls the unit back; a failed
// rollback is joined to the handler error so errors.Is still matches.
func Transaction(factory uow.UoWFactory, optsFor TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (res any, err error) {
			var opts uow.TxOptions
			if optsFor != nil {
				opts = optsFor(cmd)
			}
			unit, txCtx, err := uow.Begin(ctx, factory, opts)
			if err != nil {
				return nil, fmt.Errorf("%s: begin unit of work: %w", cmd.Key(), err)
			}
			defer func() {
				if err == nil {
					return
				}
				if rbErr := unit.Rollback(txCtx); rbErr != nil {
					err = errors.Join(err, rbErr)
				}
			}()

			if res, err = next.Dispatch(txCtx, cmd); err != nil {
				return nil, err
			}
			if err = unit.Commit(txCtx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
