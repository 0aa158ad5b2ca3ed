package app

import (
	"context"
	"errors"
)

// FanoutAnnouncer delivers each message to every announcer and joins their errors.
type FanoutAnnouncer []Announcer

func (f FanoutAnnouncer) Send(ctx context.Context, channel, text string) error {
	var errs []error
	for _, a := range f {
		if err := a.Send(ctx, channel, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
