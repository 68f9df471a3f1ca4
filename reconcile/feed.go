// Copyright 2025 Armando Rocha
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"

	"github.com/Armandorocha13/Finance.io/remote"
)

// Subscription is a live feed channel the session can release.
type Subscription interface {
	Close()
}

// Feed opens owner-scoped change subscriptions.
type Feed interface {
	Subscribe(ctx context.Context, owner string, fn func(remote.Event)) (Subscription, error)
}

// remoteFeed adapts *remote.Feed to the Feed interface.
type remoteFeed struct {
	f *remote.Feed
}

// NewRemoteFeed wraps the Postgres LISTEN/NOTIFY feed for session use.
func NewRemoteFeed(f *remote.Feed) Feed {
	return remoteFeed{f: f}
}

func (r remoteFeed) Subscribe(ctx context.Context, owner string, fn func(remote.Event)) (Subscription, error) {
	sub, err := r.f.Subscribe(ctx, owner, fn)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
