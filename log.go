// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmbox

import (
	"io"
	"log/slog"
	"math"
)

// slog.DiscardHandler needs go1.24; this handler is never enabled and writes nowhere.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))

func segmentLogger(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = discardLogger
	}
	return l.With(slog.String("segment", name))
}
