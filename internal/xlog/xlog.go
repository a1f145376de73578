// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xlog is the actor runtime's structured logging facade. It wraps
// go-ethereum/log, giving every package in this module a shared,
// contextual logger instead of ad-hoc fmt.Printf calls.
package xlog

import (
	"log/slog"
	"os"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Re-exported levels so callers never need to import go-ethereum/log directly.
const (
	LevelTrace = gethlog.LevelTrace
	LevelDebug = gethlog.LevelDebug
	LevelInfo  = gethlog.LevelInfo
	LevelWarn  = gethlog.LevelWarn
	LevelError = gethlog.LevelError
	LevelCrit  = gethlog.LevelCrit
)

var level = new(slog.LevelVar)

func init() {
	level.Set(LevelInfo)
	handler := gethlog.NewTerminalHandlerWithLevel(os.Stderr, level, false)
	gethlog.SetDefault(gethlog.NewLogger(handler))
}

// Level returns the process-wide level knob, shared by the admin loglevel endpoint.
func Level() *slog.LevelVar {
	return level
}

// WithContext returns a logger carrying the given key/value pairs on every
// record, e.g. WithContext("pkg", "actor").
func WithContext(ctx ...any) gethlog.Logger {
	return gethlog.New(ctx...)
}
