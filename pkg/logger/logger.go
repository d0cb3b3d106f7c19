// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger hands out the process-wide zap logger. The default is
// console output at info level on stderr; the CLI's -v and -q flags move
// the level through SetLevel before anything interesting runs.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	loggerInit sync.Once
	sugarInit  sync.Once

	logger *zap.Logger
	sugar  *zap.SugaredLogger
)

func newCore() zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stderr), level)
}

// Get returns the shared structured logger, creating it on first use.
func Get() *zap.Logger {
	loggerInit.Do(func() {
		logger = zap.New(newCore())
	})
	return logger
}

// Sugar returns the shared sugared logger, creating it on first use.
func Sugar() *zap.SugaredLogger {
	sugarInit.Do(func() {
		sugar = Get().Sugar()
	})
	return sugar
}

// SetLevel moves the level for both loggers, existing and future.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}
