/*
 * MIT License
 *
 * Copyright (c) 2024 MSL-Network Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logging

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	gormlogger "gorm.io/gorm/logger"
)

// HCLogGORMLogger adapts hashicorp/go-hclog to gorm's logger.Interface, an
// alternate sink for the credential store's SQL logging (teacher's
// database/gorm component takes a FuncGormLog precisely so the logging
// backend is swappable; this rewrite offers hclog as the second backend
// alongside the logrus-backed default).
type HCLogGORMLogger struct {
	log hclog.Logger
}

// NewHCLogGORMLogger wraps an hclog.Logger for use as a gorm logger.
func NewHCLogGORMLogger(log hclog.Logger) *HCLogGORMLogger {
	return &HCLogGORMLogger{log: log}
}

func (h *HCLogGORMLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return h }

func (h *HCLogGORMLogger) Info(_ context.Context, msg string, args ...interface{}) {
	h.log.Info(msg, args...)
}

func (h *HCLogGORMLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	h.log.Warn(msg, args...)
}

func (h *HCLogGORMLogger) Error(_ context.Context, msg string, args ...interface{}) {
	h.log.Error(msg, args...)
}

func (h *HCLogGORMLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	elapsed := time.Since(begin)
	if err != nil {
		h.log.Debug("sql", "query", sql, "rows", rows, "elapsed", elapsed, "error", err)
		return
	}
	h.log.Trace("sql", "query", sql, "rows", rows, "elapsed", elapsed)
}

// DefaultHCLog returns a ready-to-use hclog.Logger at Info level writing
// to the process's standard error, the hclog idiom for "just give me a
// logger" seen throughout the hashicorp ecosystem.
func DefaultHCLog(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: name, Level: hclog.Info})
}
