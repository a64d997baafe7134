// The MIT License (MIT)
//
// Copyright (c) 2013-2016 Oryx(ossrs)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

// Package logger provides connection-oriented log service built on logrus.
//		logger.Trace.Println(Context, ...)
//		logger.Warn.Println(Context, ...)
//		logger.Error.Println(Context, ...)
// @remark the Context is optional thus can be nil.
package logger

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Context is the per-connection correlation id, implemented by transfer
// sessions so every log line can be tied back to a single connection.
type Context interface {
	// Cid returns the current connection's id.
	Cid() string
}

// loggerPlus adapts a logrus.Logger to the connection-oriented Println
// idiom: every call is tagged with the process pid and, when ctx is
// non-nil, the connection id.
type loggerPlus struct {
	entry *logrus.Logger
	level logrus.Level
}

func newLoggerPlus(l *logrus.Logger, level logrus.Level) Logger {
	return &loggerPlus{entry: l, level: level}
}

func (v *loggerPlus) Println(ctx Context, a ...interface{}) {
	fields := logrus.Fields{"pid": os.Getpid()}
	if ctx != nil {
		fields["cid"] = ctx.Cid()
	}
	v.entry.WithFields(fields).Log(v.level, fmt.Sprint(a...))
}

// Logger is the interface every level (Trace, Warn, Error) satisfies.
type Logger interface {
	// Println logs a, tagged with ctx's connection id when ctx is non-nil.
	Println(ctx Context, a ...interface{})
}

// Trace, the default log level, something worth seeing during normal
// operation, to stdout.
var Trace Logger

// T is an alias for Trace.Println.
func T(ctx Context, a ...interface{}) {
	Trace.Println(ctx, a...)
}

// Warn, the warning level, recoverable anomalies, to stderr.
var Warn Logger

// W is an alias for Warn.Println.
func W(ctx Context, a ...interface{}) {
	Warn.Println(ctx, a...)
}

// Error, the error level, operation-ending failures, to stderr.
var Error Logger

// E is an alias for Error.Println.
func E(ctx Context, a ...interface{}) {
	Error.Println(ctx, a...)
}

func newLogrus(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)

	formatter := &logrus.TextFormatter{FullTimestamp: true}
	if f, ok := w.(*os.File); ok {
		formatter.ForceColors = term.IsTerminal(int(f.Fd()))
	}
	l.SetFormatter(formatter)

	return l
}

func init() {
	Trace = newLoggerPlus(newLogrus(os.Stdout), logrus.InfoLevel)
	Warn = newLoggerPlus(newLogrus(os.Stderr), logrus.WarnLevel)
	Error = newLoggerPlus(newLogrus(os.Stderr), logrus.ErrorLevel)
}

// Switch redirects Trace, Warn, and Error to w.
// @remark user must close previous io for logger never close it.
func Switch(w io.Writer) {
	Trace = newLoggerPlus(newLogrus(w), logrus.InfoLevel)
	Warn = newLoggerPlus(newLogrus(w), logrus.WarnLevel)
	Error = newLoggerPlus(newLogrus(w), logrus.ErrorLevel)

	if c, ok := w.(io.Closer); ok {
		previousIo = c
	}
}

// previousIo is the io.Closer most recently installed by Switch, closed by
// Close.
var previousIo io.Closer

// Close discards any further log output until Switch is called again, and
// closes the writer a previous Switch installed, if any.
func Close() (err error) {
	Trace = newLoggerPlus(newLogrus(ioutil.Discard), logrus.InfoLevel)
	Warn = newLoggerPlus(newLogrus(ioutil.Discard), logrus.WarnLevel)
	Error = newLoggerPlus(newLogrus(ioutil.Discard), logrus.ErrorLevel)

	if previousIo != nil {
		err = previousIo.Close()
		previousIo = nil
	}

	return
}
