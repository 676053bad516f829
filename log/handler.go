// Copyright 2025 The pdxlint Authors
// This file is part of pdxlint.
//
// pdxlint is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package log

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/go-stack/stack"
)

// Handler defines where and how log records are written. Handlers are
// composable, providing you great flexibility in combining them to achieve
// the logging structure that suits your applications.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler returns a Handler that logs records with the given function.
func FuncHandler(fn func(r *Record) error) Handler {
	return funcHandler(fn)
}

type funcHandler func(r *Record) error

func (h funcHandler) Log(r *Record) error {
	return h(r)
}

// StreamHandler writes log records to an io.Writer with the given format.
// StreamHandler can be used to easily begin writing log records to other
// outputs. StreamHandler wraps itself with LazyHandler-free SyncHandler to
// guard against concurrent writes.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	h := FuncHandler(func(r *Record) error {
		_, err := wr.Write(fmtr.Format(r))
		return err
	})
	return SyncHandler(h)
}

// SyncHandler can be wrapped around a handler to guarantee that only a
// single Log operation can proceed at a time.
func SyncHandler(h Handler) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		return h.Log(r)
	})
}

// CallerFileHandler returns a Handler that adds the line number and file of
// the calling function to the context with key "caller".
func CallerFileHandler(h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		r.Ctx = append(r.Ctx, "caller", fmt.Sprint(r.Call))
		return h.Log(r)
	})
}

// CallerFuncHandler returns a Handler that adds the calling function name to
// the context with key "fn".
func CallerFuncHandler(h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		r.Ctx = append(r.Ctx, "fn", formatCall("%+n", r.Call))
		return h.Log(r)
	})
}

func formatCall(format string, c stack.Call) string {
	return fmt.Sprintf(format, c)
}

// LvlFilterHandler returns a Handler that only writes records which are
// less than the given verbosity level to the wrapped Handler.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FilterHandler(func(r *Record) (pass bool) {
		return r.Lvl <= maxLvl
	}, h)
}

// FilterHandler returns a Handler that only writes records to the wrapped
// Handler if the given function evaluates true.
func FilterHandler(fn func(r *Record) bool, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if fn(r) {
			return h.Log(r)
		}
		return nil
	})
}

// MultiHandler dispatches any write to each of its handlers.
// This is useful for writing different types of log information
// to different locations.
func MultiHandler(hs ...Handler) Handler {
	return FuncHandler(func(r *Record) error {
		for _, h := range hs {
			// what to do about failures?
			h.Log(r)
		}
		return nil
	})
}

// DiscardHandler reports success for all writes but does nothing.
// It is useful for dynamically disabling logging at runtime.
func DiscardHandler() Handler {
	return FuncHandler(func(r *Record) error {
		return nil
	})
}

// swapHandler wraps another handler that may be swapped out dynamically at
// runtime in a thread-safe fashion.
type swapHandler struct {
	handler atomic.Value
}

func (h *swapHandler) Log(r *Record) error {
	return (*h.handler.Load().(*Handler)).Log(r)
}

func (h *swapHandler) Swap(newHandler Handler) {
	h.handler.Store(&newHandler)
}

func (h *swapHandler) Get() Handler {
	return *h.handler.Load().(*Handler)
}

// GlogHandler gates records behind an adjustable verbosity level, in the
// style of Google's glog. The verbosity can be changed while the program is
// running, which the watch subcommand relies on.
type GlogHandler struct {
	origin Handler
	level  uint32
}

// NewGlogHandler creates a new log handler with filtering functionality.
// The returned handler blocks everything until a verbosity is set.
func NewGlogHandler(h Handler) *GlogHandler {
	return &GlogHandler{origin: h}
}

// Verbosity sets the glog verbosity ceiling. Records above the ceiling are
// dropped.
func (h *GlogHandler) Verbosity(level Lvl) {
	atomic.StoreUint32(&h.level, uint32(level))
}

// Log implements Handler, filtering records against the verbosity ceiling.
func (h *GlogHandler) Log(r *Record) error {
	if uint32(r.Lvl) <= atomic.LoadUint32(&h.level) {
		return h.origin.Log(r)
	}
	return nil
}
