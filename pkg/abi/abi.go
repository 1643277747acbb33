// Package abi exports the FMI 2.0 co-simulation C entry points of a
// generated plugin and forwards them to a runtime.Runtime.
//
// A plugin's generated code calls Register from an init function; every
// exported symbol then resolves the component handle against the
// registered runtime. Entry points are safe to call before registration:
// they report fmi2Error (or NULL from fmi2Instantiate).
package abi

/*
#include "fmi2.h"
*/
import "C"

import (
	"os"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/roach88/fmigen/pkg/ir"
	"github.com/roach88/fmigen/pkg/runtime"
)

// DebugEnv names the environment variable that enables developer logging
// to stderr inside a loaded plugin.
const DebugEnv = "FMIGEN_DEBUG"

var registered atomic.Pointer[runtime.Runtime]

var (
	typesPlatform = C.CString("default")
	fmiVersion    = C.CString(ir.FMIVersion)
)

// Register installs the model definition served by this plugin. Calling it
// again replaces the runtime and drops every live instance.
func Register(def *runtime.Definition, opts ...runtime.Option) {
	if os.Getenv(DebugEnv) != "" {
		if logger, err := zap.NewDevelopment(); err == nil {
			opts = append([]runtime.Option{runtime.WithLogger(logger)}, opts...)
		}
	}
	registered.Store(runtime.New(def, opts...))
}

// Registered returns the runtime installed by Register, or nil.
func Registered() *runtime.Runtime {
	return registered.Load()
}

func handleOf(c C.fmi2Component) runtime.Handle {
	return runtime.Handle(C.fmigen_handle(c))
}

func status(err error) C.fmi2Status {
	return C.fmi2Status(runtime.StatusOf(err))
}

// call resolves c against the registered runtime and runs fn.
func call(c C.fmi2Component, fn func(r *runtime.Runtime, h runtime.Handle) error) C.fmi2Status {
	r := registered.Load()
	if r == nil {
		return C.fmi2Error
	}
	return status(fn(r, handleOf(c)))
}

func goString(s C.fmi2String) string {
	if s == nil {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(s)))
}

func cstr(s *C.char) C.fmi2String {
	return C.fmi2String(unsafe.Pointer(s))
}

func goBool(b C.fmi2Boolean) bool {
	return b != C.fmi2False
}

func cBool(b bool) C.fmi2Boolean {
	if b {
		return C.fmi2True
	}
	return C.fmi2False
}

func references(vr *C.fmi2ValueReference, nvr C.size_t) []ir.ValueReference {
	src := unsafe.Slice(vr, int(nvr))
	out := make([]ir.ValueReference, len(src))
	for i, v := range src {
		out[i] = ir.ValueReference(v)
	}
	return out
}

// hostSink adapts the host's logger callback to a runtime.LogSink.
func hostSink(name string, functions *C.fmi2CallbackFunctions) runtime.LogSink {
	if functions == nil || functions.logger == nil {
		return nil
	}
	logger := functions.logger
	env := functions.componentEnvironment
	return func(s runtime.Status, category, message string) {
		cName := C.CString(name)
		cCategory := C.CString(category)
		cMessage := C.CString(message)
		defer C.free(unsafe.Pointer(cName))
		defer C.free(unsafe.Pointer(cCategory))
		defer C.free(unsafe.Pointer(cMessage))
		C.fmigen_log(logger, env, cstr(cName), C.fmi2Status(s), cstr(cCategory), cstr(cMessage))
	}
}
