// Package abitest calls the exported entry points of package abi through
// their C signatures, the way a co-simulation host does.
//
// cgo is not available in _test files, so tests of the C boundary use these
// wrappers. A nil slice is passed as a NULL pointer while the element count
// is passed separately, which lets tests hand the exports inconsistent
// arguments.
package abitest

/*
#cgo CFLAGS: -I${SRCDIR}/..
#include <stdarg.h>
#include <stdio.h>
#include <string.h>
#include "fmi2.h"

extern fmi2Component fmi2Instantiate(fmi2String, fmi2Type, fmi2String, fmi2String, fmi2CallbackFunctions*, fmi2Boolean, fmi2Boolean);
extern void fmi2FreeInstance(fmi2Component);
extern fmi2Status fmi2SetDebugLogging(fmi2Component, fmi2Boolean, size_t, fmi2String*);
extern fmi2Status fmi2EnterInitializationMode(fmi2Component);
extern fmi2Status fmi2ExitInitializationMode(fmi2Component);
extern fmi2Status fmi2Terminate(fmi2Component);
extern fmi2Status fmi2DoStep(fmi2Component, fmi2Real, fmi2Real, fmi2Boolean);
extern fmi2Status fmi2GetReal(fmi2Component, fmi2ValueReference*, size_t, fmi2Real*);
extern fmi2Status fmi2SetReal(fmi2Component, fmi2ValueReference*, size_t, fmi2Real*);
extern fmi2Status fmi2GetInteger(fmi2Component, fmi2ValueReference*, size_t, fmi2Integer*);
extern fmi2Status fmi2SetInteger(fmi2Component, fmi2ValueReference*, size_t, fmi2Integer*);
extern fmi2Status fmi2GetBoolean(fmi2Component, fmi2ValueReference*, size_t, fmi2Boolean*);
extern fmi2Status fmi2SetBoolean(fmi2Component, fmi2ValueReference*, size_t, fmi2Boolean*);
extern char* fmigenModelName(void);
extern char* fmigenDescribe(void);
extern void fmigenFree(char*);

static int abitest_log_count;
static char abitest_log_last[1024];

static void abitest_logger(fmi2ComponentEnvironment env, fmi2String instanceName, fmi2Status status,
                           fmi2String category, fmi2String message, ...) {
    va_list args;
    va_start(args, message);
    vsnprintf(abitest_log_last, sizeof abitest_log_last, message, args);
    va_end(args);
    abitest_log_count++;
}

static fmi2CallbackFunctions abitest_callbacks = { abitest_logger, NULL, NULL, NULL, NULL };

static fmi2CallbackFunctions* abitest_functions(void) { return &abitest_callbacks; }
static int abitest_count(void) { return abitest_log_count; }
static const char* abitest_last(void) { return abitest_log_last; }
static void abitest_reset(void) {
    abitest_log_count = 0;
    abitest_log_last[0] = '\0';
}
*/
import "C"

import (
	"unsafe"

	// Links the exported symbols declared above.
	_ "github.com/roach88/fmigen/pkg/abi"
)

// Status mirrors fmi2Status.
type Status int

const (
	OK    = Status(C.fmi2OK)
	Error = Status(C.fmi2Error)
)

// Component is the opaque value fmi2Instantiate hands to the host. Any
// uintptr can be passed back, including stale or made-up ones.
type Component uintptr

func (c Component) c() C.fmi2Component {
	return C.fmigen_component(C.uintptr_t(c))
}

// RoundTrip converts a handle to a component and back.
func RoundTrip(h uint32) uint32 {
	return uint32(C.fmigen_handle(C.fmigen_component(C.uintptr_t(h))))
}

// Instance describes a call to fmi2Instantiate. A nil Name or GUID is
// passed as NULL.
type Instance struct {
	Name          *string
	GUID          *string
	ModelExchange bool
	LoggingOn     bool
	// Logger installs a host logger that records what it receives; see
	// Logged.
	Logger bool
}

// Instantiate calls fmi2Instantiate. It returns 0 when the export returns
// NULL.
func Instantiate(in Instance) Component {
	name := cString(in.Name)
	guid := cString(in.GUID)
	defer C.free(unsafe.Pointer(name))
	defer C.free(unsafe.Pointer(guid))

	fmuType := C.fmi2Type(C.fmi2CoSimulation)
	if in.ModelExchange {
		fmuType = C.fmi2Type(C.fmi2ModelExchange)
	}
	var functions *C.fmi2CallbackFunctions
	if in.Logger {
		functions = C.abitest_functions()
	}
	c := C.fmi2Instantiate(str(name), fmuType, str(guid), nil, functions, C.fmi2False, cBool(in.LoggingOn))
	return Component(C.fmigen_handle(c))
}

// Free calls fmi2FreeInstance.
func Free(c Component) {
	C.fmi2FreeInstance(c.c())
}

// SetDebugLogging calls fmi2SetDebugLogging with n categories. A nil
// categories slice is passed as NULL.
func SetDebugLogging(c Component, on bool, n int, categories []string) Status {
	var ptr *C.fmi2String
	if len(categories) > 0 {
		arr := make([]C.fmi2String, len(categories))
		for i, s := range categories {
			cs := C.CString(s)
			defer C.free(unsafe.Pointer(cs))
			arr[i] = str(cs)
		}
		ptr = &arr[0]
	}
	return Status(C.fmi2SetDebugLogging(c.c(), cBool(on), C.size_t(n), ptr))
}

// EnterInitializationMode calls fmi2EnterInitializationMode.
func EnterInitializationMode(c Component) Status {
	return Status(C.fmi2EnterInitializationMode(c.c()))
}

// ExitInitializationMode calls fmi2ExitInitializationMode.
func ExitInitializationMode(c Component) Status {
	return Status(C.fmi2ExitInitializationMode(c.c()))
}

// Terminate calls fmi2Terminate.
func Terminate(c Component) Status {
	return Status(C.fmi2Terminate(c.c()))
}

// DoStep calls fmi2DoStep.
func DoStep(c Component, t, h float64) Status {
	return Status(C.fmi2DoStep(c.c(), C.fmi2Real(t), C.fmi2Real(h), C.fmi2True))
}

// GetReal calls fmi2GetReal with n references.
func GetReal(c Component, n int, refs []uint32, values []float64) Status {
	return Status(C.fmi2GetReal(c.c(), refPtr(refs), C.size_t(n), (*C.fmi2Real)(slicePtr(values))))
}

// SetReal calls fmi2SetReal with n references.
func SetReal(c Component, n int, refs []uint32, values []float64) Status {
	return Status(C.fmi2SetReal(c.c(), refPtr(refs), C.size_t(n), (*C.fmi2Real)(slicePtr(values))))
}

// GetInteger calls fmi2GetInteger with n references.
func GetInteger(c Component, n int, refs []uint32, values []int32) Status {
	return Status(C.fmi2GetInteger(c.c(), refPtr(refs), C.size_t(n), (*C.fmi2Integer)(slicePtr(values))))
}

// SetInteger calls fmi2SetInteger with n references.
func SetInteger(c Component, n int, refs []uint32, values []int32) Status {
	return Status(C.fmi2SetInteger(c.c(), refPtr(refs), C.size_t(n), (*C.fmi2Integer)(slicePtr(values))))
}

// GetBoolean calls fmi2GetBoolean with n references. Values are fmi2Boolean
// integers.
func GetBoolean(c Component, n int, refs []uint32, values []int32) Status {
	return Status(C.fmi2GetBoolean(c.c(), refPtr(refs), C.size_t(n), (*C.fmi2Boolean)(slicePtr(values))))
}

// SetBoolean calls fmi2SetBoolean with n references.
func SetBoolean(c Component, n int, refs []uint32, values []int32) Status {
	return Status(C.fmi2SetBoolean(c.c(), refPtr(refs), C.size_t(n), (*C.fmi2Boolean)(slicePtr(values))))
}

// ModelName calls fmigenModelName and releases the result with fmigenFree.
// ok is false when the export returns NULL.
func ModelName() (name string, ok bool) {
	return take(C.fmigenModelName())
}

// Describe calls fmigenDescribe and releases the result with fmigenFree.
func Describe() (doc string, ok bool) {
	return take(C.fmigenDescribe())
}

// Logged returns how many messages the host logger received since the last
// ResetLog, and the last one after printf expansion.
func Logged() (count int, last string) {
	return int(C.abitest_count()), C.GoString(C.abitest_last())
}

// ResetLog clears the host logger record.
func ResetLog() {
	C.abitest_reset()
}

func take(p *C.char) (string, bool) {
	if p == nil {
		return "", false
	}
	defer C.fmigenFree(p)
	return C.GoString(p), true
}

func cString(s *string) *C.char {
	if s == nil {
		return nil
	}
	return C.CString(*s)
}

func str(s *C.char) C.fmi2String {
	return C.fmi2String(unsafe.Pointer(s))
}

func cBool(b bool) C.fmi2Boolean {
	if b {
		return C.fmi2True
	}
	return C.fmi2False
}

func refPtr(refs []uint32) *C.fmi2ValueReference {
	return (*C.fmi2ValueReference)(slicePtr(refs))
}

func slicePtr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}
