// Package loader opens a built plugin with dlopen and reads its metadata
// through the fmigen* query symbols.
//
// Loading a plugin runs its Go runtime and init functions inside the
// calling process. The packager therefore only calls this package from the
// hidden "fmigen query" subprocess.
package loader

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
#include <string.h>

typedef char* (*string_fn)(void);
typedef void (*free_fn)(char*);

static void* open_library(const char* path) {
    return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static const char* load_error(void) {
    return dlerror();
}

static void* get_symbol(void* handle, const char* name) {
    return dlsym(handle, name);
}

static int close_library(void* handle) {
    return dlclose(handle);
}

static char* call_string_fn(void* fn) {
    return ((string_fn)fn)();
}

static void call_free_fn(void* fn, char* p) {
    ((free_fn)fn)(p);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// Query symbols exported by every generated plugin.
const (
	SymbolModelName = "fmigenModelName"
	SymbolDescribe  = "fmigenDescribe"
	SymbolFree      = "fmigenFree"
)

// RequiredSymbols are the FMI 2.0 co-simulation entry points a host resolves
// when it loads a plugin.
var RequiredSymbols = []string{
	"fmi2GetTypesPlatform",
	"fmi2GetVersion",
	"fmi2SetDebugLogging",
	"fmi2Instantiate",
	"fmi2FreeInstance",
	"fmi2SetupExperiment",
	"fmi2EnterInitializationMode",
	"fmi2ExitInitializationMode",
	"fmi2Terminate",
	"fmi2Reset",
	"fmi2GetReal",
	"fmi2GetInteger",
	"fmi2GetBoolean",
	"fmi2GetString",
	"fmi2SetReal",
	"fmi2SetInteger",
	"fmi2SetBoolean",
	"fmi2SetString",
	"fmi2DoStep",
	"fmi2CancelStep",
	"fmi2GetStatus",
}

// ErrSymbolNotFound is returned when a plugin lacks a query symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// ErrQueryFailed is returned when a query symbol returns NULL.
var ErrQueryFailed = errors.New("query returned no value")

// Library is an open plugin.
type Library struct {
	path   string
	handle unsafe.Pointer
}

// Open loads the shared library at path.
func Open(path string) (*Library, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	handle := C.open_library(cPath)
	if handle == nil {
		return nil, fmt.Errorf("dlopen %s: %s", path, C.GoString(C.load_error()))
	}
	return &Library{path: path, handle: handle}, nil
}

// Path returns the path the library was opened from.
func (l *Library) Path() string {
	return l.path
}

func (l *Library) symbol(name string) unsafe.Pointer {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return C.get_symbol(l.handle, cName)
}

// HasSymbol reports whether the library exports name.
func (l *Library) HasSymbol(name string) bool {
	return l.symbol(name) != nil
}

// Missing returns the names in symbols that the library does not export.
func (l *Library) Missing(symbols []string) []string {
	var missing []string
	for _, s := range symbols {
		if !l.HasSymbol(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// callString calls a query symbol and releases the returned C string.
func (l *Library) callString(name string) ([]byte, error) {
	fn := l.symbol(name)
	if fn == nil {
		return nil, fmt.Errorf("%s: %w: %s", l.path, ErrSymbolNotFound, name)
	}
	free := l.symbol(SymbolFree)
	if free == nil {
		return nil, fmt.Errorf("%s: %w: %s", l.path, ErrSymbolNotFound, SymbolFree)
	}

	p := C.call_string_fn(fn)
	if p == nil {
		return nil, fmt.Errorf("%s: %s: %w", l.path, name, ErrQueryFailed)
	}
	defer C.call_free_fn(free, p)
	return C.GoBytes(unsafe.Pointer(p), C.int(C.strlen(p))), nil
}

// ModelName returns the model name reported by the plugin.
func (l *Library) ModelName() (string, error) {
	b, err := l.callString(SymbolModelName)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Describe returns the encoded model description reported by the plugin.
func (l *Library) Describe() ([]byte, error) {
	return l.callString(SymbolDescribe)
}

// Close unloads the library. Go plugins cannot actually be unloaded; the
// call only drops the reference.
func (l *Library) Close() error {
	if l.handle == nil {
		return nil
	}
	if C.close_library(l.handle) != 0 {
		return fmt.Errorf("dlclose %s: %s", l.path, C.GoString(C.load_error()))
	}
	l.handle = nil
	return nil
}
