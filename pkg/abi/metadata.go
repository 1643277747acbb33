package abi

/*
#include "fmi2.h"
*/
import "C"

import "unsafe"

// The fmigen* symbols are not part of FMI. The packager's query step
// loads the plugin and reads its model name and description through them.
// Returned strings are owned by the caller and released with fmigenFree.

//export fmigenModelName
func fmigenModelName() *C.char {
	r := registered.Load()
	if r == nil {
		return nil
	}
	return C.CString(r.Definition().ModelName())
}

//export fmigenDescribe
func fmigenDescribe() *C.char {
	r := registered.Load()
	if r == nil {
		return nil
	}
	doc, err := r.Definition().Describe()
	if err != nil {
		return nil
	}
	return (*C.char)(C.CBytes(append(doc, 0)))
}

//export fmigenFree
func fmigenFree(p *C.char) {
	C.free(unsafe.Pointer(p))
}
