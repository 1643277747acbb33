package abi

/*
#include "fmi2.h"
*/
import "C"

import (
	"unsafe"

	"github.com/roach88/fmigen/pkg/runtime"
)

//export fmi2GetTypesPlatform
func fmi2GetTypesPlatform() C.fmi2String {
	return C.fmi2String(unsafe.Pointer(typesPlatform))
}

//export fmi2GetVersion
func fmi2GetVersion() C.fmi2String {
	return C.fmi2String(unsafe.Pointer(fmiVersion))
}

//export fmi2SetDebugLogging
func fmi2SetDebugLogging(c C.fmi2Component, loggingOn C.fmi2Boolean, nCategories C.size_t, categories *C.fmi2String) C.fmi2Status {
	if nCategories > 0 && categories == nil {
		return C.fmi2Error
	}
	var names []string
	if nCategories > 0 {
		for _, s := range unsafe.Slice(categories, int(nCategories)) {
			names = append(names, goString(s))
		}
	}
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		return r.SetDebugLogging(h, goBool(loggingOn), names)
	})
}

//export fmi2Instantiate
func fmi2Instantiate(instanceName C.fmi2String, fmuType C.fmi2Type, fmuGUID C.fmi2String, fmuResourceLocation C.fmi2String, functions *C.fmi2CallbackFunctions, visible C.fmi2Boolean, loggingOn C.fmi2Boolean) C.fmi2Component {
	r := registered.Load()
	if r == nil || instanceName == nil || fmuGUID == nil {
		return nil
	}
	name := goString(instanceName)
	sink := hostSink(name, functions)
	if fmuType != C.fmi2CoSimulation {
		if sink != nil {
			sink(runtime.StatusError, runtime.CategoryStatusError, "model exchange is not supported")
		}
		return nil
	}

	h, err := r.Instantiate(runtime.InstantiateRequest{
		InstanceName: name,
		GUID:         goString(fmuGUID),
		LoggingOn:    goBool(loggingOn),
		Sink:         sink,
	})
	if err != nil {
		return nil
	}
	return C.fmigen_component(C.uintptr_t(h))
}

//export fmi2FreeInstance
func fmi2FreeInstance(c C.fmi2Component) {
	if r := registered.Load(); r != nil {
		_ = r.Free(handleOf(c))
	}
}

//export fmi2SetupExperiment
func fmi2SetupExperiment(c C.fmi2Component, toleranceDefined C.fmi2Boolean, tolerance C.fmi2Real, startTime C.fmi2Real, stopTimeDefined C.fmi2Boolean, stopTime C.fmi2Real) C.fmi2Status {
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		return r.SetupExperiment(h, runtime.Experiment{
			ToleranceDefined: goBool(toleranceDefined),
			Tolerance:        float64(tolerance),
			StartTime:        float64(startTime),
			StopTimeDefined:  goBool(stopTimeDefined),
			StopTime:         float64(stopTime),
		})
	})
}

//export fmi2EnterInitializationMode
func fmi2EnterInitializationMode(c C.fmi2Component) C.fmi2Status {
	return call(c, (*runtime.Runtime).EnterInitializationMode)
}

//export fmi2ExitInitializationMode
func fmi2ExitInitializationMode(c C.fmi2Component) C.fmi2Status {
	return call(c, (*runtime.Runtime).ExitInitializationMode)
}

//export fmi2Terminate
func fmi2Terminate(c C.fmi2Component) C.fmi2Status {
	return call(c, (*runtime.Runtime).Terminate)
}

//export fmi2Reset
func fmi2Reset(c C.fmi2Component) C.fmi2Status {
	return call(c, (*runtime.Runtime).Reset)
}

//export fmi2DoStep
func fmi2DoStep(c C.fmi2Component, currentCommunicationPoint C.fmi2Real, communicationStepSize C.fmi2Real, noSetFMUStatePriorToCurrentPoint C.fmi2Boolean) C.fmi2Status {
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		return r.DoStep(h, float64(currentCommunicationPoint), float64(communicationStepSize))
	})
}

//export fmi2GetReal
func fmi2GetReal(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Real) C.fmi2Status {
	if nvr > 0 && (vr == nil || value == nil) {
		return C.fmi2Error
	}
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		refs := references(vr, nvr)
		out := make([]float64, len(refs))
		if err := r.GetReal(h, refs, out); err != nil {
			return err
		}
		dst := unsafe.Slice(value, len(out))
		for i, v := range out {
			dst[i] = C.fmi2Real(v)
		}
		return nil
	})
}

//export fmi2GetInteger
func fmi2GetInteger(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Integer) C.fmi2Status {
	if nvr > 0 && (vr == nil || value == nil) {
		return C.fmi2Error
	}
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		refs := references(vr, nvr)
		out := make([]int32, len(refs))
		if err := r.GetInteger(h, refs, out); err != nil {
			return err
		}
		dst := unsafe.Slice(value, len(out))
		for i, v := range out {
			dst[i] = C.fmi2Integer(v)
		}
		return nil
	})
}

//export fmi2GetBoolean
func fmi2GetBoolean(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Boolean) C.fmi2Status {
	if nvr > 0 && (vr == nil || value == nil) {
		return C.fmi2Error
	}
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		refs := references(vr, nvr)
		out := make([]bool, len(refs))
		if err := r.GetBoolean(h, refs, out); err != nil {
			return err
		}
		dst := unsafe.Slice(value, len(out))
		for i, v := range out {
			dst[i] = cBool(v)
		}
		return nil
	})
}

//export fmi2GetString
func fmi2GetString(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2String) C.fmi2Status {
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		return r.GetString(h, nil)
	})
}

//export fmi2SetReal
func fmi2SetReal(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Real) C.fmi2Status {
	if nvr > 0 && (vr == nil || value == nil) {
		return C.fmi2Error
	}
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		src := unsafe.Slice(value, int(nvr))
		in := make([]float64, len(src))
		for i, v := range src {
			in[i] = float64(v)
		}
		return r.SetReal(h, references(vr, nvr), in)
	})
}

//export fmi2SetInteger
func fmi2SetInteger(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Integer) C.fmi2Status {
	if nvr > 0 && (vr == nil || value == nil) {
		return C.fmi2Error
	}
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		src := unsafe.Slice(value, int(nvr))
		in := make([]int32, len(src))
		for i, v := range src {
			in[i] = int32(v)
		}
		return r.SetInteger(h, references(vr, nvr), in)
	})
}

//export fmi2SetBoolean
func fmi2SetBoolean(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2Boolean) C.fmi2Status {
	if nvr > 0 && (vr == nil || value == nil) {
		return C.fmi2Error
	}
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		src := unsafe.Slice(value, int(nvr))
		in := make([]bool, len(src))
		for i, v := range src {
			in[i] = goBool(v)
		}
		return r.SetBoolean(h, references(vr, nvr), in)
	})
}

//export fmi2SetString
func fmi2SetString(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, value *C.fmi2String) C.fmi2Status {
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		return r.SetString(h, nil, nil)
	})
}

// unsupported reports op as not implemented for the instance behind c.
func unsupported(c C.fmi2Component, op string) C.fmi2Status {
	return call(c, func(r *runtime.Runtime, h runtime.Handle) error {
		return r.Unsupported(h, op)
	})
}
