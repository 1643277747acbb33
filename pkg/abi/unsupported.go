package abi

/*
#include "fmi2.h"
*/
import "C"

// Entry points below belong to capabilities this plugin does not declare.
// They exist so that hosts resolving the full symbol table load the
// library; each reports fmi2Error.

//export fmi2GetFMUstate
func fmi2GetFMUstate(c C.fmi2Component, state *C.fmi2FMUstate) C.fmi2Status {
	return unsupported(c, "getFMUstate")
}

//export fmi2SetFMUstate
func fmi2SetFMUstate(c C.fmi2Component, state C.fmi2FMUstate) C.fmi2Status {
	return unsupported(c, "setFMUstate")
}

//export fmi2FreeFMUstate
func fmi2FreeFMUstate(c C.fmi2Component, state *C.fmi2FMUstate) C.fmi2Status {
	return unsupported(c, "freeFMUstate")
}

//export fmi2SerializedFMUstateSize
func fmi2SerializedFMUstateSize(c C.fmi2Component, state C.fmi2FMUstate, size *C.size_t) C.fmi2Status {
	return unsupported(c, "serializedFMUstateSize")
}

//export fmi2SerializeFMUstate
func fmi2SerializeFMUstate(c C.fmi2Component, state C.fmi2FMUstate, serialized *C.fmi2Byte, size C.size_t) C.fmi2Status {
	return unsupported(c, "serializeFMUstate")
}

//export fmi2DeSerializeFMUstate
func fmi2DeSerializeFMUstate(c C.fmi2Component, serialized *C.fmi2Byte, size C.size_t, state *C.fmi2FMUstate) C.fmi2Status {
	return unsupported(c, "deSerializeFMUstate")
}

//export fmi2GetDirectionalDerivative
func fmi2GetDirectionalDerivative(c C.fmi2Component, unknownRefs *C.fmi2ValueReference, nUnknown C.size_t, knownRefs *C.fmi2ValueReference, nKnown C.size_t, dvKnown *C.fmi2Real, dvUnknown *C.fmi2Real) C.fmi2Status {
	return unsupported(c, "getDirectionalDerivative")
}

//export fmi2SetRealInputDerivatives
func fmi2SetRealInputDerivatives(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, order *C.fmi2Integer, value *C.fmi2Real) C.fmi2Status {
	return unsupported(c, "setRealInputDerivatives")
}

//export fmi2GetRealOutputDerivatives
func fmi2GetRealOutputDerivatives(c C.fmi2Component, vr *C.fmi2ValueReference, nvr C.size_t, order *C.fmi2Integer, value *C.fmi2Real) C.fmi2Status {
	return unsupported(c, "getRealOutputDerivatives")
}

//export fmi2CancelStep
func fmi2CancelStep(c C.fmi2Component) C.fmi2Status {
	return unsupported(c, "cancelStep")
}

//export fmi2GetStatus
func fmi2GetStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Status) C.fmi2Status {
	return unsupported(c, "getStatus")
}

//export fmi2GetRealStatus
func fmi2GetRealStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Real) C.fmi2Status {
	return unsupported(c, "getRealStatus")
}

//export fmi2GetIntegerStatus
func fmi2GetIntegerStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Integer) C.fmi2Status {
	return unsupported(c, "getIntegerStatus")
}

//export fmi2GetBooleanStatus
func fmi2GetBooleanStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2Boolean) C.fmi2Status {
	return unsupported(c, "getBooleanStatus")
}

//export fmi2GetStringStatus
func fmi2GetStringStatus(c C.fmi2Component, kind C.fmi2StatusKind, value *C.fmi2String) C.fmi2Status {
	return unsupported(c, "getStringStatus")
}

// Model exchange.

//export fmi2EnterEventMode
func fmi2EnterEventMode(c C.fmi2Component) C.fmi2Status {
	return unsupported(c, "enterEventMode")
}

//export fmi2NewDiscreteStates
func fmi2NewDiscreteStates(c C.fmi2Component, info *C.fmi2EventInfo) C.fmi2Status {
	return unsupported(c, "newDiscreteStates")
}

//export fmi2EnterContinuousTimeMode
func fmi2EnterContinuousTimeMode(c C.fmi2Component) C.fmi2Status {
	return unsupported(c, "enterContinuousTimeMode")
}

//export fmi2CompletedIntegratorStep
func fmi2CompletedIntegratorStep(c C.fmi2Component, noSetFMUStatePriorToCurrentPoint C.fmi2Boolean, enterEventMode *C.fmi2Boolean, terminateSimulation *C.fmi2Boolean) C.fmi2Status {
	return unsupported(c, "completedIntegratorStep")
}

//export fmi2SetTime
func fmi2SetTime(c C.fmi2Component, time C.fmi2Real) C.fmi2Status {
	return unsupported(c, "setTime")
}

//export fmi2SetContinuousStates
func fmi2SetContinuousStates(c C.fmi2Component, x *C.fmi2Real, nx C.size_t) C.fmi2Status {
	return unsupported(c, "setContinuousStates")
}

//export fmi2GetDerivatives
func fmi2GetDerivatives(c C.fmi2Component, derivatives *C.fmi2Real, nx C.size_t) C.fmi2Status {
	return unsupported(c, "getDerivatives")
}

//export fmi2GetEventIndicators
func fmi2GetEventIndicators(c C.fmi2Component, indicators *C.fmi2Real, ni C.size_t) C.fmi2Status {
	return unsupported(c, "getEventIndicators")
}

//export fmi2GetContinuousStates
func fmi2GetContinuousStates(c C.fmi2Component, x *C.fmi2Real, nx C.size_t) C.fmi2Status {
	return unsupported(c, "getContinuousStates")
}

//export fmi2GetNominalsOfContinuousStates
func fmi2GetNominalsOfContinuousStates(c C.fmi2Component, nominals *C.fmi2Real, nx C.size_t) C.fmi2Status {
	return unsupported(c, "getNominalsOfContinuousStates")
}
