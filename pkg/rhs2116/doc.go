// Package rhs2116 models the stimulus sequences of the RHS2116
// stimulator/amplifier and compiles them into the delta table uploaded to
// the device's stimulus memory.
//
// A delta table maps an absolute sample time to a 32-bit word. The low 16
// bits enable the current driver of each channel; the high 16 bits select
// its polarity (1 = anodic). Only times at which some channel changes state
// are stored, so the number of distinct times is the number of hardware
// memory slots a sequence needs.
package rhs2116
