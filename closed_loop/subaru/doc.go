// Package subaru drives steering, throttle and brake on Subaru EyeSight
// vehicles while the stock camera ECU stays in the loop.
//
// Each control cycle the Controller rate-limits the steering request against
// driver torque, maps the acceleration request onto the cruise throttle/RPM
// and brake overrides, and echoes every stock camera message it has seen
// change since the last cycle with those overrides applied. Global and
// preglobal vehicles share the algorithm and differ only in the frames built.
package subaru
