// Package trace records what a kiln session spends its time on.
//
// A compile call opens a driver span, each phase of the call (parse,
// pending work, flush, static initializers) a pass span and every
// dispatched declaration batch a module span:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "parse")
//	defer span.End("")
//
// Tracers: Nop (disabled), StreamTracer (write immediately), RingTracer
// (last N events, dumped on a crash) and MultiTracer (both).
//
// Levels gate scopes: phase keeps driver and pass spans, detail adds
// module spans, debug keeps everything.
package trace
