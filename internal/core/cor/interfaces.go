// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the building blocks the
// story intelligence pipeline is assembled from. A workflow is a Chain of
// Commands; a Context is the shared property bag one invocation threads
// through the chain, carrying stage outputs, errors, and the Go context used
// for cancellation and tracing.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys the chain uses to pipe one command's primary
// output into the next command's primary input.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state of a single workflow execution. It is not safe
// for concurrent use; the pipeline is strictly sequential by design.
type Context interface {
	// SetContext installs the Go context carrying cancellation and trace
	// state. The chain rotates it as command spans open and close.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a stored value, or nil.
	Get(key string) interface{}

	// Remove deletes a stored value.
	Remove(key string)

	// AddError records a command failure, keyed by command name.
	AddError(key string, err error)

	// GetErrors returns all recorded failures.
	GetErrors() map[string]error

	// HasErrors reports whether any command has failed.
	HasErrors() bool
}

// Executable is anything with core execution logic over a shared Context.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, testable unit of pipeline work.
type Command interface {
	Executable

	// GetName identifies the command in logs, traces, and error maps.
	GetName() string

	// GetInputParam returns the context key of the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key of the command's primary output.
	GetOutputParam() string

	// IsExecutable is the precondition check the chain runs before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps executing after a
	// command records an error. The pipeline default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
