// Package authz implements default-deny permission evaluation over the
// taxonomy registry's grant table.
package authz

import (
	"github.com/taskgate/taskgate/internal/taxonomy"
)

// Outcome is the terminal result of an access decision.
type Outcome int

const (
	// Deny is the zero value, so an uninitialized Result denies.
	Deny Outcome = iota
	Allow
)

// String returns the wire representation of an Outcome.
func (o Outcome) String() string {
	if o == Allow {
		return "ALLOW"
	}
	return "DENY"
}

// MarshalJSON encodes the outcome as its wire string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

// UnmarshalJSON decodes "ALLOW" to Allow; anything else denies.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	if string(data) == `"ALLOW"` {
		*o = Allow
	} else {
		*o = Deny
	}
	return nil
}

// Reason is a machine-readable reason code attached to every decision.
type Reason string

const (
	// ReasonGranted accompanies the only ALLOW outcome.
	ReasonGranted Reason = "granted"

	// Normal deny outcomes from grant evaluation.
	ReasonNoGrantForResource  Reason = "no_grant_for_resource"
	ReasonOperationNotInGrant Reason = "operation_not_in_grant"

	// Fail-closed outcomes from upstream pipeline stages.
	ReasonNoPersona             Reason = "no_persona"
	ReasonExtractionUnavailable Reason = "extraction_unavailable"
	ReasonAmbiguousTask         Reason = "ambiguous_or_unrecognized_task"
	ReasonUnknownTaskType       Reason = "unknown_task_type"

	// ReasonInvalidRequest marks a malformed resource class or operation,
	// rejected before evaluation. Distinct from "not permitted".
	ReasonInvalidRequest Reason = "invalid_request"
)

// Result pairs an outcome with its reason code.
type Result struct {
	Outcome Outcome
	Reason  Reason
}

// Allowed returns the single permitting result.
func Allowed() Result {
	return Result{Outcome: Allow, Reason: ReasonGranted}
}

// Denied returns a denying result with the given reason.
func Denied(reason Reason) Result {
	return Result{Outcome: Deny, Reason: reason}
}

// Evaluate decides whether a persona may perform an operation on a resource
// class. Policy is default-deny: ALLOW requires an explicit matching grant.
//
// Evaluation order:
//  1. Resource class and operation must come from the closed sets
//     (malformed input is InvalidRequest, not a deny).
//  2. A persona must be present; classification failures never reach here
//     with one, but direct callers are held to the same boundary.
//  3. The persona must hold a grant for the resource class.
//  4. The grant's operation set must contain the operation.
func Evaluate(reg *taxonomy.Registry, personaID string, resource taxonomy.ResourceClass, op taxonomy.Operation) Result {
	if !taxonomy.ValidResource(resource) || !taxonomy.ValidOperation(op) {
		return Denied(ReasonInvalidRequest)
	}

	if personaID == "" || !reg.HasPersona(personaID) {
		return Denied(ReasonNoPersona)
	}

	for _, g := range reg.GrantsFor(personaID) {
		if g.Resource != resource {
			continue
		}
		if g.Permits(op) {
			return Allowed()
		}
		return Denied(ReasonOperationNotInGrant)
	}
	return Denied(ReasonNoGrantForResource)
}
