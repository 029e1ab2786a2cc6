// Package schema validates API payloads against an embedded CUE
// schema before anything reaches the ledger. Handlers call it with the
// raw JSON they received; everything past this package can assume
// well-formed input.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// ValidationError reports the first rule a payload breaks. Field names
// the offending field when one can be attributed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error in %q: %s", e.Field, e.Message)
}

// Validator checks API payloads against the embedded schema. The
// schema is compiled once; construct with New and share the instance.
type Validator struct {
	// The CUE evaluator is not documented as safe for concurrent use
	// on one context; validations serialize on mu.
	mu    sync.Mutex
	ctx   *cue.Context
	event cue.Value
	log   cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()

	root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	event := root.LookupPath(cue.ParsePath("#Event"))
	if err := event.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Event: %w", err)
	}
	log := root.LookupPath(cue.ParsePath("#LogEntry"))
	if err := log.Err(); err != nil {
		return nil, fmt.Errorf("lookup #LogEntry: %w", err)
	}

	return &Validator{ctx: ctx, event: event, log: log}, nil
}

// ValidateEvent checks an event payload (the value of the "event" key,
// raw JSON). A nil return means the payload decodes cleanly into
// record.EventBody.
func (v *Validator) ValidateEvent(raw []byte) error {
	return v.validate(v.event, raw)
}

// ValidateLog checks a legacy log payload. Beyond the schema shape, a
// report must carry at least one positive dose count; a row of zeros
// records nothing and is rejected.
func (v *Validator) ValidateLog(raw []byte) error {
	if err := v.validate(v.log, raw); err != nil {
		return err
	}

	var counts struct {
		Spray     *int `json:"spray"`
		Ventoline *int `json:"ventoline"`
	}
	if err := json.Unmarshal(raw, &counts); err != nil {
		return &ValidationError{Message: "payload is not a JSON object"}
	}
	if zeroOrNil(counts.Spray) && zeroOrNil(counts.Ventoline) {
		return &ValidationError{Message: "At least one medicine type must have a non-zero count"}
	}
	return nil
}

func zeroOrNil(n *int) bool {
	return n == nil || *n == 0
}

// validate unifies raw JSON with a schema definition and reports the
// first violation.
func (v *Validator) validate(schema cue.Value, raw []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	expr, err := cuejson.Extract("payload.json", raw)
	if err != nil {
		return &ValidationError{Message: "payload is not valid JSON"}
	}
	payload := v.ctx.BuildExpr(expr)
	if err := payload.Err(); err != nil {
		return &ValidationError{Message: "payload is not valid JSON"}
	}

	unified := schema.Unify(payload)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return toValidationError(err)
	}
	return nil
}

// toValidationError extracts the offending field from a CUE error so
// API responses can point at it the way the previous backend did.
func toValidationError(err error) *ValidationError {
	for _, e := range cueerrors.Errors(err) {
		field := ""
		if path := e.Path(); len(path) > 0 {
			field = path[len(path)-1]
		}
		format, args := e.Msg()
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		}
	}
	return &ValidationError{Message: err.Error()}
}
