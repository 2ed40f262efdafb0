package deck

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// Validate checks a presentation document against the embedded CUE schema.
// Violations are returned as a *ConfigurationError wrapping the CUE error,
// which names the offending path.
func Validate(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile deck schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Presentation"))

	expr, err := cuejson.Extract("presentation.json", data)
	if err != nil {
		return &ConfigurationError{Message: "unparseable presentation", Err: err}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return &ConfigurationError{Message: "unparseable presentation", Err: err}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &ConfigurationError{Message: "presentation does not match schema", Err: err}
	}
	return nil
}
