package gen

import (
	"strings"

	"github.com/zigbind/zigbind/errors"
	"github.com/zigbind/zigbind/sig"
)

// parseTransform validates a map_fn literal of the form "|x| expr" and
// returns the parameter name and the body expression. The transform must be
// single-input and single-output; anything else is a generation-time error.
func parseTransform(lit string, s *sig.Signature) (param, expr string, err error) {
	bad := func(detail string, args ...any) error {
		return errors.New(errors.PhaseGenerate, errors.KindInvalidConfig).
			Location(s.File, s.Line).
			Decl(s.Name).
			Detail(detail, args...).
			Build()
	}

	trimmed := strings.TrimSpace(lit)
	if !strings.HasPrefix(trimmed, "|") {
		return "", "", bad("map_fn %q must have the form |x| expr", lit)
	}
	rest := trimmed[1:]
	end := strings.IndexByte(rest, '|')
	if end < 0 {
		return "", "", bad("map_fn %q has an unterminated parameter list", lit)
	}
	param = strings.TrimSpace(rest[:end])
	if strings.ContainsAny(param, ", ") || !sig.ValidIdent(param) {
		return "", "", bad("map_fn %q must take exactly one parameter", lit)
	}
	expr = strings.TrimSpace(rest[end+1:])
	if expr == "" {
		return "", "", bad("map_fn %q has an empty body", lit)
	}
	return param, expr, nil
}
