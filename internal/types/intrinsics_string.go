package types

import (
	"fmt"

	"github.com/funvibe/duby/internal/config"
)

func contributeString(r *Registry, t *StringType) {
	r.Register(config.ConcatName, []Type{t}, t, t.concat)
}

// concat forwards to String.concat through the ordinary call path. Like the
// comparison intrinsics it emits nothing in statement context.
func (t *StringType) concat(c Compiler, call *CallSite, expression bool) error {
	if !expression {
		return nil
	}
	m, ok := t.Method(config.ConcatMethodName, t)
	if !ok {
		return fmt.Errorf("%w: %s.%s(%s)", ErrNoMethod, t.Name(), config.ConcatMethodName, t.Name())
	}
	return m.Call(c, call, expression)
}
