package harness

import (
	"fmt"
	"strconv"

	"github.com/kestrelchat/kestreld/internal/directory"
	"github.com/kestrelchat/kestreld/internal/extension"
	"github.com/kestrelchat/kestreld/internal/node"
)

// EvaluateAssertions checks every assertion against the converged
// directory and returns one message per failure.
func EvaluateAssertions(d *directory.Directory, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if msg := evaluate(d, &a); msg != "" {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, msg))
		}
	}
	return errs
}

func evaluate(d *directory.Directory, a *Assertion) string {
	rec := d.GetAccount(a.Account, false)
	if a.Absent {
		if rec != nil {
			return fmt.Sprintf("account %q should be absent but exists", a.Account)
		}
		return ""
	}
	if rec == nil {
		return fmt.Sprintf("no such account %q", a.Account)
	}

	var got string
	switch a.Field {
	case "created":
		got = strconv.FormatInt(rec.TS(), 10)
	case node.FieldCredentials:
		got = fmt.Sprintf("%d %s %s", rec.CredentialTS(), rec.CredentialHash(), rec.CredentialAlgorithm())
	case node.FieldConnectClass:
		got = fmt.Sprintf("%d %s", rec.ConnectClassTS(), rec.ConnectClass())
	default:
		item, ok := d.Registry().Lookup(a.Field)
		if !ok {
			return fmt.Sprintf("unknown field %q", a.Field)
		}
		got = item.Serialize(extension.FormatStorage, rec.Ext)
		if got == "" {
			return fmt.Sprintf("account %q field %q is unset", a.Account, a.Field)
		}
	}

	if got != a.Want {
		return fmt.Sprintf("account %q field %q: got %q, want %q", a.Account, a.Field, got, a.Want)
	}
	return ""
}
