package cli

import (
	"fmt"
)

type textOutput struct {
	svc appServices
}

func (o *textOutput) setup(svc appServices) {
	o.svc = svc
}

func (o *textOutput) printStdout(msg string, args ...interface{}) {
	fmt.Fprintf(o.svc.stdout(), msg, args...) //nolint:errcheck
}

func (o *textOutput) printStderr(msg string, args ...interface{}) {
	fmt.Fprintf(o.svc.Stderr(), msg, args...) //nolint:errcheck
}
