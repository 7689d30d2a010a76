package cli

import (
	"encoding/json"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type jsonOutput struct {
	jsonOutput bool
	jsonIndent bool

	svc appServices
}

func (c *jsonOutput) setup(svc appServices, cmd *kingpin.CmdClause) {
	cmd.Flag("json", "Output result in JSON format to stdout").BoolVar(&c.jsonOutput)
	cmd.Flag("json-indent", "Output result in indented JSON format to stdout").Hidden().BoolVar(&c.jsonIndent)

	c.svc = svc
}

func (c *jsonOutput) jsonBytes(v interface{}) []byte {
	var (
		b   []byte
		err error
	)

	if c.jsonIndent {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}

	if err != nil {
		panic("error serializing JSON, that should not happen: " + err.Error())
	}

	return b
}

func (c *jsonOutput) emit(v interface{}) {
	fmt.Fprintf(c.svc.stdout(), "%s\n", c.jsonBytes(v)) //nolint:errcheck
}
