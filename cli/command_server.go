package cli

import (
	"strings"
)

type commandServer struct {
	start commandServerStart
}

type serverFlags struct {
	serverAddress string
}

func (c *commandServer) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("server", "Commands to control the HTTP API server.")

	c.start.setup(svc, cmd)
}

func stripProtocol(addr string) string {
	return strings.TrimPrefix(strings.TrimPrefix(addr, "https://"), "http://")
}
