/*
Command-line tool for deriving keys with scrypt and serving derivations over HTTP.

Usage:

	$ scryptkdf [<flags>] <subcommand> [<args> ...]

Use 'scryptkdf help' to see more details.
*/
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kopia/scryptkdf/cli"
	"github.com/kopia/scryptkdf/internal/logfile"
)

func main() {
	app := cli.NewApp()
	kp := kingpin.New("scryptkdf", "scrypt key derivation").Author("https://github.com/kopia/scryptkdf")

	logfile.Attach(app, kp)

	app.Attach(kp)

	kingpin.MustParse(kp.Parse(os.Args[1:]))
}
