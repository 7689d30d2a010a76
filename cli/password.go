package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const maxPassphrasePrompts = 5

type passphraseFlags struct {
	passphrase string
}

func (c *passphraseFlags) setup(svc appServices, cmd *kingpin.CmdClause) {
	cmd.Flag("passphrase", "Passphrase to derive the key from (prompted when not provided)").Envar(svc.EnvName("SCRYPT_PASSPHRASE")).StringVar(&c.passphrase)
}

// getPassphrase returns the passphrase from flags or environment, falling back to
// prompting on the terminal or reading one line from non-terminal input.
func (c *passphraseFlags) getPassphrase(svc appServices) (string, error) {
	if c.passphrase != "" {
		return c.passphrase, nil
	}

	if f, ok := svc.stdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return askPass(svc.Stderr(), f, "Enter passphrase: ")
	}

	return readPassphraseLine(svc.stdin())
}

// askPass presents a given prompt and asks the user for password.
func askPass(out io.Writer, in *os.File, prompt string) (string, error) {
	for range maxPassphrasePrompts {
		fmt.Fprint(out, prompt) //nolint:errcheck

		passBytes, err := term.ReadPassword(int(in.Fd()))
		if err != nil {
			return "", errors.Wrap(err, "passphrase prompt error")
		}

		fmt.Fprintln(out) //nolint:errcheck

		if len(passBytes) == 0 {
			continue
		}

		return string(passBytes), nil
	}

	return "", errors.New("can't get passphrase")
}

func readPassphraseLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "unable to read passphrase")
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("passphrase not provided")
	}

	return line, nil
}
