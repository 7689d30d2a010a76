package cli

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/bridge"
)

type commandDerive struct {
	salt    string
	saltHex string

	passphrase passphraseFlags
	params     paramFlags
	memory     memoryFlags
	out        jsonOutput
	text       textOutput

	svc appServices
}

type deriveResult struct {
	Key    string         `json:"key"`
	Params bridge.Options `json:"params"`
}

func (c *commandDerive) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("derive", "Derive a key from a passphrase and salt.")
	cmd.Flag("salt", "Salt as a string").StringVar(&c.salt)
	cmd.Flag("salt-hex", "Salt as a hex string").StringVar(&c.saltHex)

	c.passphrase.setup(svc, cmd)
	c.params.setup(cmd)
	c.memory.setup(svc, cmd)
	c.out.setup(svc, cmd)
	c.text.setup(svc)

	c.svc = svc

	cmd.Action(svc.baseActionWithContext(c.run))
}

func (c *commandDerive) saltBytes() ([]byte, error) {
	switch {
	case c.salt != "" && c.saltHex != "":
		return nil, errors.New("--salt and --salt-hex are mutually exclusive")

	case c.saltHex != "":
		b, err := hex.DecodeString(c.saltHex)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --salt-hex")
		}

		return b, nil

	default:
		return []byte(c.salt), nil
	}
}

func (c *commandDerive) run(ctx context.Context) error {
	p, err := c.params.params()
	if err != nil {
		return err
	}

	salt, err := c.saltBytes()
	if err != nil {
		return err
	}

	if len(salt) == 0 {
		log(ctx).Warnf("deriving with an empty salt")
	}

	pass, err := c.passphrase.getPassphrase(c.svc)
	if err != nil {
		return err
	}

	passphrase := []byte(pass)
	defer clear(passphrase)

	b := bridge.New(bridge.Config{
		MaxMemory:   c.memory.maxMemoryBytes(),
		Parallelism: c.memory.parallel,
		Metrics:     c.svc.metricsRegistry(),
	})
	defer b.Close()

	log(ctx).Debugw("deriving key", "params", p.String())

	key, err := b.Scrypt(ctx, passphrase, salt, bridge.OptionsFromParams(p))
	if err != nil {
		return errors.Wrap(err, "unable to derive key")
	}

	defer clear(key)

	if c.out.jsonOutput {
		c.out.emit(deriveResult{
			Key:    hex.EncodeToString(key),
			Params: bridge.OptionsFromParams(p),
		})

		return nil
	}

	c.text.printStdout("%v\n", hex.EncodeToString(key))

	return nil
}
