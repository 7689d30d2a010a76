package cli

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/internal/timetrack"
	"github.com/kopia/scryptkdf/scrypt"
)

var errSelfTestFailed = errors.New("self-test failed")

type selfTestVector struct {
	passphrase string
	salt       string
	params     scrypt.Params
	want       string
	expensive  bool
}

// RFC 7914, section 12.
//
//nolint:gochecknoglobals
var selfTestVectors = []selfTestVector{
	{
		passphrase: "",
		salt:       "",
		params:     scrypt.Params{N: 16, R: 1, P: 1, KeyLength: 64},
		want:       "77d6576238657b203b19ca42c18a0497f16b4844e3074ae8dfdffa3fede21442fcd0069ded0948f8326a753a0fc81f17e8d3e0fb2e0d3628cf35e20c38d18906",
	},
	{
		passphrase: "password",
		salt:       "NaCl",
		params:     scrypt.Params{N: 1024, R: 8, P: 16, KeyLength: 64},
		want:       "fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b3731622eaf30d92e22a3886ff109279d9830dac727afb94a83ee6d8360cbdfa2cc0640",
	},
	{
		passphrase: "pleaseletmein",
		salt:       "SodiumChloride",
		params:     scrypt.Params{N: 16384, R: 8, P: 1, KeyLength: 64},
		want:       "7023bdcb3afd7348461c06cd81fd38ebfda8fbba904f8e3ea9b543f6545da1f2d5432955613f0fcf62d49705242a9af9e61e85dc0d651e40dfcf017b45575887",
	},
	{
		passphrase: "pleaseletmein",
		salt:       "SodiumChloride",
		params:     scrypt.Params{N: 1048576, R: 8, P: 1, KeyLength: 64},
		want:       "2101cb9b6a511aaeaddbbe09cf70f881ec568d574a2ffd4dabe5ee9820adaa478e56fd8f4ba5d09ffa1c6d927c40f4c337304049e8a952fbcbf45c6fa77a41a4",
		expensive:  true,
	},
}

type commandSelfTest struct {
	full bool

	memory memoryFlags
	text   textOutput
}

func (c *commandSelfTest) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("selftest", "Verify the implementation against known test vectors.")
	cmd.Flag("full", "Include the 1 GiB test vector").BoolVar(&c.full)

	c.memory.setup(svc, cmd)
	c.text.setup(svc)

	cmd.Action(svc.baseActionWithContext(c.run))
}

func (c *commandSelfTest) run(ctx context.Context) error {
	failed := 0

	for _, v := range selfTestVectors {
		if v.expensive && !c.full {
			log(ctx).Debugw("skipping expensive vector", "params", v.params.String())
			continue
		}

		timer := timetrack.StartTimer()

		key, err := scrypt.KeyWithOptions([]byte(v.passphrase), []byte(v.salt), v.params, c.memory.options())
		if err != nil {
			return errors.Wrapf(err, "unable to derive %v", v.params)
		}

		if got := hex.EncodeToString(key); got != v.want {
			c.text.printStderr("FAIL %v: got %v, want %v\n", v.params, got, v.want)

			failed++

			continue
		}

		log(ctx).Debugw("vector passed", "params", v.params.String(), "elapsed", timer.Elapsed())
		c.text.printStdout("OK   %v\n", v.params)
	}

	if failed > 0 {
		return errors.Wrapf(errSelfTestFailed, "%v vector(s) did not match", failed)
	}

	return nil
}
