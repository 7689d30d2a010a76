// Package crypto provides named password-based key derivation presets backed by the scrypt engine.
package crypto

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/scrypt"
)

// passwordBasedKeyDeriver derives a key of the requested size from a password and salt.
type passwordBasedKeyDeriver interface {
	deriveKeyFromPassword(password string, salt []byte, keySize int) ([]byte, error)
	costParams() scrypt.Params
}

//nolint:gochecknoglobals
var (
	keyDeriversMutex sync.RWMutex

	// +checklocks:keyDeriversMutex
	keyDerivers = map[string]passwordBasedKeyDeriver{}
)

// registerPBKeyDeriver registers a key deriver under the given name, panicking on duplicates.
func registerPBKeyDeriver(name string, keyDeriver passwordBasedKeyDeriver) {
	if !registerPBKeyDeriverIfAbsent(name, keyDeriver) {
		panic(fmt.Sprintf("key deriver (%s) is already registered", name))
	}
}

// registerPBKeyDeriverIfAbsent registers a key deriver unless the name is taken and reports whether it did.
func registerPBKeyDeriverIfAbsent(name string, keyDeriver passwordBasedKeyDeriver) bool {
	keyDeriversMutex.Lock()
	defer keyDeriversMutex.Unlock()

	if _, ok := keyDerivers[name]; ok {
		return false
	}

	keyDerivers[name] = keyDeriver

	return true
}

func keyDeriverFor(algorithm string) (passwordBasedKeyDeriver, error) {
	keyDeriversMutex.RLock()
	defer keyDeriversMutex.RUnlock()

	kd, ok := keyDerivers[algorithm]
	if !ok {
		return nil, errors.Errorf("unsupported key algorithm: %v, supported algorithms %v", algorithm, supportedAlgorithmsLocked())
	}

	return kd, nil
}

// DeriveKeyFromPassword derives encryption key using the provided password and salt.
func DeriveKeyFromPassword(password string, salt []byte, keySize int, algorithm string) ([]byte, error) {
	kd, err := keyDeriverFor(algorithm)
	if err != nil {
		return nil, err
	}

	return kd.deriveKeyFromPassword(password, salt, keySize)
}

// ParamsForAlgorithm returns the cost parameters of a registered algorithm with the default key length.
func ParamsForAlgorithm(algorithm string) (scrypt.Params, error) {
	kd, err := keyDeriverFor(algorithm)
	if err != nil {
		return scrypt.Params{}, err
	}

	p := kd.costParams()
	p.KeyLength = scrypt.DefaultKeyLength

	return p, nil
}

// SupportedAlgorithms returns the sorted names of registered key derivation algorithms.
func SupportedAlgorithms() []string {
	keyDeriversMutex.RLock()
	defer keyDeriversMutex.RUnlock()

	return supportedAlgorithmsLocked()
}

func supportedAlgorithmsLocked() []string {
	var res []string

	for k := range keyDerivers {
		res = append(res, k)
	}

	sort.Strings(res)

	return res
}
