// Package wallet builds the operator wallet that signs every relay
// transaction and pays all gas.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// ErrNotConfigured neither a seed phrase nor a private key was supplied.
var ErrNotConfigured = errors.New("wallet: no seed phrase or private key configured")

// Source records where the operator key came from.
type Source string

const (
	SourceSeedPhrase Source = "seed_phrase"
	SourcePrivateKey Source = "private_key"
)

// Wallet is the operator account. Constructed once at startup and shared
// by reference; the key never changes afterwards.
type Wallet struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
	Source     Source
}

// standard Ethereum account path m/44'/60'/0'/0/0
var derivationPath = []uint32{
	44 + hdkeychain.HardenedKeyStart,
	60 + hdkeychain.HardenedKeyStart,
	0 + hdkeychain.HardenedKeyStart,
	0,
	0,
}

// New builds the operator wallet from configuration. The seed phrase takes
// precedence when both credentials are present.
func New(seedPhrase, privateKey string) (*Wallet, error) {
	if strings.TrimSpace(seedPhrase) != "" {
		return FromSeedPhrase(seedPhrase)
	}
	if strings.TrimSpace(privateKey) != "" {
		return FromPrivateKey(privateKey)
	}
	return nil, ErrNotConfigured
}

// FromSeedPhrase derives the key at m/44'/60'/0'/0/0 from a BIP-39 mnemonic.
func FromSeedPhrase(mnemonic string) (*Wallet, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("wallet: invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("wallet: master key derivation failed: %w", err)
	}
	for _, index := range derivationPath {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("wallet: child key derivation failed: %w", err)
		}
	}

	btcPriv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: private key extraction failed: %w", err)
	}
	priv := btcPriv.ToECDSA()

	return &Wallet{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
		Source:     SourceSeedPhrase,
	}, nil
}

// FromPrivateKey parses a raw hex private key, with or without 0x prefix.
func FromPrivateKey(hexKey string) (*Wallet, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid private key: %w", err)
	}

	return &Wallet{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
		Source:     SourcePrivateKey,
	}, nil
}
