package wallet

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"

	"profit_go/internal/domain"

	"github.com/mr-tron/base58"
)

const (
	signatureLen = ed25519.SignatureSize
	pubkeyLen    = ed25519.PublicKeySize
)

// Signer holds the wallet keypair and signs Solana wire transactions.
// It implements domain.Signer.
type Signer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	address string
}

// NewSigner decodes a base58 secret key. Both the 64-byte keypair form and a bare
// 32-byte seed are accepted. If expectedPublicKey is set it must match.
func NewSigner(secretBase58, expectedPublicKey string) (*Signer, error) {
	raw, err := base58.Decode(secretBase58)
	if err != nil {
		return nil, &domain.ConfigError{Field: "wallet.private_key", Err: fmt.Errorf("not base58: %w", err)}
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, &domain.ConfigError{Field: "wallet.private_key", Err: fmt.Errorf("unexpected key length %d", len(raw))}
	}

	pub := priv.Public().(ed25519.PublicKey)
	s := &Signer{private: priv, public: pub, address: base58.Encode(pub)}

	if expectedPublicKey != "" && expectedPublicKey != s.address {
		return nil, &domain.ConfigError{Field: "wallet.public_key", Err: errors.New("does not match private key")}
	}
	return s, nil
}

// NewEphemeralSigner generates a fresh random keypair, used for accounts that must
// co-sign their own creation.
func NewEphemeralSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return &Signer{private: priv, public: pub, address: base58.Encode(pub)}, nil
}

// PublicKey returns the wallet address.
func (s *Signer) PublicKey() string {
	return s.address
}

// SignTransaction fills this wallet's signature slot in a serialized transaction.
//
// Wire layout: shortvec(n) | n*64 signatures | message. The message header's first
// byte is the number of required signers; signer i is account key i.
func (s *Signer) SignTransaction(tx []byte) ([]byte, error) {
	numSigs, off, err := decodeShortVec(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: signature count: %v", domain.ErrInvalidInput, err)
	}
	msgStart := off + numSigs*signatureLen
	if numSigs == 0 || msgStart >= len(tx) {
		return nil, fmt.Errorf("%w: truncated transaction", domain.ErrInvalidInput)
	}
	msg := tx[msgStart:]

	idx, err := s.signerIndex(msg, numSigs)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(tx))
	copy(out, tx)
	sig := ed25519.Sign(s.private, msg)
	copy(out[off+idx*signatureLen:], sig)
	return out, nil
}

// signerIndex locates this wallet among the message's required signers.
func (s *Signer) signerIndex(msg []byte, numSigs int) (int, error) {
	header := msg
	if msg[0]&0x80 != 0 {
		// versioned message prefix
		header = msg[1:]
	}
	if len(header) < 4 {
		return 0, fmt.Errorf("%w: truncated message header", domain.ErrInvalidInput)
	}
	required := int(header[0])
	if required > numSigs {
		return 0, fmt.Errorf("%w: %d signers but %d signature slots", domain.ErrInvalidInput, required, numSigs)
	}

	numKeys, off, err := decodeShortVec(header[3:])
	if err != nil {
		return 0, fmt.Errorf("%w: account keys: %v", domain.ErrInvalidInput, err)
	}
	keys := header[3+off:]
	if len(keys) < numKeys*pubkeyLen || numKeys < required {
		return 0, fmt.Errorf("%w: truncated account keys", domain.ErrInvalidInput)
	}

	for i := 0; i < required; i++ {
		if bytes.Equal(keys[i*pubkeyLen:(i+1)*pubkeyLen], s.public) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: wallet %s is not a signer", domain.ErrInvalidInput, s.address)
}

// decodeShortVec reads Solana's compact-u16 length prefix.
func decodeShortVec(b []byte) (value int, n int, err error) {
	for n < 3 {
		if n >= len(b) {
			return 0, 0, errors.New("unexpected end of input")
		}
		elem := int(b[n])
		value |= (elem & 0x7f) << (7 * n)
		n++
		if elem&0x80 == 0 {
			return value, n, nil
		}
	}
	return 0, 0, errors.New("shortvec too long")
}
