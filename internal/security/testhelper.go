package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"time"
)

// testKeys is an RSA pair generated once per process, so tests cover the RS256 path without
// checked-in key material.
var testKeys struct {
	once       sync.Once
	privatePEM string
	publicPEM  string
	err        error
}

func testKeyPair() (privatePEM, publicPEM string, err error) {
	testKeys.once.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			testKeys.err = err
			return
		}
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			testKeys.err = err
			return
		}
		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			testKeys.err = err
			return
		}
		testKeys.privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
		testKeys.publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	})
	return testKeys.privatePEM, testKeys.publicPEM, testKeys.err
}

// NewTestTokenProvider returns an RS256 TokenProvider over a process-wide generated key pair.
// Other packages' tests use it to mint handshake tokens. Not for production use.
func NewTestTokenProvider() (*TokenProvider, error) {
	priv, pub, err := testKeyPair()
	if err != nil {
		return nil, err
	}
	return NewTokenProviderFromPEM(priv, pub, "test-issuer", "test-audience", 15*time.Minute)
}
