package sns

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
)

// ErrInvalidSignature covers every way an envelope can fail authentication:
// malformed fields, an untrusted certificate origin, or a cryptographic
// mismatch. Callers must treat all of them identically.
var ErrInvalidSignature = errors.New("invalid sns message signature")

const maxCertBytes = 64 * 1024

// Verifier authenticates SNS envelopes against the signing certificate they
// reference. Certificates are fetched once per URL and cached for the life of
// the process; SNS rotates URLs when it rotates certificates.
type Verifier struct {
	client      *http.Client
	hostPattern *regexp.Regexp

	mu    sync.Mutex
	certs map[string]*x509.Certificate
}

func NewVerifier(client *http.Client, hostPattern *regexp.Regexp) *Verifier {
	return &Verifier{
		client:      client,
		hostPattern: hostPattern,
		certs:       make(map[string]*x509.Certificate),
	}
}

// Verify checks the envelope signature. Any returned error wraps
// ErrInvalidSignature; the payload must not be processed further.
func (v *Verifier) Verify(ctx context.Context, m *Message) error {
	var hash crypto.Hash
	switch m.SignatureVersion {
	case "1":
		hash = crypto.SHA1
	case "2":
		hash = crypto.SHA256
	default:
		return fmt.Errorf("%w: unsupported signature version %q", ErrInvalidSignature, m.SignatureVersion)
	}

	if err := validateCertURL(m.SigningCertURL, v.hostPattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	signed := m.stringToSign()

	signature, err := base64.StdEncoding.DecodeString(m.Signature)
	if err != nil {
		return fmt.Errorf("%w: decoding signature: %v", ErrInvalidSignature, err)
	}

	cert, err := v.signingCert(ctx, m.SigningCertURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: signing cert key is not RSA", ErrInvalidSignature)
	}

	var digest []byte
	switch hash {
	case crypto.SHA1:
		sum := sha1.Sum(signed)
		digest = sum[:]
	case crypto.SHA256:
		sum := sha256.Sum256(signed)
		digest = sum[:]
	}

	if err := rsa.VerifyPKCS1v15(pub, hash, digest, signature); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func (v *Verifier) signingCert(ctx context.Context, url string) (*x509.Certificate, error) {
	v.mu.Lock()
	cert, ok := v.certs[url]
	v.mu.Unlock()
	if ok {
		return cert, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building cert request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching signing cert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching signing cert: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCertBytes))
	if err != nil {
		return nil, fmt.Errorf("reading signing cert: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("signing cert is not PEM")
	}
	cert, err = x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing signing cert: %w", err)
	}

	v.mu.Lock()
	v.certs[url] = cert
	v.mu.Unlock()
	return cert, nil
}
