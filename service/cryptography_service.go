package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"log"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/aryaprtm/audio-steganography-dwt/models"
)

const sessionKeyLen = 16 // AES-128 session keys, one per envelope layer

// keyTransport is the strategy that moves a session key to the
// extraction side. The two envelope layers share the AES-CBC body and
// differ only in this step.
type keyTransport interface {
	wrap(sessionKey []byte) (string, error)
	unwrap(encoded string) ([]byte, error)
}

// plainKeyTransport ships the session key as bare base64. The inner
// layer uses it: the EC keypair generated alongside is carried in the
// header as declarative metadata and does not protect the key.
type plainKeyTransport struct{}

func (plainKeyTransport) wrap(sessionKey []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(sessionKey), nil
}

func (plainKeyTransport) unwrap(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrapf(models.ErrBase64Decode, "session key: %v", err)
	}
	return key, nil
}

// rsaKeyTransport wraps the session key with RSA-OAEP over SHA-256.
// Either side of the transport may be nil depending on direction.
type rsaKeyTransport struct {
	public  *rsa.PublicKey
	private *rsa.PrivateKey
}

func (t *rsaKeyTransport) wrap(sessionKey []byte) (string, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, t.public, sessionKey, nil)
	if err != nil {
		return "", errors.Wrap(err, "RSA-OAEP encrypt")
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

func (t *rsaKeyTransport) unwrap(encoded string) ([]byte, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrapf(models.ErrBase64Decode, "wrapped session key: %v", err)
	}
	if t.private == nil {
		return nil, errors.Wrap(models.ErrMissingKeyMaterial, "RSA private key required to unwrap the session key")
	}
	key, err := rsa.DecryptOAEP(sha256.New(), nil, t.private, ct, nil)
	if err != nil {
		return nil, errors.Wrapf(models.ErrRSADecrypt, "%v", err)
	}
	return key, nil
}

// cryptographyService implements the CryptographyService interface.
type cryptographyService struct{}

// NewCryptographyService creates a new cryptography service instance.
func NewCryptographyService() CryptographyService {
	return &cryptographyService{}
}

// hybridSeal encrypts plaintext under a fresh session key with
// AES-CBC/PKCS7 and a fresh IV, returning base64(IV||CT) plus the
// transported key.
func hybridSeal(plaintext []byte, transport keyTransport) (data string, wrappedKey string, err error) {
	sessionKey := make([]byte, sessionKeyLen)
	if _, err := rand.Read(sessionKey); err != nil {
		return "", "", errors.Wrap(err, "session key generation")
	}
	defer zeroize(sessionKey)

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", "", errors.Wrap(err, "IV generation")
	}

	block, err := aes.NewCipher(sessionKey)
	if err != nil {
		return "", "", errors.Wrap(err, "AES cipher")
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	wrappedKey, err = transport.wrap(sessionKey)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(append(iv, ct...)), wrappedKey, nil
}

// hybridOpen reverses hybridSeal. The first block of the decoded data
// is the IV.
func hybridOpen(data string, wrappedKey string, transport keyTransport) ([]byte, error) {
	sessionKey, err := transport.unwrap(wrappedKey)
	if err != nil {
		return nil, err
	}
	defer zeroize(sessionKey)

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrapf(models.ErrBase64Decode, "ciphertext: %v", err)
	}
	if len(raw) < aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return nil, errors.Wrapf(models.ErrAESPadding, "ciphertext length %d is not a whole number of blocks", len(raw))
	}
	iv, ct := raw[:aes.BlockSize], raw[aes.BlockSize:]

	block, err := aes.NewCipher(sessionKey)
	if err != nil {
		return nil, errors.Wrapf(models.ErrAESPadding, "AES cipher: %v", err)
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)
	return pkcs7Unpad(plain, aes.BlockSize)
}

// GenerateKeyMaterial creates the per-embed P-256 and RSA-2048
// keypairs and serialises them to PEM. RSA generation dominates the
// embed latency.
func (c *cryptographyService) GenerateKeyMaterial() (*models.KeyMaterial, error) {
	eccKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "ECC key generation")
	}
	log.Printf("[DEBUG] GenerateKeyMaterial: ECC P-256 keypair ready")

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Wrap(err, "RSA key generation")
	}
	log.Printf("[DEBUG] GenerateKeyMaterial: RSA-2048 keypair ready")

	eccPub, err := x509.MarshalPKIXPublicKey(&eccKey.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "ECC public key marshal")
	}
	eccPriv, err := x509.MarshalPKCS8PrivateKey(eccKey)
	if err != nil {
		return nil, errors.Wrap(err, "ECC private key marshal")
	}
	rsaPub, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "RSA public key marshal")
	}
	rsaPriv := x509.MarshalPKCS1PrivateKey(rsaKey)

	km := &models.KeyMaterial{
		ECCPublicKeyPEM:  encodePEM("PUBLIC KEY", eccPub),
		ECCPrivateKeyPEM: encodePEM("PRIVATE KEY", eccPriv),
		RSAPublicKeyPEM:  encodePEM("PUBLIC KEY", rsaPub),
		RSAPrivateKeyPEM: encodePEM("RSA PRIVATE KEY", rsaPriv),
	}
	// The PEM strings are the long-lived representation; the DER
	// buffers are wiped as soon as they are encoded.
	zeroize(eccPriv)
	zeroize(rsaPriv)
	return km, nil
}

// Seal applies the inner plain-transport layer to the cleartext, then
// the outer RSA-transport layer to the combined inner result, and
// assembles the container header.
func (c *cryptographyService) Seal(message string, keys *models.KeyMaterial) (*models.SealedMessage, error) {
	eccData, eccKey, err := hybridSeal([]byte(message), plainKeyTransport{})
	if err != nil {
		return nil, errors.Wrap(err, "inner envelope")
	}

	combined, err := json.Marshal(map[string]string{
		"ecc_data": eccData,
		"ecc_key":  eccKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "inner envelope marshal")
	}

	rsaPub, err := parseRSAPublicKey(keys.RSAPublicKeyPEM)
	if err != nil {
		return nil, err
	}
	rsaData, rsaKey, err := hybridSeal(combined, &rsaKeyTransport{public: rsaPub})
	if err != nil {
		return nil, errors.Wrap(err, "outer envelope")
	}

	payloadJSON, err := json.Marshal(rsaData)
	if err != nil {
		return nil, errors.Wrap(err, "payload marshal")
	}

	return &models.SealedMessage{
		Header: &models.ContainerHeader{
			ECCPublicKey:  keys.ECCPublicKeyPEM,
			RSAPublicKey:  keys.RSAPublicKeyPEM,
			MessageLength: len([]rune(message)),
			RSAKey:        rsaKey,
		},
		PayloadJSON: string(payloadJSON),
		Keys:        keys,
	}, nil
}

// Open unwraps the outer RSA layer, parses the combined inner object
// and unwraps the inner layer. Each stage fails with its own tag.
func (c *cryptographyService) Open(header *models.ContainerHeader, payloadJSON string, keys *models.KeyMaterial) (string, error) {
	if keys == nil || keys.RSAPrivateKeyPEM == "" {
		return "", errors.Wrap(models.ErrMissingKeyMaterial, "extract requires the sidecar private keys")
	}

	var rsaData string
	if err := json.Unmarshal([]byte(payloadJSON), &rsaData); err != nil {
		return "", errors.Wrapf(models.ErrPayloadParse, "%v", err)
	}

	rsaPriv, err := parseRSAPrivateKey(keys.RSAPrivateKeyPEM)
	if err != nil {
		return "", err
	}
	combined, err := hybridOpen(rsaData, header.RSAKey, &rsaKeyTransport{private: rsaPriv})
	if err != nil {
		return "", errors.Wrap(err, "outer envelope")
	}

	var inner struct {
		ECCData string `json:"ecc_data"`
		ECCKey  string `json:"ecc_key"`
	}
	if err := json.Unmarshal(combined, &inner); err != nil {
		return "", errors.Wrapf(models.ErrPayloadParse, "inner envelope: %v", err)
	}
	if inner.ECCData == "" || inner.ECCKey == "" {
		return "", errors.Wrap(models.ErrPayloadParse, "inner envelope misses ecc_data or ecc_key")
	}

	plain, err := hybridOpen(inner.ECCData, inner.ECCKey, plainKeyTransport{})
	if err != nil {
		return "", errors.Wrap(err, "inner envelope")
	}
	if !utf8.Valid(plain) {
		return "", errors.Wrap(models.ErrUTF8Decode, "recovered cleartext")
	}
	return string(plain), nil
}

// ------------------ PKCS7 ------------------

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.Wrapf(models.ErrAESPadding, "data length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.Wrapf(models.ErrAESPadding, "pad byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.Wrap(models.ErrAESPadding, "inconsistent pad bytes")
		}
	}
	return data[:len(data)-n], nil
}

// ------------------ PEM helpers ------------------

func encodePEM(blockType string, der []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}))
}

func parseRSAPublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.Wrap(models.ErrHeaderParse, "RSA public key is not PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrapf(models.ErrHeaderParse, "RSA public key: %v", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.Wrap(models.ErrHeaderParse, "public key is not RSA")
	}
	return rsaPub, nil
}

func parseRSAPrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.Wrap(models.ErrMissingKeyMaterial, "RSA private key is not PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrapf(models.ErrMissingKeyMaterial, "RSA private key: %v", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.Wrap(models.ErrMissingKeyMaterial, "private key is not RSA")
	}
	return key, nil
}

// zeroize wipes transient key material once it leaves scope.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
