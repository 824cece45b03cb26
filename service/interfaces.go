package service

import (
	"github.com/aryaprtm/audio-steganography-dwt/models"
)

// SteganographyService drives the full embed/extract pipeline: crypto
// envelope, container framing, wavelet transform, QIM and carrier I/O.
type SteganographyService interface {
	// Embed hides the request message inside the carrier and writes the
	// stego WAV plus sidecar files.
	Embed(req *models.EmbedRequest) (*models.EmbedResult, error)

	// Extract recovers the cleartext from a stego WAV produced by Embed.
	Extract(req *models.ExtractRequest) (*models.ExtractResult, error)

	// Capacity reports how many bits the carrier's host channel can hold.
	Capacity(path string) (*models.CapacityResult, error)

	// DescribeContainer parses the container boundaries of a stego WAV
	// without decrypting the payload.
	DescribeContainer(req *models.ExtractRequest) (*models.ContainerLayout, error)
}

// CryptographyService implements the layered hybrid envelope: an inner
// AES-CBC layer whose session key travels as plain base64 next to a
// declarative EC keypair, and an outer AES-CBC layer whose session key
// is wrapped with RSA-OAEP.
type CryptographyService interface {
	// GenerateKeyMaterial creates fresh P-256 and RSA-2048 keypairs in
	// PEM form.
	GenerateKeyMaterial() (*models.KeyMaterial, error)

	// Seal runs both envelope layers over the cleartext and returns the
	// container header plus the JSON-encoded outer ciphertext.
	Seal(message string, keys *models.KeyMaterial) (*models.SealedMessage, error)

	// Open reverses Seal using the private keys recovered from the
	// sidecar.
	Open(header *models.ContainerHeader, payloadJSON string, keys *models.KeyMaterial) (string, error)
}

// AudioService reads and writes PCM WAV carriers and provides the
// numerical helpers the orchestrator needs.
type AudioService interface {
	// ReadWAV loads a carrier into per-channel float64 samples in [-1, 1].
	ReadWAV(path string) (*AudioClip, error)

	// WriteWAV persists a clip, preserving the source sample format.
	WriteWAV(path string, clip *AudioClip) error

	// SynthesizeSine builds a mono sine-wave clip, used as the fallback
	// carrier and by tests.
	SynthesizeSine(duration float64, freq float64, amplitude float64, sampleRate int) *AudioClip

	// CalculateSNR returns the signal-to-noise ratio of modified against
	// original in dB.
	CalculateSNR(original, modified []float64) float64
}

// WaveletTransformer is the one-level db2 engine over a single channel.
type WaveletTransformer interface {
	// Forward decomposes a signal into approximation and detail
	// coefficient arrays of length ceil(len(x)/2) each.
	Forward(x []float64) (cA, cD []float64)

	// Inverse reconstructs a signal of the given length from one
	// coefficient pair.
	Inverse(cA, cD []float64, length int) []float64
}
