package service

import (
	"encoding/json"
	"log"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/aryaprtm/audio-steganography-dwt/models"
)

// stegoService implements SteganographyService on top of the crypto,
// audio and wavelet services.
type stegoService struct {
	crypto  CryptographyService
	audio   AudioService
	wavelet WaveletTransformer
}

// NewStegoService wires the pipeline together.
func NewStegoService(crypto CryptographyService, audio AudioService, wavelet WaveletTransformer) SteganographyService {
	return &stegoService{crypto: crypto, audio: audio, wavelet: wavelet}
}

// Fallback carrier parameters, matching the original sample generator.
const (
	fallbackDuration   = 10.0
	fallbackFreq       = 440.0
	fallbackAmplitude  = 0.5
	fallbackSampleRate = 44100
)

// ------------------ QIM ------------------

// qimEmbed forces |cD[i]| mod 2a into the residue a (bit 1) or 0
// (bit 0), preserving the coefficient sign. Coefficients past the bit
// stream are untouched.
func qimEmbed(cD []float64, bits []int, alpha float64) error {
	if len(bits) > len(cD) {
		return errors.Wrapf(models.ErrCapacityExceeded, "need %d coefficients, have %d", len(bits), len(cD))
	}
	step := 2 * alpha
	for i, bit := range bits {
		mag := math.Abs(cD[i])
		r := math.Mod(mag, step)
		target := 0.0
		if bit == 1 {
			target = alpha
		}
		sign := 1.0
		if cD[i] < 0 {
			sign = -1.0
		}
		cD[i] = sign * (mag + target - r)
	}
	return nil
}

// qimExtract reads min(numBits, len(cD)) bits. The decision window for
// a '1' is [0.4a, 1.6a] with inclusive bounds: residues pushed to a by
// the embedder survive reconstruction noise of up to 0.6a on either
// side.
func qimExtract(cD []float64, numBits int, alpha float64) []int {
	k := numBits
	if k > len(cD) {
		k = len(cD)
	}
	step := 2 * alpha
	lo, hi := 0.4*alpha, 1.6*alpha
	bits := make([]int, k)
	for i := 0; i < k; i++ {
		r := math.Mod(math.Abs(cD[i]), step)
		if r >= lo && r <= hi {
			bits[i] = 1
		}
	}
	return bits
}

// ------------------ Container framing ------------------

// buildContainerBits frames header and payload JSON behind the 32-bit
// big-endian header-length prefix.
func buildContainerBits(headerJSON, payloadJSON string) []int {
	headerBits := textToBits(headerJSON)
	payloadBits := textToBits(payloadJSON)
	all := make([]int, 0, 32+len(headerBits)+len(payloadBits))
	all = append(all, uint32ToBits(uint32(len(headerBits)))...)
	all = append(all, headerBits...)
	all = append(all, payloadBits...)
	return all
}

// parseContainer splits an extracted bit stream back into header and
// payload JSON text. The length prefix is authoritative; there is no
// terminator sentinel.
func parseContainer(bits []int) (headerJSON, payloadJSON string, err error) {
	if len(bits) < 32 {
		return "", "", errors.Wrapf(models.ErrLengthUnderflow, "got %d bits, need at least 32", len(bits))
	}
	headerLen := int(bitsToUint32(bits))
	if 32+headerLen > len(bits) {
		return "", "", errors.Wrapf(models.ErrLengthUnderflow, "header claims %d bits but only %d remain", headerLen, len(bits)-32)
	}
	headerJSON = bitsToText(bits[32 : 32+headerLen])
	payloadJSON = bitsToText(bits[32+headerLen:])
	return headerJSON, payloadJSON, nil
}

// parseHeader decodes and validates the container header object.
func parseHeader(headerJSON string) (*models.ContainerHeader, error) {
	var header models.ContainerHeader
	if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
		return nil, errors.Wrapf(models.ErrHeaderParse, "%v", err)
	}
	if header.ECCPublicKey == "" || header.RSAPublicKey == "" || header.RSAKey == "" {
		return nil, errors.Wrap(models.ErrHeaderParse, "missing required header fields")
	}
	return &header, nil
}

// ------------------ Operations ------------------

// Embed builds the layered envelope, frames the container, hides it in
// the detail coefficients of the host channel and writes the stego WAV
// plus sidecar files. Sidecar failures are non-fatal.
func (s *stegoService) Embed(req *models.EmbedRequest) (*models.EmbedResult, error) {
	if req.Message == "" {
		return nil, models.ErrEmptyMessage
	}
	alpha := req.Alpha
	if alpha == 0 {
		alpha = models.DefaultAlpha
	}
	if alpha < 0 {
		return nil, errors.Wrapf(models.ErrInvalidAlpha, "alpha=%g", alpha)
	}

	clip, err := s.loadCarrier(req)
	if err != nil {
		return nil, err
	}

	keys, err := s.crypto.GenerateKeyMaterial()
	if err != nil {
		return nil, err
	}
	sealed, err := s.crypto.Seal(req.Message, keys)
	if err != nil {
		return nil, err
	}
	headerJSON, err := json.Marshal(sealed.Header)
	if err != nil {
		return nil, errors.Wrapf(models.ErrHeaderParse, "header marshal: %v", err)
	}
	allBits := buildContainerBits(string(headerJSON), sealed.PayloadJSON)

	host := clip.Channels[0]
	cA, cD := s.wavelet.Forward(host)
	if len(allBits) > len(cD) {
		return nil, errors.Wrapf(models.ErrCapacityExceeded, "container is %d bits, capacity is %d", len(allBits), len(cD))
	}

	modified := make([]float64, len(cD))
	copy(modified, cD)
	if err := qimEmbed(modified, allBits, alpha); err != nil {
		return nil, err
	}
	rebuilt := s.wavelet.Inverse(cA, modified, len(host))

	stego := &AudioClip{
		Channels:   make([][]float64, len(clip.Channels)),
		SampleRate: clip.SampleRate,
		BitDepth:   clip.BitDepth,
		FloatPCM:   clip.FloatPCM,
	}
	stego.Channels[0] = rebuilt
	for ch := 1; ch < len(clip.Channels); ch++ {
		other := clip.Channels[ch]
		if len(other) > len(rebuilt) {
			other = other[:len(rebuilt)]
		}
		stego.Channels[ch] = other
	}

	if err := s.audio.WriteWAV(req.OutputPath, stego); err != nil {
		return nil, err
	}

	result := &models.EmbedResult{
		OutputPath:   req.OutputPath,
		BitsLength:   len(allBits),
		CapacityBits: len(cD),
		Alpha:        alpha,
		SNR:          s.audio.CalculateSNR(host, rebuilt),
	}

	info := &models.SidecarInfo{
		BitsLength:    len(allBits),
		ECCPublicKey:  keys.ECCPublicKeyPEM,
		ECCPrivateKey: keys.ECCPrivateKeyPEM,
		RSAPublicKey:  keys.RSAPublicKeyPEM,
		RSAPrivateKey: keys.RSAPrivateKeyPEM,
		MessageLength: len([]rune(req.Message)),
		Alpha:         alpha,
	}
	sidecarPath := req.OutputPath + ".info"
	keyPath := req.OutputPath + ".key"
	if err := writeSidecar(sidecarPath, info); err != nil {
		log.Printf("[WARN] Embed: sidecar write failed: %v", err)
		result.SidecarError = err.Error()
	} else {
		result.SidecarPath = sidecarPath
	}
	if err := writeKeyFile(keyPath, keys); err != nil {
		log.Printf("[WARN] Embed: key file write failed: %v", err)
		if result.SidecarError == "" {
			result.SidecarError = err.Error()
		}
	} else {
		result.KeyFilePath = keyPath
	}

	log.Printf("[INFO] Embed: %d bits hidden in %s (capacity %d, alpha %g, SNR %.2f dB)",
		len(allBits), req.OutputPath, len(cD), alpha, result.SNR)
	return result, nil
}

// Extract recovers the container from the stego carrier and runs the
// decrypt path. Parameters come from the sidecar when available,
// explicit request fields win over sidecar values.
func (s *stegoService) Extract(req *models.ExtractRequest) (*models.ExtractResult, error) {
	bits, sidecar, alpha, err := s.extractBits(req)
	if err != nil {
		return nil, err
	}

	headerJSON, payloadJSON, err := parseContainer(bits)
	if err != nil {
		return nil, err
	}
	header, err := parseHeader(headerJSON)
	if err != nil {
		return nil, err
	}

	keys := &models.KeyMaterial{
		ECCPublicKeyPEM: header.ECCPublicKey,
		RSAPublicKeyPEM: header.RSAPublicKey,
	}
	if sidecar != nil {
		keys.ECCPrivateKeyPEM = sidecar.ECCPrivateKey
		keys.RSAPrivateKeyPEM = sidecar.RSAPrivateKey
	}

	message, err := s.crypto.Open(header, payloadJSON, keys)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] Extract: recovered %d characters from %s (alpha %g)",
		len([]rune(message)), req.StegoPath, alpha)
	return &models.ExtractResult{
		Message:       message,
		MessageLength: header.MessageLength,
		BitsLength:    len(bits),
	}, nil
}

// Capacity reports the host channel's detail coefficient count.
func (s *stegoService) Capacity(path string) (*models.CapacityResult, error) {
	clip, err := s.audio.ReadWAV(path)
	if err != nil {
		return nil, err
	}
	_, cD := s.wavelet.Forward(clip.Channels[0])
	return &models.CapacityResult{
		CapacityBits:  len(cD),
		CapacityBytes: len(cD) / 8,
		HostSamples:   clip.NumSamples(),
		SampleRate:    clip.SampleRate,
		Channels:      len(clip.Channels),
	}, nil
}

// DescribeContainer parses the container boundaries without touching
// the crypto layers. Diagnostic counterpart of Extract.
func (s *stegoService) DescribeContainer(req *models.ExtractRequest) (*models.ContainerLayout, error) {
	bits, _, _, err := s.extractBits(req)
	if err != nil {
		return nil, err
	}
	headerJSON, payloadJSON, err := parseContainer(bits)
	if err != nil {
		return nil, err
	}
	header, err := parseHeader(headerJSON)
	if err != nil {
		return nil, err
	}
	head := payloadJSON
	if len(head) > 80 {
		head = head[:80]
	}
	return &models.ContainerLayout{
		TotalBits:     len(bits),
		HeaderBits:    len(headerJSON) * 8,
		PayloadBits:   len(payloadJSON) * 8,
		MessageLength: header.MessageLength,
		HasECCKey:     header.ECCPublicKey != "",
		HasRSAKey:     header.RSAPublicKey != "",
		HasSessionKey: header.RSAKey != "",
		PayloadHead:   head,
	}, nil
}

// ------------------ Internals ------------------

// loadCarrier reads the input WAV, or synthesises the sample sine
// carrier when the file is missing and synthesis is allowed.
func (s *stegoService) loadCarrier(req *models.EmbedRequest) (*AudioClip, error) {
	if _, err := os.Stat(req.InputPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(models.ErrIOReadFailed, "%s: %v", req.InputPath, err)
		}
		if req.DisableSynthesis {
			return nil, errors.Wrapf(models.ErrIOReadFailed, "%s: carrier not found", req.InputPath)
		}
		log.Printf("[WARN] Embed: carrier %s not found, synthesising a %gs %gHz sine", req.InputPath, fallbackDuration, fallbackFreq)
		return s.audio.SynthesizeSine(fallbackDuration, fallbackFreq, fallbackAmplitude, fallbackSampleRate), nil
	}
	return s.audio.ReadWAV(req.InputPath)
}

// extractBits resolves the extraction parameters and pulls the raw bit
// stream out of the stego carrier.
func (s *stegoService) extractBits(req *models.ExtractRequest) ([]int, *models.SidecarInfo, float64, error) {
	sidecar := req.Sidecar
	if sidecar == nil {
		if info, err := loadSidecar(req.StegoPath + ".info"); err == nil {
			sidecar = info
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, 0, err
		}
	}

	bitsLength := req.BitsLength
	if bitsLength == 0 && sidecar != nil {
		bitsLength = sidecar.BitsLength
	}
	if bitsLength <= 0 {
		return nil, nil, 0, errors.Wrap(models.ErrMissingBitsLength, "no sidecar found and no bits_length supplied")
	}
	if bitsLength < 32 {
		return nil, nil, 0, errors.Wrapf(models.ErrLengthUnderflow, "bits_length %d", bitsLength)
	}

	alpha := req.Alpha
	if alpha == 0 && sidecar != nil {
		alpha = sidecar.Alpha
	}
	if alpha == 0 {
		alpha = models.DefaultAlpha
	}
	if alpha < 0 {
		return nil, nil, 0, errors.Wrapf(models.ErrInvalidAlpha, "alpha=%g", alpha)
	}

	clip, err := s.audio.ReadWAV(req.StegoPath)
	if err != nil {
		return nil, nil, 0, err
	}
	_, cD := s.wavelet.Forward(clip.Channels[0])
	bits := qimExtract(cD, bitsLength, alpha)
	if len(bits) < bitsLength {
		return nil, nil, 0, errors.Wrapf(models.ErrLengthUnderflow, "requested %d bits, carrier holds %d", bitsLength, len(bits))
	}
	return bits, sidecar, alpha, nil
}
