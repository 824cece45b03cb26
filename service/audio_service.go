package service

import (
	"bytes"
	"encoding/binary"
	"log"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/aryaprtm/audio-steganography-dwt/models"
)

// AudioClip is a decoded PCM WAV carrier: one float64 slice per
// channel, samples normalised to [-1, 1]. BitDepth and FloatPCM
// remember the source sample format so WriteWAV can preserve it.
type AudioClip struct {
	Channels   [][]float64
	SampleRate int
	BitDepth   int
	FloatPCM   bool
}

// NumSamples returns the per-channel frame count.
func (c *AudioClip) NumSamples() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// audioService implements the AudioService interface.
type audioService struct{}

// NewAudioService creates a new audio service instance.
func NewAudioService() AudioService {
	return &audioService{}
}

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE
)

// ReadWAV loads a carrier. Integer PCM goes through the go-audio
// decoder; IEEE-float carriers are decoded by the chunk walker below,
// which go-audio's IntBuffer model cannot represent losslessly.
func (a *audioService) ReadWAV(path string) (*AudioClip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(models.ErrIOReadFailed, "%s: %v", path, err)
	}

	hdr, err := parseWAVChunks(raw)
	if err != nil {
		return nil, err
	}

	if hdr.audioFormat == wavFormatIEEEFloat {
		return decodeFloatWAV(raw, hdr)
	}

	d := wav.NewDecoder(bytes.NewReader(raw))
	if !d.IsValidFile() {
		return nil, errors.Wrapf(models.ErrInvalidWAV, "%s", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(models.ErrInvalidWAV, "%s: %v", path, err)
	}
	numChans := buf.Format.NumChannels
	if numChans < 1 {
		return nil, errors.Wrapf(models.ErrInvalidWAV, "%s: no channels", path)
	}
	bitDepth := int(d.BitDepth)
	scale := float64(int64(1) << uint(bitDepth-1))
	frames := len(buf.Data) / numChans

	clip := &AudioClip{
		Channels:   make([][]float64, numChans),
		SampleRate: buf.Format.SampleRate,
		BitDepth:   bitDepth,
	}
	for ch := 0; ch < numChans; ch++ {
		clip.Channels[ch] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			v := buf.Data[i*numChans+ch]
			if bitDepth == 8 {
				// 8-bit WAV is unsigned
				clip.Channels[ch][i] = float64(v-128) / 128.0
			} else {
				clip.Channels[ch][i] = float64(v) / scale
			}
		}
	}
	log.Printf("[DEBUG] ReadWAV: %s (%d Hz, %d ch, %d-bit int, %d frames)",
		path, clip.SampleRate, numChans, bitDepth, frames)
	return clip, nil
}

// WriteWAV persists a clip in its source sample format: int PCM goes
// through the go-audio encoder, float carriers through writeFloatWAV.
func (a *audioService) WriteWAV(path string, clip *AudioClip) error {
	if clip.FloatPCM {
		return writeFloatWAV(path, clip)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(models.ErrIOWriteFailed, "%s: %v", path, err)
	}
	defer f.Close()

	numChans := len(clip.Channels)
	frames := clip.NumSamples()
	scale := float64(int64(1) << uint(clip.BitDepth-1))
	data := make([]int, frames*numChans)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			var v int
			if clip.BitDepth == 8 {
				v = int(math.Round(clip.Channels[ch][i]*128.0)) + 128
				v = clampInt(v, 0, 255)
			} else {
				v = int(math.Round(clip.Channels[ch][i] * scale))
				v = clampInt(v, -int(scale), int(scale)-1)
			}
			data[i*numChans+ch] = v
		}
	}

	e := wav.NewEncoder(f, clip.SampleRate, clip.BitDepth, numChans, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: clip.SampleRate},
		Data:           data,
		SourceBitDepth: clip.BitDepth,
	}
	if err := e.Write(buf); err != nil {
		return errors.Wrapf(models.ErrIOWriteFailed, "%s: %v", path, err)
	}
	if err := e.Close(); err != nil {
		return errors.Wrapf(models.ErrIOWriteFailed, "%s: %v", path, err)
	}
	log.Printf("[DEBUG] WriteWAV: %s (%d Hz, %d ch, %d-bit int, %d frames)",
		path, clip.SampleRate, numChans, clip.BitDepth, frames)
	return nil
}

// SynthesizeSine builds the fallback carrier: a mono sine wave clip
// stored as 16-bit PCM.
func (a *audioService) SynthesizeSine(duration, freq, amplitude float64, sampleRate int) *AudioClip {
	n := int(float64(sampleRate) * duration)
	samples := make([]float64, n)
	w := 2 * math.Pi * freq / float64(sampleRate)
	for i := range samples {
		samples[i] = amplitude * math.Sin(w*float64(i))
	}
	return &AudioClip{
		Channels:   [][]float64{samples},
		SampleRate: sampleRate,
		BitDepth:   16,
	}
}

// CalculateSNR returns 10*log10(signal energy / noise energy) in dB,
// comparing the common prefix of the two channels.
func (a *audioService) CalculateSNR(original, modified []float64) float64 {
	n := len(original)
	if len(modified) < n {
		n = len(modified)
	}
	if n == 0 {
		return 0
	}
	orig := original[:n]
	noise := make([]float64, n)
	floats.SubTo(noise, orig, modified[:n])

	signalEnergy := floats.Dot(orig, orig)
	noiseEnergy := floats.Dot(noise, noise)
	if noiseEnergy == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(signalEnergy/noiseEnergy)
}

// ------------------ RIFF chunk parsing ------------------

type wavHeader struct {
	audioFormat int
	numChans    int
	sampleRate  int
	bitDepth    int
	dataOffset  int
	dataSize    int
}

// parseWAVChunks walks the RIFF chunk list and returns the fmt fields
// plus the location of the data chunk. Chunks are word-aligned, so odd
// sizes carry one pad byte.
func parseWAVChunks(raw []byte) (*wavHeader, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.Wrap(models.ErrInvalidWAV, "missing RIFF/WAVE header")
	}

	hdr := &wavHeader{}
	fmtFound := false
	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(raw) {
			chunkSize = len(raw) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, errors.Wrap(models.ErrInvalidWAV, "fmt chunk too short")
			}
			hdr.audioFormat = int(binary.LittleEndian.Uint16(raw[body : body+2]))
			hdr.numChans = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			hdr.sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			hdr.bitDepth = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
			if hdr.audioFormat == wavFormatExtensible && chunkSize >= 40 {
				// subformat GUID starts at byte 24 of the chunk body
				hdr.audioFormat = int(binary.LittleEndian.Uint16(raw[body+24 : body+26]))
			}
			fmtFound = true
		case "data":
			hdr.dataOffset = body
			hdr.dataSize = chunkSize
		}

		next := body + chunkSize
		if chunkSize%2 == 1 {
			next++
		}
		if next <= offset {
			return nil, errors.Wrap(models.ErrInvalidWAV, "malformed chunk list")
		}
		offset = next
	}

	if !fmtFound {
		return nil, errors.Wrap(models.ErrInvalidWAV, "missing fmt chunk")
	}
	if hdr.dataSize == 0 {
		return nil, errors.Wrap(models.ErrInvalidWAV, "missing data chunk")
	}
	if hdr.numChans < 1 || hdr.sampleRate == 0 {
		return nil, errors.Wrap(models.ErrInvalidWAV, "invalid fmt fields")
	}
	return hdr, nil
}

// decodeFloatWAV reads an IEEE-float data chunk (float32 or float64).
func decodeFloatWAV(raw []byte, hdr *wavHeader) (*AudioClip, error) {
	if hdr.bitDepth != 32 && hdr.bitDepth != 64 {
		return nil, errors.Wrapf(models.ErrInvalidWAV, "unsupported float bit depth %d", hdr.bitDepth)
	}
	bytesPerSample := hdr.bitDepth / 8
	frameSize := bytesPerSample * hdr.numChans
	frames := hdr.dataSize / frameSize

	clip := &AudioClip{
		Channels:   make([][]float64, hdr.numChans),
		SampleRate: hdr.sampleRate,
		BitDepth:   hdr.bitDepth,
		FloatPCM:   true,
	}
	for ch := range clip.Channels {
		clip.Channels[ch] = make([]float64, frames)
	}
	data := raw[hdr.dataOffset : hdr.dataOffset+frames*frameSize]
	for i := 0; i < frames; i++ {
		for ch := 0; ch < hdr.numChans; ch++ {
			off := i*frameSize + ch*bytesPerSample
			if hdr.bitDepth == 32 {
				bits := binary.LittleEndian.Uint32(data[off : off+4])
				clip.Channels[ch][i] = float64(math.Float32frombits(bits))
			} else {
				bits := binary.LittleEndian.Uint64(data[off : off+8])
				clip.Channels[ch][i] = math.Float64frombits(bits)
			}
		}
	}
	log.Printf("[DEBUG] ReadWAV: float carrier (%d Hz, %d ch, float%d, %d frames)",
		hdr.sampleRate, hdr.numChans, hdr.bitDepth, frames)
	return clip, nil
}

// writeFloatWAV hand-builds a format-3 WAV, including the fact chunk
// the format requires.
func writeFloatWAV(path string, clip *AudioClip) error {
	numChans := len(clip.Channels)
	frames := clip.NumSamples()
	bytesPerSample := clip.BitDepth / 8
	dataSize := frames * numChans * bytesPerSample

	var out bytes.Buffer
	out.Grow(58 + dataSize)
	// chunk sizes after the RIFF header: WAVE(4) + fmt(24) + fact(12) + data header(8)
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(48+dataSize))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(wavFormatIEEEFloat))
	binary.Write(&out, binary.LittleEndian, uint16(numChans))
	binary.Write(&out, binary.LittleEndian, uint32(clip.SampleRate))
	binary.Write(&out, binary.LittleEndian, uint32(clip.SampleRate*numChans*bytesPerSample))
	binary.Write(&out, binary.LittleEndian, uint16(numChans*bytesPerSample))
	binary.Write(&out, binary.LittleEndian, uint16(clip.BitDepth))

	out.WriteString("fact")
	binary.Write(&out, binary.LittleEndian, uint32(4))
	binary.Write(&out, binary.LittleEndian, uint32(frames))

	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(dataSize))
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			if clip.BitDepth == 32 {
				binary.Write(&out, binary.LittleEndian, math.Float32bits(float32(clip.Channels[ch][i])))
			} else {
				binary.Write(&out, binary.LittleEndian, math.Float64bits(clip.Channels[ch][i]))
			}
		}
	}

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return errors.Wrapf(models.ErrIOWriteFailed, "%s: %v", path, err)
	}
	log.Printf("[DEBUG] WriteWAV: %s (%d Hz, %d ch, float%d, %d frames)",
		path, clip.SampleRate, numChans, clip.BitDepth, frames)
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
