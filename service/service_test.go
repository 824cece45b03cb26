package service

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/aryaprtm/audio-steganography-dwt/models"
)

func TestTextBitsRoundTrip(t *testing.T) {
	cases := []string{
		"HALO DUNIA",
		`{"rsa_key":"QUJDRA=="}`,
		"",
		string(rune(0)) + string(rune(127)) + string(rune(255)),
	}
	for _, s := range cases {
		bits := textToBits(s)
		if len(bits) != len([]rune(s))*8 {
			t.Errorf("textToBits(%q): got %d bits, want %d", s, len(bits), len([]rune(s))*8)
		}
		if got := bitsToText(bits); got != s {
			t.Errorf("bitsToText(textToBits(%q)) = %q", s, got)
		}
	}
}

func TestBitsToTextDiscardsTrailingBits(t *testing.T) {
	bits := append(textToBits("AB"), 1, 0, 1)
	if got := bitsToText(bits); got != "AB" {
		t.Errorf("expected trailing bits to be discarded, got %q", got)
	}
}

func TestBytesToBits(t *testing.T) {
	testData := []byte{0xFF, 0x00, 0xAA}
	expected := []int{1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 1, 0, 1, 0}

	bits := bytesToBits(testData)
	if len(bits) != len(expected) {
		t.Fatalf("bytesToBits: expected length %d, got %d", len(expected), len(bits))
	}
	for i, bit := range bits {
		if bit != expected[i] {
			t.Errorf("bytesToBits failed at index %d: expected %d, got %d", i, expected[i], bit)
		}
	}
}

func TestBitsToBytes(t *testing.T) {
	testBits := []int{1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	expected := []byte{0xFF, 0x00, 0xAA}

	if got := bitsToBytes(testBits); !bytes.Equal(got, expected) {
		t.Errorf("bitsToBytes: expected %v, got %v", expected, got)
	}
}

func TestUint32Bits(t *testing.T) {
	for _, v := range []uint32{0, 1, 255, 9600, 1<<31 + 7, math.MaxUint32} {
		bits := uint32ToBits(v)
		if len(bits) != 32 {
			t.Fatalf("uint32ToBits(%d): got %d bits", v, len(bits))
		}
		if got := bitsToUint32(bits); got != v {
			t.Errorf("bitsToUint32(uint32ToBits(%d)) = %d", v, got)
		}
	}
}

func TestPKCS7(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 100} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		padded := pkcs7Pad(data, 16)
		if len(padded)%16 != 0 {
			t.Errorf("pkcs7Pad(%d bytes): length %d not a multiple of 16", n, len(padded))
		}
		unpadded, err := pkcs7Unpad(padded, 16)
		if err != nil {
			t.Fatalf("pkcs7Unpad(%d bytes): %v", n, err)
		}
		if !bytes.Equal(unpadded, data) {
			t.Errorf("pkcs7 round trip failed for %d bytes", n)
		}
	}
}

func TestPKCS7RejectsCorruptPadding(t *testing.T) {
	padded := pkcs7Pad([]byte("attack at dawn"), 16)
	padded[len(padded)-1] = 0xFF
	if _, err := pkcs7Unpad(padded, 16); !errors.Is(err, models.ErrAESPadding) {
		t.Errorf("expected ErrAESPadding, got %v", err)
	}
}

func TestQIMRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, alpha := range []float64{0.01, 0.05, 0.1, 0.5} {
		cD := make([]float64, 2048)
		for i := range cD {
			cD[i] = (rng.Float64() - 0.5) * 2
		}
		bits := make([]int, 1500)
		for i := range bits {
			bits[i] = rng.Intn(2)
		}

		modified := make([]float64, len(cD))
		copy(modified, cD)
		if err := qimEmbed(modified, bits, alpha); err != nil {
			t.Fatalf("alpha=%g: %v", alpha, err)
		}

		got := qimExtract(modified, len(bits), alpha)
		for i := range bits {
			if got[i] != bits[i] {
				t.Fatalf("alpha=%g: bit %d flipped", alpha, i)
			}
		}

		// coefficients past the bit stream stay untouched
		for i := len(bits); i < len(cD); i++ {
			if modified[i] != cD[i] {
				t.Fatalf("alpha=%g: coefficient %d changed without a bit", alpha, i)
			}
		}
	}
}

func TestQIMSignPreserved(t *testing.T) {
	cD := []float64{-0.73, 0.21, -0.05, 0.4}
	bits := []int{1, 0, 1, 0}
	if err := qimEmbed(cD, bits, 0.1); err != nil {
		t.Fatal(err)
	}
	if cD[0] > 0 || cD[2] > 0 {
		t.Errorf("negative coefficients flipped sign: %v", cD)
	}
	if cD[1] < 0 || cD[3] < 0 {
		t.Errorf("positive coefficients flipped sign: %v", cD)
	}
}

func TestQIMDecisionWindowInclusive(t *testing.T) {
	alpha := 0.1
	// residues exactly at the window bounds decode as '1'
	cD := []float64{0.4 * alpha, 1.6 * alpha, 0.39 * alpha, 1.61 * alpha}
	got := qimExtract(cD, len(cD), alpha)
	want := []int{1, 1, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("residue %g: got bit %d, want %d", cD[i], got[i], want[i])
		}
	}
}

func TestQIMCapacityExceeded(t *testing.T) {
	cD := make([]float64, 10)
	bits := make([]int, 11)
	if err := qimEmbed(cD, bits, 0.1); !errors.Is(err, models.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestWaveletRoundTrip(t *testing.T) {
	w := NewWaveletService()
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{4, 64, 101, 1024, 44100} {
		x := make([]float64, n)
		for i := range x {
			x[i] = (rng.Float64() - 0.5) * 2
		}
		cA, cD := w.Forward(x)
		wantHalf := (n + 1) / 2
		if len(cA) != wantHalf || len(cD) != wantHalf {
			t.Fatalf("n=%d: coefficient lengths %d/%d, want %d", n, len(cA), len(cD), wantHalf)
		}

		y := w.Inverse(cA, cD, n)
		if len(y) != n {
			t.Fatalf("n=%d: reconstructed length %d", n, len(y))
		}
		for i := range x {
			if math.Abs(x[i]-y[i]) > 1e-9 {
				t.Fatalf("n=%d: sample %d off by %g", n, i, math.Abs(x[i]-y[i]))
			}
		}
	}
}

// The property QIM depends on: coefficients modified before the
// inverse transform come back unchanged from a fresh forward pass.
func TestWaveletPreservesModifiedCoefficients(t *testing.T) {
	w := NewWaveletService()
	rng := rand.New(rand.NewSource(11))
	x := make([]float64, 4096)
	for i := range x {
		x[i] = (rng.Float64() - 0.5) * 2
	}

	cA, cD := w.Forward(x)
	for i := range cD {
		cD[i] += (rng.Float64() - 0.5) * 0.2
	}
	y := w.Inverse(cA, cD, len(x))
	_, cD2 := w.Forward(y)

	if len(cD2) != len(cD) {
		t.Fatalf("coefficient count changed: %d vs %d", len(cD2), len(cD))
	}
	for i := range cD {
		if math.Abs(cD2[i]-cD[i]) > 1e-9 {
			t.Fatalf("coefficient %d drifted by %g", i, math.Abs(cD2[i]-cD[i]))
		}
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	crypto := NewCryptographyService()
	keys, err := crypto.GenerateKeyMaterial()
	if err != nil {
		t.Fatal(err)
	}

	for _, message := range []string{"HALO DUNIA", "pesan rahasia dengan tanda ☺ dan é"} {
		sealed, err := crypto.Seal(message, keys)
		if err != nil {
			t.Fatalf("Seal(%q): %v", message, err)
		}
		if sealed.Header.MessageLength != len([]rune(message)) {
			t.Errorf("header message_length = %d, want %d", sealed.Header.MessageLength, len([]rune(message)))
		}

		got, err := crypto.Open(sealed.Header, sealed.PayloadJSON, keys)
		if err != nil {
			t.Fatalf("Open(%q): %v", message, err)
		}
		if got != message {
			t.Errorf("round trip: got %q, want %q", got, message)
		}
	}
}

func TestEnvelopeWrongRSAKey(t *testing.T) {
	crypto := NewCryptographyService()
	keys, err := crypto.GenerateKeyMaterial()
	if err != nil {
		t.Fatal(err)
	}
	otherKeys, err := crypto.GenerateKeyMaterial()
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := crypto.Seal("secret", keys)
	if err != nil {
		t.Fatal(err)
	}

	wrong := &models.KeyMaterial{
		RSAPrivateKeyPEM: otherKeys.RSAPrivateKeyPEM,
		ECCPrivateKeyPEM: otherKeys.ECCPrivateKeyPEM,
	}
	if _, err := crypto.Open(sealed.Header, sealed.PayloadJSON, wrong); !errors.Is(err, models.ErrRSADecrypt) {
		t.Errorf("expected ErrRSADecrypt, got %v", err)
	}
}

func TestEnvelopeMissingKeys(t *testing.T) {
	crypto := NewCryptographyService()
	keys, err := crypto.GenerateKeyMaterial()
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := crypto.Seal("secret", keys)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := crypto.Open(sealed.Header, sealed.PayloadJSON, &models.KeyMaterial{}); !errors.Is(err, models.ErrMissingKeyMaterial) {
		t.Errorf("expected ErrMissingKeyMaterial, got %v", err)
	}
}

func TestParseContainer(t *testing.T) {
	t.Run("frames round trip", func(t *testing.T) {
		header := `{"message_length":10}`
		payload := `"QUJDRA=="`
		bits := buildContainerBits(header, payload)
		if len(bits) != 32+8*len(header)+8*len(payload) {
			t.Fatalf("unexpected container length %d", len(bits))
		}

		gotHeader, gotPayload, err := parseContainer(bits)
		if err != nil {
			t.Fatal(err)
		}
		if gotHeader != header || gotPayload != payload {
			t.Errorf("got %q / %q", gotHeader, gotPayload)
		}
	})

	t.Run("under 32 bits", func(t *testing.T) {
		if _, _, err := parseContainer(make([]int, 16)); !errors.Is(err, models.ErrLengthUnderflow) {
			t.Errorf("expected ErrLengthUnderflow, got %v", err)
		}
	})

	t.Run("header longer than stream", func(t *testing.T) {
		bits := uint32ToBits(4096)
		bits = append(bits, make([]int, 64)...)
		if _, _, err := parseContainer(bits); !errors.Is(err, models.ErrLengthUnderflow) {
			t.Errorf("expected ErrLengthUnderflow, got %v", err)
		}
	})
}

func TestParseHeaderRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"not json":        "garbage",
		"missing rsa_key": `{"ecc_public_key":"a","rsa_public_key":"b","message_length":1}`,
		"empty object":    `{}`,
	}
	for name, headerJSON := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseHeader(headerJSON); !errors.Is(err, models.ErrHeaderParse) {
				t.Errorf("expected ErrHeaderParse, got %v", err)
			}
		})
	}
}
