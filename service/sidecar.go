package service

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/aryaprtm/audio-steganography-dwt/models"
)

// writeSidecar persists the .info JSON document required for
// extraction. The stego WAV is already on disk when this runs; a
// failure here is downgraded to a warning by the caller.
func writeSidecar(path string, info *models.SidecarInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return errors.Wrapf(models.ErrIOWriteFailed, "%s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(models.ErrIOWriteFailed, "%s: %v", path, err)
	}
	return nil
}

// loadSidecar reads a .info document. A missing file surfaces as
// os.ErrNotExist so the caller can fall back to explicit parameters;
// an unreadable or malformed file is an error in its own right.
func loadSidecar(path string) (*models.SidecarInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrapf(models.ErrIOReadFailed, "%s: %v", path, err)
	}
	var info models.SidecarInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.Wrapf(models.ErrHeaderParse, "sidecar %s: %v", path, err)
	}
	if info.BitsLength <= 0 {
		return nil, errors.Wrapf(models.ErrHeaderParse, "sidecar %s: missing bits_length", path)
	}
	if info.Alpha == 0 {
		info.Alpha = models.DefaultAlpha
	}
	return &info, nil
}

// writeKeyFile emits the human-readable .key companion with both
// keypairs. Informational only; extraction uses the .info sidecar.
func writeKeyFile(path string, keys *models.KeyMaterial) error {
	var b strings.Builder
	b.WriteString("===== KUNCI ECC =====\n\n")
	fmt.Fprintf(&b, "PUBLIC KEY ECC:\n%s\n", keys.ECCPublicKeyPEM)
	fmt.Fprintf(&b, "PRIVATE KEY ECC:\n%s\n", keys.ECCPrivateKeyPEM)
	b.WriteString("===== KUNCI RSA =====\n\n")
	fmt.Fprintf(&b, "PUBLIC KEY RSA:\n%s\n", keys.RSAPublicKeyPEM)
	fmt.Fprintf(&b, "PRIVATE KEY RSA:\n%s\n", keys.RSAPrivateKeyPEM)

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return errors.Wrapf(models.ErrIOWriteFailed, "%s: %v", path, err)
	}
	return nil
}
