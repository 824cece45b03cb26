package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aryaprtm/audio-steganography-dwt/models"
	"github.com/aryaprtm/audio-steganography-dwt/service"
)

// Handlers holds the service dependencies behind the HTTP surface.
type Handlers struct {
	stego   service.SteganographyService
	workdir string
}

// NewHandlers creates a handlers instance. workdir is where uploaded
// carriers and produced stego files are staged; empty means the system
// temp directory.
func NewHandlers(stego service.SteganographyService, workdir string) *Handlers {
	if workdir == "" {
		workdir = os.TempDir()
	}
	return &Handlers{stego: stego, workdir: workdir}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// EmbedResponse carries the stego WAV plus everything the client needs
// to extract later. The sidecar object must be kept by the caller: it
// holds the private keys.
type EmbedResponse struct {
	StegoAudio string              `json:"stego_audio"`
	Result     *models.EmbedResult `json:"result"`
	Sidecar    *models.SidecarInfo `json:"sidecar,omitempty"`
	KeyFile    string              `json:"key_file,omitempty"`
}

// HealthHandler handles the health check endpoint
//
//	@Summary		Health Check
//	@Description	Returns the health status of the API service
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"Service is healthy"
//	@Router			/health [get]
func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
	})
}

// CapacityHandler handles the capacity calculation request
//
//	@Summary		Calculate carrier embedding capacity
//	@Description	Reports how many container bits the uploaded WAV carrier can hold: the number of one-level db2 detail coefficients of its first channel.
//	@Tags			Steganography
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			audio	formData	file	true	"PCM WAV carrier"
//	@Success		200		{object}	models.CapacityResult	"Embedding capacity"
//	@Failure		400		{object}	models.ErrorResponse	"No file or not a PCM WAV"
//	@Failure		500		{object}	models.ErrorResponse	"Processing failure"
//	@Router			/capacity [post]
func (h *Handlers) CapacityHandler(c *gin.Context) {
	start := time.Now()
	dir, wavPath, ok := h.stageUpload(c, "audio")
	if !ok {
		return
	}
	defer os.RemoveAll(dir)

	capacity, err := h.stego.Capacity(wavPath)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.Header("X-Processing-Time", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
	c.JSON(http.StatusOK, capacity)
}

// EmbedHandler hides a message inside an uploaded WAV carrier
//
//	@Summary		Embed an encrypted message into audio
//	@Description	Encrypts the message with the layered hybrid envelope (AES session keys, RSA-OAEP key wrap, declarative ECC keypair), frames the container and hides it in the DWT detail coefficients of the first channel. Returns the stego WAV (base64) plus the sidecar needed for extraction.
//	@Tags			Steganography
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			audio	formData	file	true	"PCM WAV carrier"
//	@Param			message	formData	string	true	"Message to hide"
//	@Param			alpha	formData	number	false	"Embedding strength (default 0.1)"
//	@Success		200		{object}	EmbedResponse			"Stego audio and sidecar"
//	@Failure		400		{object}	models.ErrorResponse	"Invalid input or capacity exceeded"
//	@Failure		500		{object}	models.ErrorResponse	"Processing failure"
//	@Router			/embed [post]
func (h *Handlers) EmbedHandler(c *gin.Context) {
	start := time.Now()

	message := c.PostForm("message")
	if message == "" {
		sendError(c, http.StatusBadRequest, "EMPTY_MESSAGE", "Message must not be empty")
		return
	}
	alpha, ok := parseAlpha(c)
	if !ok {
		return
	}

	dir, wavPath, ok := h.stageUpload(c, "audio")
	if !ok {
		return
	}
	defer os.RemoveAll(dir)

	outPath := filepath.Join(dir, "stego.wav")
	result, err := h.stego.Embed(&models.EmbedRequest{
		InputPath:        wavPath,
		OutputPath:       outPath,
		Message:          message,
		Alpha:            alpha,
		DisableSynthesis: true,
	})
	if err != nil {
		sendServiceError(c, err)
		return
	}

	stegoData, err := os.ReadFile(result.OutputPath)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "IO_READ_FAILED", "Failed to read produced stego file")
		return
	}

	resp := EmbedResponse{
		StegoAudio: base64.StdEncoding.EncodeToString(stegoData),
		Result:     result,
	}
	if result.SidecarPath != "" {
		if data, err := os.ReadFile(result.SidecarPath); err == nil {
			var info models.SidecarInfo
			if json.Unmarshal(data, &info) == nil {
				resp.Sidecar = &info
			}
		}
	}
	if result.KeyFilePath != "" {
		if data, err := os.ReadFile(result.KeyFilePath); err == nil {
			resp.KeyFile = string(data)
		}
	}

	processing := time.Since(start).Milliseconds()
	c.Header("X-SNR-Value", fmt.Sprintf("%.2f", result.SNR))
	c.Header("X-Bits-Length", strconv.Itoa(result.BitsLength))
	c.Header("X-Capacity-Bits", strconv.Itoa(result.CapacityBits))
	c.Header("X-Processing-Time", strconv.FormatInt(processing, 10))
	c.JSON(http.StatusOK, resp)
}

// ExtractHandler recovers the hidden message from a stego WAV
//
//	@Summary		Extract a hidden message from audio
//	@Description	Extracts the container bit stream from the uploaded stego WAV and runs the decrypt path. Either upload the sidecar .info document produced by embed, or supply bits_length and alpha (extraction then fails at the decrypt stage without private keys).
//	@Tags			Steganography
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			stego_audio	formData	file	true	"Stego WAV produced by embed"
//	@Param			info		formData	file	false	"Sidecar .info JSON document"
//	@Param			bits_length	formData	int		false	"Container bit length (when no sidecar)"
//	@Param			alpha		formData	number	false	"Embedding strength (when no sidecar)"
//	@Success		200		{object}	models.ExtractResult	"Recovered message"
//	@Failure		400		{object}	models.ErrorResponse	"Invalid input or corrupted container"
//	@Failure		500		{object}	models.ErrorResponse	"Processing failure"
//	@Router			/extract [post]
func (h *Handlers) ExtractHandler(c *gin.Context) {
	start := time.Now()
	req, dir, ok := h.buildExtractRequest(c)
	if !ok {
		return
	}
	defer os.RemoveAll(dir)

	result, err := h.stego.Extract(req)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.Header("X-Processing-Time", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
	c.JSON(http.StatusOK, result)
}

// InspectHandler describes the container without decrypting it
//
//	@Summary		Inspect a stego container
//	@Description	Parses the length prefix, header and payload boundaries of the embedded container and reports the header's declarative fields without running the decrypt path.
//	@Tags			Steganography
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			stego_audio	formData	file	true	"Stego WAV produced by embed"
//	@Param			info		formData	file	false	"Sidecar .info JSON document"
//	@Param			bits_length	formData	int		false	"Container bit length (when no sidecar)"
//	@Param			alpha		formData	number	false	"Embedding strength (when no sidecar)"
//	@Success		200		{object}	models.ContainerLayout	"Container layout"
//	@Failure		400		{object}	models.ErrorResponse	"Invalid input or corrupted container"
//	@Router			/inspect [post]
func (h *Handlers) InspectHandler(c *gin.Context) {
	req, dir, ok := h.buildExtractRequest(c)
	if !ok {
		return
	}
	defer os.RemoveAll(dir)

	layout, err := h.stego.DescribeContainer(req)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, layout)
}

// ------------------ Helpers ------------------

// stageUpload saves a multipart WAV upload into a fresh staging
// directory. On failure an error response has already been sent.
func (h *Handlers) stageUpload(c *gin.Context, field string) (dir, path string, ok bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		sendError(c, http.StatusBadRequest, "MISSING_FILE", fmt.Sprintf("Form file %q not provided", field))
		return "", "", false
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".wav" {
		sendError(c, http.StatusBadRequest, "INVALID_FORMAT", "Carrier must be a WAV file")
		return "", "", false
	}

	dir, err = os.MkdirTemp(h.workdir, "stego-")
	if err != nil {
		sendError(c, http.StatusInternalServerError, "IO_WRITE_FAILED", "Failed to create staging directory")
		return "", "", false
	}
	path = filepath.Join(dir, "carrier.wav")
	if err := saveUpload(fileHeader, path); err != nil {
		os.RemoveAll(dir)
		sendError(c, http.StatusInternalServerError, "IO_WRITE_FAILED", "Failed to store uploaded file")
		return "", "", false
	}
	return dir, path, true
}

// buildExtractRequest stages the stego upload and resolves the sidecar
// or the explicit bits_length/alpha parameters.
func (h *Handlers) buildExtractRequest(c *gin.Context) (*models.ExtractRequest, string, bool) {
	dir, wavPath, ok := h.stageUpload(c, "stego_audio")
	if !ok {
		return nil, "", false
	}

	req := &models.ExtractRequest{StegoPath: wavPath}

	if infoHeader, err := c.FormFile("info"); err == nil {
		f, err := infoHeader.Open()
		if err != nil {
			os.RemoveAll(dir)
			sendError(c, http.StatusBadRequest, "IO_READ_FAILED", "Failed to open sidecar upload")
			return nil, "", false
		}
		defer f.Close()
		var info models.SidecarInfo
		if err := json.NewDecoder(f).Decode(&info); err != nil {
			os.RemoveAll(dir)
			sendError(c, http.StatusBadRequest, "HEADER_PARSE", "Sidecar upload is not a valid .info document")
			return nil, "", false
		}
		req.Sidecar = &info
	}

	if v := c.PostForm("bits_length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			os.RemoveAll(dir)
			sendError(c, http.StatusBadRequest, "MISSING_BITS_LENGTH", "bits_length must be a positive integer")
			return nil, "", false
		}
		req.BitsLength = n
	}
	if v := c.PostForm("alpha"); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil || a <= 0 {
			os.RemoveAll(dir)
			sendError(c, http.StatusBadRequest, "INVALID_ALPHA", "alpha must be a positive number")
			return nil, "", false
		}
		req.Alpha = a
	}
	return req, dir, true
}

func parseAlpha(c *gin.Context) (float64, bool) {
	v := c.PostForm("alpha")
	if v == "" {
		return 0, true
	}
	a, err := strconv.ParseFloat(v, 64)
	if err != nil || a <= 0 {
		sendError(c, http.StatusBadRequest, "INVALID_ALPHA", "alpha must be a positive number")
		return 0, false
	}
	return a, true
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

// sendServiceError maps a pipeline error to its HTTP status and tag.
func sendServiceError(c *gin.Context, err error) {
	tag := models.ErrorTag(err)
	status := http.StatusInternalServerError
	switch tag {
	case "CAPACITY_EXCEEDED", "LENGTH_UNDERFLOW", "HEADER_PARSE", "PAYLOAD_PARSE",
		"BASE64_DECODE", "INVALID_ALPHA", "EMPTY_MESSAGE", "INVALID_WAV",
		"MISSING_KEY_MATERIAL", "MISSING_BITS_LENGTH":
		status = http.StatusBadRequest
	case "RSA_DECRYPT", "AES_PADDING", "UTF8_DECODE":
		status = http.StatusUnprocessableEntity
	}
	log.Printf("[ERROR] %s: %v", tag, err)
	sendError(c, status, tag, err.Error())
}

// sendError sends a standardized error response.
func sendError(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, models.ErrorResponse{
		Success: false,
		Error: models.ErrorDetail{
			Message: message,
			Details: map[string]interface{}{
				"code": code,
			},
		},
	})
}
