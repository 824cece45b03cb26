package models

// EmbedRequest carries one embed call's parameters. InputPath may name
// a file that does not exist; unless the fallback is disabled the
// service then synthesises a sample carrier in its place.
type EmbedRequest struct {
	InputPath        string
	OutputPath       string
	Message          string
	Alpha            float64
	DisableSynthesis bool
}

// EmbedResult reports where the stego carrier and its companions were
// written, plus diagnostics on the embedding.
type EmbedResult struct {
	OutputPath   string  `json:"output_path"`
	SidecarPath  string  `json:"sidecar_path,omitempty"`
	KeyFilePath  string  `json:"key_file_path,omitempty"`
	BitsLength   int     `json:"bits_length"`
	CapacityBits int     `json:"capacity_bits"`
	Alpha        float64 `json:"alpha"`
	SNR          float64 `json:"snr_db"`
	SidecarError string  `json:"sidecar_error,omitempty"`
}

// CapacityResult reports the embedding capacity of a carrier: the
// number of detail coefficients of its host channel, i.e. the maximum
// container bit length.
type CapacityResult struct {
	CapacityBits  int `json:"capacity_bits"`
	CapacityBytes int `json:"capacity_bytes"`
	HostSamples   int `json:"host_samples"`
	SampleRate    int `json:"sample_rate"`
	Channels      int `json:"channels"`
}
