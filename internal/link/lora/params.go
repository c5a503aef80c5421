// Package lora adapts an SX127x-class LoRa modem to link.Transport.
package lora

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Bandwidths lists the signal bandwidths (Hz) the modem supports.
var Bandwidths = []uint32{7800, 10400, 15600, 20800, 31250, 41700, 62500, 125000, 250000, 500000}

const (
	MinFrequency = 137_000_000
	MaxFrequency = 1_020_000_000
	MinTxPower   = 2
	MaxTxPower   = 20
)

// Params are the modem settings both ends of a link must agree on.
type Params struct {
	Frequency       uint32        `yaml:"frequency"`
	SpreadingFactor int           `yaml:"spreading_factor"`
	Bandwidth       uint32        `yaml:"bandwidth"`
	CodingRate      int           `yaml:"coding_rate"` // denominator of 4/x
	TxPower         int           `yaml:"tx_power"`
	SyncWord        uint8         `yaml:"sync_word"`
	PreambleLength  int           `yaml:"preamble_length"`
	EnableCRC       bool          `yaml:"enable_crc"`
	ImplicitHeader  bool          `yaml:"implicit_header"`
	MaxAirtime      time.Duration `yaml:"max_airtime"` // 0 disables the airtime cap
}

// DefaultParams returns the 433 MHz settings used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Frequency:       433_000_000,
		SpreadingFactor: 9,
		Bandwidth:       125_000,
		CodingRate:      7,
		TxPower:         14,
		SyncWord:        0x12,
		PreambleLength:  8,
		EnableCRC:       true,
	}
}

// Validate reports every out-of-range setting.
func (p Params) Validate() error {
	var errs []error
	if p.Frequency < MinFrequency || p.Frequency > MaxFrequency {
		errs = append(errs, fmt.Errorf("frequency %d Hz outside %d..%d", p.Frequency, MinFrequency, MaxFrequency))
	}
	if p.SpreadingFactor < 6 || p.SpreadingFactor > 12 {
		errs = append(errs, fmt.Errorf("spreading factor %d outside 6..12", p.SpreadingFactor))
	}
	if p.SpreadingFactor == 6 && !p.ImplicitHeader {
		errs = append(errs, errors.New("spreading factor 6 requires implicit header mode"))
	}
	if !slices.Contains(Bandwidths, p.Bandwidth) {
		errs = append(errs, fmt.Errorf("unsupported bandwidth %d Hz", p.Bandwidth))
	}
	if p.CodingRate < 5 || p.CodingRate > 8 {
		errs = append(errs, fmt.Errorf("coding rate 4/%d outside 4/5..4/8", p.CodingRate))
	}
	if p.TxPower < MinTxPower || p.TxPower > MaxTxPower {
		errs = append(errs, fmt.Errorf("tx power %d dBm outside %d..%d", p.TxPower, MinTxPower, MaxTxPower))
	}
	if p.PreambleLength < 1 {
		errs = append(errs, fmt.Errorf("preamble length %d must be positive", p.PreambleLength))
	}
	if p.MaxAirtime < 0 {
		errs = append(errs, fmt.Errorf("max airtime %s is negative", p.MaxAirtime))
	}
	return errors.Join(errs...)
}

// Summary is a one-line description for the startup log.
func (p Params) Summary() string {
	return fmt.Sprintf("%.3f MHz SF%d BW %.1f kHz CR 4/%d %d dBm sync 0x%02x",
		float64(p.Frequency)/1e6, p.SpreadingFactor, float64(p.Bandwidth)/1e3,
		p.CodingRate, p.TxPower, p.SyncWord)
}
