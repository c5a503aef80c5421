package lora

import (
	"math"
	"time"

	"github.com/1ureka/rlink/internal/link"
	"github.com/1ureka/rlink/internal/protocol"
)

// FIFOSize is the modem's packet buffer.
const FIFOSize = 255

// SymbolTime is the duration of one chirp: 2^SF / BW.
func SymbolTime(p Params) time.Duration {
	if p.Bandwidth == 0 {
		return 0
	}
	sec := math.Exp2(float64(p.SpreadingFactor)) / float64(p.Bandwidth)
	return time.Duration(sec * float64(time.Second))
}

// TimeOnAir returns how long a packet of n bytes occupies the channel,
// following the SX1276 datasheet formula. Low data rate optimisation is
// assumed whenever the symbol time exceeds 16 ms, as the modem requires.
func TimeOnAir(p Params, n int) time.Duration {
	if p.Bandwidth == 0 || p.SpreadingFactor == 0 {
		return 0
	}
	sf := float64(p.SpreadingFactor)
	tsym := math.Exp2(sf) / float64(p.Bandwidth)

	de, ih, crc := 0.0, 0.0, 0.0
	if tsym > 0.016 {
		de = 1
	}
	if p.ImplicitHeader {
		ih = 1
	}
	if p.EnableCRC {
		crc = 1
	}

	preamble := (float64(p.PreambleLength) + 4.25) * tsym
	num := 8*float64(n) - 4*sf + 28 + 16*crc - 20*ih
	den := 4 * (sf - 2*de)
	payloadSymbols := 8 + math.Max(math.Ceil(num/den)*float64(p.CodingRate), 0)

	total := preamble + payloadSymbols*tsym
	return time.Duration(total * float64(time.Second))
}

// MaxFrame returns the largest packet (link header included) the modem may
// send: the FIFO size, reduced until the airtime fits MaxAirtime when one is
// configured. Zero means no packet fits the budget.
func MaxFrame(p Params) int {
	if p.MaxAirtime <= 0 {
		return FIFOSize
	}
	for n := FIFOSize; n > 0; n-- {
		if TimeOnAir(p, n) <= p.MaxAirtime {
			return n
		}
	}
	return 0
}

// RoundTrip is the airtime of the longest frame under p plus its ACK.
func RoundTrip(p Params) time.Duration {
	ack := link.HeaderSize + protocol.HeaderSize
	return TimeOnAir(p, MaxFrame(p)) + TimeOnAir(p, ack)
}
