// Package compress implements the golden-ratio delta codec for tile payloads.
//
// The codec delta-encodes a payload and quantizes the deltas with a step
// size that grows by the golden ratio at each refinement step, so every
// extra step scales the retained-detail ratio by 1/phi. Step selection is
// greedy: steps are added while the predicted fidelity loss of the next
// step stays under the configured ceiling, and at least MinSteps steps are
// always applied.
//
// Compression is deterministic for identical input and configuration, and
// the codec is stateless: methods take value receivers and share nothing,
// so independent tiles can be compressed concurrently.
package compress

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Phi is the golden ratio, the quantization growth factor.
const Phi = 1.6180339887498948

// maxSteps caps refinement: beyond this the quantizer step exceeds the
// whole delta range and every payload collapses to zeros.
const maxSteps = 12

// costDivisor converts bytes-times-steps into abstract resource units.
// One unit is one refinement step over a 64KiB payload.
const costDivisor = 65536.0

// Codec configures the compressor. The zero value is not valid; MaxLoss
// must be in [0, 1] and MinSteps at least 1.
type Codec struct {
	// MaxLoss is the fidelity-loss ceiling in [0, 1]. A step whose
	// predicted loss would exceed this is never applied.
	MaxLoss float64

	// MinSteps is the refinement step floor. Compress fails when even
	// this many steps cannot satisfy MaxLoss.
	MinSteps int
}

// Result is the outcome of one compression.
type Result struct {
	// Data is the encoded payload, including the codec header.
	Data []byte

	// Steps is the number of golden-ratio refinement steps applied.
	Steps int

	// Loss is the measured fidelity loss in [0, 1]: mean absolute
	// reconstruction error of the deltas, normalized to the byte range.
	Loss float64

	// Cost is the measured resource consumption in abstract units,
	// proportional to payload size times refinement steps.
	Cost float64
}

// Header layout, little endian:
//
//	[0] magic 'G'
//	[1] magic 'R'
//	[2] version
//	[3] steps
//	[4] sample width in bytes (1 or 2)
//	[5:9] original payload length
const (
	headerSize   = 9
	magic0       = 'G'
	magic1       = 'R'
	codecVersion = 1
)

// PredictedLoss returns the modeled fidelity loss of quantizing with the
// given step count: half the quantizer step, normalized to the byte range.
func PredictedLoss(steps int) float64 {
	return math.Pow(Phi, float64(steps)) / (2 * 255)
}

// Steps returns the refinement step count the codec will apply, or an
// error when no step count satisfies the ceiling.
func (c Codec) steps() (int, error) {
	if c.MinSteps < 1 {
		return 0, fmt.Errorf("%w: MinSteps %d", ErrInvalidConfig, c.MinSteps)
	}
	if c.MaxLoss < 0 || c.MaxLoss > 1 {
		return 0, fmt.Errorf("%w: MaxLoss %v", ErrInvalidConfig, c.MaxLoss)
	}
	if PredictedLoss(c.MinSteps) > c.MaxLoss {
		return 0, ErrFidelityBudget
	}
	steps := c.MinSteps
	for steps < maxSteps && PredictedLoss(steps+1) <= c.MaxLoss {
		steps++
	}
	return steps, nil
}

// Compress delta-encodes payload and quantizes it under the codec's
// fidelity ceiling.
//
// Returns ErrFidelityBudget when no refinement level satisfies MaxLoss;
// the caller decides whether to skip the tile or pass it through
// uncompressed (that policy does not live here). Returns ErrEmptyPayload
// for a zero-length payload.
func (c Codec) Compress(payload []byte) (Result, error) {
	steps, err := c.steps()
	if err != nil {
		return Result{}, err
	}
	if len(payload) == 0 {
		return Result{}, ErrEmptyPayload
	}

	div := math.Pow(Phi, float64(steps))

	// Delta encode, quantize, and measure reconstruction error in one
	// pass. Deltas live in [-255, 255] before quantization.
	quantized := make([]int16, len(payload))
	var (
		maxAbs   int16
		totalErr float64
		prev     int16
	)
	for i, b := range payload {
		delta := int16(b) - prev
		prev = int16(b)

		q := int16(math.Round(float64(delta) / div))
		quantized[i] = q
		if q < 0 {
			if -q > maxAbs {
				maxAbs = -q
			}
		} else if q > maxAbs {
			maxAbs = q
		}

		recon := math.Round(float64(q) * div)
		totalErr += math.Abs(float64(delta) - recon)
	}

	sampleWidth := 2
	if maxAbs <= math.MaxInt8 {
		sampleWidth = 1
	}

	data := make([]byte, headerSize+len(quantized)*sampleWidth)
	data[0] = magic0
	data[1] = magic1
	data[2] = codecVersion
	data[3] = byte(steps)
	data[4] = byte(sampleWidth)
	binary.LittleEndian.PutUint32(data[5:9], uint32(len(payload)))

	if sampleWidth == 1 {
		for i, q := range quantized {
			data[headerSize+i] = byte(int8(q))
		}
	} else {
		for i, q := range quantized {
			binary.LittleEndian.PutUint16(data[headerSize+i*2:], uint16(q))
		}
	}

	return Result{
		Data:  data,
		Steps: steps,
		Loss:  totalErr / (255 * float64(len(payload))),
		Cost:  Cost(len(payload), steps),
	}, nil
}

// Decompress inverts Compress, reconstructing the payload from its
// quantized deltas. Reconstruction is lossy by the measured Loss of the
// matching Compress call.
// Encoded reports whether data carries a codec header of the current
// version. Raw payloads that were passed through uncompressed do not.
func Encoded(data []byte) bool {
	return len(data) >= headerSize &&
		data[0] == magic0 && data[1] == magic1 && data[2] == codecVersion
}

func Decompress(data []byte) ([]byte, error) {
	if len(data) < headerSize || data[0] != magic0 || data[1] != magic1 {
		return nil, ErrCorruptPayload
	}
	if data[2] != codecVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorruptPayload, data[2])
	}

	steps := int(data[3])
	sampleWidth := int(data[4])
	origLen := int(binary.LittleEndian.Uint32(data[5:9]))

	if steps < 1 || steps > maxSteps || (sampleWidth != 1 && sampleWidth != 2) {
		return nil, ErrCorruptPayload
	}
	if len(data) != headerSize+origLen*sampleWidth {
		return nil, ErrCorruptPayload
	}

	div := math.Pow(Phi, float64(steps))
	out := make([]byte, origLen)
	var acc float64
	for i := 0; i < origLen; i++ {
		var q int16
		if sampleWidth == 1 {
			q = int16(int8(data[headerSize+i]))
		} else {
			q = int16(binary.LittleEndian.Uint16(data[headerSize+i*2:]))
		}
		acc += math.Round(float64(q) * div)

		// Clamp the running reconstruction to the byte range.
		v := acc
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Cost returns the resource units consumed by compressing size bytes with
// the given step count. Exposed so the scheduler can price a pass-through
// fallback consistently with a real compression.
func Cost(size, steps int) float64 {
	return float64(size) * float64(steps) / costDivisor
}
