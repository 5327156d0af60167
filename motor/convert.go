package motor

// FloatToUint quantizes x into an unsigned bits-wide field spanning
// [min, max]. x saturates at the bounds. The final conversion
// truncates toward zero; the golden byte vectors depend on that, so
// never swap in a rounding conversion. Unsupported widths return 0.
func FloatToUint(x, min, max float64, bits uint) uint16 {
	if x < min {
		x = min
	} else if x > max {
		x = max
	}
	span := max - min
	switch bits {
	case 12:
		return uint16((x - min) * 4095.0 / span)
	case 16:
		return uint16((x - min) * 65535.0 / span)
	}
	return 0
}

// UintToFloat maps a raw field back into [min, max]. Inverse of
// FloatToUint up to one quantization step.
func UintToFloat(raw uint16, min, max float64, bits uint) float64 {
	span := max - min
	switch bits {
	case 12:
		return float64(raw)*span/4095.0 + min
	case 16:
		return float64(raw)*span/65535.0 + min
	}
	return 0
}
