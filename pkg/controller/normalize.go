package controller

// AxisRange is the raw value range reported by a device for its axes.
type AxisRange struct {
	Min float64
	Max float64
}

// Span returns Max-Min.
func (r AxisRange) Span() float64 { return r.Max - r.Min }

// StickAxis maps a raw stick value linearly from r to [-1,1], clamped and
// rounded to 3 decimals. A degenerate range yields 0.
func StickAxis(raw float64, r AxisRange) float64 {
	span := r.Span()
	if span <= 0 {
		return 0
	}
	v := 2*(raw-r.Min)/span - 1
	return Round3(Clamp(v, -1, 1))
}

// TriggerAxis maps a raw trigger value from the full device range r to
// [0,1] with the affine remap (raw-min)/(max-min): a trigger at rest sits at
// r.Min and reads 0. A degenerate range yields 0.
func TriggerAxis(raw float64, r AxisRange) float64 {
	span := r.Span()
	if span <= 0 {
		return 0
	}
	return Round3(Clamp((raw-r.Min)/span, 0, 1))
}

// SetDPad decomposes a two-axis hat into the four dpad buttons.
// x < 0 is left, x > 0 is right, y < 0 is up, y > 0 is down.
func (bs *Buttons) SetDPad(x, y int) {
	bs.Set(ButtonDPadLeft, x < 0)
	bs.Set(ButtonDPadRight, x > 0)
	bs.Set(ButtonDPadUp, y < 0)
	bs.Set(ButtonDPadDown, y > 0)
}
