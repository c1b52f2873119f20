package types

// GRB is one LED's live colour. Field order matches the WS281x wire order
// and must not be rearranged.
type GRB struct {
	G, R, B uint8
}

// RGB builds a GRB from host (red, green, blue) order.
func RGB(r, g, b uint8) GRB { return GRB{G: g, R: r, B: b} }

// Bytes returns the colour in wire order.
func (c GRB) Bytes() [3]byte { return [3]byte{c.G, c.R, c.B} }
