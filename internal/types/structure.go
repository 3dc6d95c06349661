package types

// StructureEventKind identifies a detected market-structure pattern.
type StructureEventKind string

const (
	// StructureImbalance is a three-bar fair value gap.
	StructureImbalance StructureEventKind = "imbalance"
	// StructureOrderBlock is the last opposing candle before a strong move.
	StructureOrderBlock StructureEventKind = "order_block"
	// StructureLiquiditySweep is a brief breach of a recent extreme followed
	// by a close back inside the prior range.
	StructureLiquiditySweep StructureEventKind = "liquidity_sweep"
)

// StructureEvent is a detected structural feature. Read-only once emitted;
// strategy evaluators reference events but never own or mutate them.
type StructureEvent struct {
	Kind      StructureEventKind
	Direction Direction
	// PriceLow and PriceHigh bound the zone the event describes.
	PriceLow  float64
	PriceHigh float64
	// BarIndex is the index into the analyzed series where the event
	// completed.
	BarIndex int
}

// Width returns the price width of the event's zone.
func (e StructureEvent) Width() float64 {
	return e.PriceHigh - e.PriceLow
}

// Contains reports whether price falls inside the event's zone.
func (e StructureEvent) Contains(price float64) bool {
	return price >= e.PriceLow && price <= e.PriceHigh
}
