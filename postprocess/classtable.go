package postprocess

// ClassRule holds the per class filtering thresholds applied during decoding
// and Non-Maximum Suppression
type ClassRule struct {
	// Confidence is the minimum class score required for a prediction to
	// become a candidate
	Confidence float32
	// MinAreaRatio is the exclusive lower bound of box area over frame area
	MinAreaRatio float32
	// MaxAreaRatio is the exclusive upper bound of box area over frame area
	MaxAreaRatio float32
	// NMSThreshold is the IoU above which a lower scoring box of the same
	// class is suppressed
	NMSThreshold float32
}

// ClassTable maps a class ID to its ClassRule.  Classes without an entry
// use the Default rule
type ClassTable struct {
	Default ClassRule
	Rules   map[int]ClassRule
}

// NewClassTable returns an empty table that resolves every class to def
func NewClassTable(def ClassRule) ClassTable {
	return ClassTable{
		Default: def,
		Rules:   make(map[int]ClassRule),
	}
}

// Lookup returns the rule for the given class ID
func (c ClassTable) Lookup(classID int) ClassRule {
	if r, ok := c.Rules[classID]; ok {
		return r
	}
	return c.Default
}

// Set assigns the rule for a class ID
func (c *ClassTable) Set(classID int, rule ClassRule) {
	if c.Rules == nil {
		c.Rules = make(map[int]ClassRule)
	}
	c.Rules[classID] = rule
}

// Clone returns a deep copy of the table
func (c ClassTable) Clone() ClassTable {
	out := NewClassTable(c.Default)
	for id, r := range c.Rules {
		out.Rules[id] = r
	}
	return out
}
