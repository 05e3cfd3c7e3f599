package postprocess

// COCOLabels are the 80 object classes of the COCO dataset in model output
// order
var COCOLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train",
	"truck", "boat", "traffic light", "fire hydrant", "stop sign",
	"parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag",
	"tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite",
	"baseball bat", "baseball glove", "skateboard", "surfboard",
	"tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot",
	"hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant",
	"bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote",
	"keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear",
	"hair drier", "toothbrush",
}

// COCODefaultRule is the rule applied to COCO classes without an override:
// - Confidence: 0.25
// - Area Ratio: (0.0005, 0.95)
// - NMS Threshold: 0.4
var COCODefaultRule = ClassRule{
	Confidence:   0.25,
	MinAreaRatio: 0.0005,
	MaxAreaRatio: 0.95,
	NMSThreshold: 0.4,
}

// COCOClassTable returns the class rule table tuned for an indoor camera
// running a COCO trained model.  Persons get a high confidence, strict size
// window and aggressive NMS.  Furniture and electronics get lower confidence
// and looser NMS as several similar items are often seen together, with small
// electronics allowed to be very small in frame.
func COCOClassTable() ClassTable {

	rule := func(conf, minArea, maxArea, nms float32) ClassRule {
		return ClassRule{
			Confidence:   conf,
			MinAreaRatio: minArea,
			MaxAreaRatio: maxArea,
			NMSThreshold: nms,
		}
	}

	d := COCODefaultRule

	t := NewClassTable(d)
	t.Rules = map[int]ClassRule{
		0: rule(0.5, 0.01, 0.8, 0.3), // person

		// vehicles
		1: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		2: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		3: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		4: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		5: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		6: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		7: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		8: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		9: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),

		// animals
		14: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		15: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		16: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		17: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		18: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		19: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		20: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		21: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		22: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		23: rule(0.3, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),

		// furniture
		56: rule(0.2, 0.005, 0.9, 0.5),
		57: rule(0.2, 0.005, 0.9, 0.5),
		58: rule(d.Confidence, d.MinAreaRatio, d.MaxAreaRatio, 0.5),
		59: rule(0.25, 0.005, 0.9, 0.5),
		60: rule(0.25, d.MinAreaRatio, d.MaxAreaRatio, 0.5),

		// electronics
		61: rule(0.2, d.MinAreaRatio, d.MaxAreaRatio, 0.6),
		62: rule(0.2, d.MinAreaRatio, d.MaxAreaRatio, 0.6),
		63: rule(0.2, d.MinAreaRatio, d.MaxAreaRatio, 0.6),
		64: rule(0.25, 0.0001, d.MaxAreaRatio, 0.6),
		65: rule(0.25, d.MinAreaRatio, d.MaxAreaRatio, 0.6),
		66: rule(0.2, 0.0001, d.MaxAreaRatio, 0.6),
		67: rule(0.25, 0.0001, d.MaxAreaRatio, 0.6),

		73: rule(0.2, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
		74: rule(0.2, d.MinAreaRatio, d.MaxAreaRatio, d.NMSThreshold),
	}

	return t
}
