package core

// maxParsingNotes bounds UserDirective.ParsingNotes per the data-model
// invariant "parsing notes bounded".
const maxParsingNotes = 25

// UserDirective is the structured intent extracted from a user's free-text
// request by the directive parser.
type UserDirective struct {
	OriginalText string

	ForceConsensus           bool
	ForceConsensusConfidence float64

	PreventConsensus           bool
	PreventConsensusConfidence float64

	IsEmergency           bool
	IsEmergencyConfidence float64

	AssignToAgent  *AgentId
	AssignedAgents []AgentId

	Notes        string
	ParsingNotes []string
}

// NewUserDirective constructs an empty directive for the given raw text.
func NewUserDirective(originalText string) *UserDirective {
	return &UserDirective{OriginalText: originalText}
}

// AddParsingNote appends a parsing note, silently dropping notes once the
// bound of maxParsingNotes is reached rather than erroring: the bound exists
// to cap memory on adversarial input, not to signal failure.
func (d *UserDirective) AddParsingNote(note string) {
	if len(d.ParsingNotes) >= maxParsingNotes {
		return
	}
	d.ParsingNotes = append(d.ParsingNotes, note)
}

// ClampConfidences clamps all three confidence scores into [0,1].
func (d *UserDirective) ClampConfidences() {
	d.ForceConsensusConfidence = clamp01(d.ForceConsensusConfidence)
	d.PreventConsensusConfidence = clamp01(d.PreventConsensusConfidence)
	d.IsEmergencyConfidence = clamp01(d.IsEmergencyConfidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Validate checks the directive's invariants: parsing notes bounded, and
// force/prevent consensus must not both hold at non-tied confidences unless
// neutral (the parser's tie-resolution step is responsible for clearing one
// of them before this is called on a final directive).
func (d *UserDirective) Validate() error {
	if len(d.ParsingNotes) > maxParsingNotes {
		return ErrValidation("DIRECTIVE_TOO_MANY_PARSING_NOTES", "parsing notes exceed the bound of 25")
	}
	if d.ForceConsensus && d.PreventConsensus {
		diff := d.ForceConsensusConfidence - d.PreventConsensusConfidence
		if diff < 0 {
			diff = -diff
		}
		if diff >= 0.1 {
			return ErrValidation("DIRECTIVE_CONFLICTING_SIGNALS", "forceConsensus and preventConsensus both hold with non-tied confidences")
		}
	}
	return nil
}
