package calcstate

import (
	"strconv"
	"strings"
	"sync"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/pricing"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/utils"
)

// State is the single process-wide input container. HTTP handlers and the
// voice session mutate it through the same named entry points, so consumers
// never observe a torn amount/mode pair or a half-built snapshot.
type State struct {
	mu           sync.Mutex
	amountText   string
	mode         pricing.Mode
	analysisText string
}

// View is an immutable copy handed to consumers. Snapshot is nil whenever the
// amount text is empty, unparseable, or not a positive finite number.
type View struct {
	AmountText   string            `json:"amount_text"`
	Mode         pricing.Mode      `json:"mode"`
	Snapshot     *pricing.Snapshot `json:"snapshot,omitempty"`
	AnalysisText string            `json:"analysis_text,omitempty"`
}

func New() *State {
	return &State{mode: pricing.ModeOriginal}
}

// SetAmountText commits a new raw amount. Only digits with at most one decimal
// point are accepted; empty text is allowed and clears the snapshot. Any
// successful mutation discards previously generated analysis text.
func (s *State) SetAmountText(text string) error {
	const op = "State.SetAmountText"

	if !validAmountText(text) {
		return utils.E(utils.CodeInvalidArgument, op, "amount must contain only digits and at most one decimal point", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.amountText = text
	s.analysisText = ""
	return nil
}

// SetAmount commits a numeric amount, as delivered by voice tool-calls.
func (s *State) SetAmount(amount float64) error {
	return s.SetAmountText(strconv.FormatFloat(amount, 'f', -1, 64))
}

// SetMode switches the interpretation of the committed amount text without
// altering the text itself.
func (s *State) SetMode(mode pricing.Mode) error {
	const op = "State.SetMode"

	if !mode.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, "mode must be 'original' or 'new'", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.analysisText = ""
	return nil
}

// Clear resets the amount and any generated analysis; the mode is kept.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amountText = ""
	s.analysisText = ""
}

// SetAnalysisText records commentary for the current inputs. It is dropped by
// the next mutation so stale prose never outlives the numbers it described.
func (s *State) SetAnalysisText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysisText = text
}

// View returns the current inputs plus a freshly computed snapshot.
func (s *State) View() View {
	s.mu.Lock()
	text, mode, analysis := s.amountText, s.mode, s.analysisText
	s.mu.Unlock()

	v := View{AmountText: text, Mode: mode, AnalysisText: analysis}
	if amount, ok := parseAmount(text); ok {
		snap := pricing.ComputeSnapshot(amount, mode)
		v.Snapshot = &snap
	}
	return v
}

// Amount reports the parsed input amount, if the committed text is usable.
func (s *State) Amount() (float64, bool) {
	s.mu.Lock()
	text := s.amountText
	s.mu.Unlock()
	return parseAmount(text)
}

func parseAmount(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func validAmountText(text string) bool {
	if strings.Count(text, ".") > 1 {
		return false
	}
	for _, r := range text {
		if r != '.' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
