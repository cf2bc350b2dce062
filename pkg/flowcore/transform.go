package flowcore

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ============================================================================
// TRANSFORM — base shape shared by every unary operator: one data input, one
// punctuation input, one data output, one punctuation output. Operators that
// don't consume a punctuation forward it unchanged, per the shared contract.
// ============================================================================

// unaryBase wires the common input/output channel pairs; concrete operators
// embed it and supply their own run loop via runFn.
type unaryBase struct {
	Name string
	Log  zerolog.Logger

	dataIn  *InputChannel[DataMsg]
	punctIn *InputChannel[*Punctuation]

	dataOut  *OutputChannel[DataMsg]
	punctOut *OutputChannel[*Punctuation]
}

func newUnaryBase(name string, bufferSize int) unaryBase {
	return unaryBase{
		Name:     name,
		Log:      log.With().Str("operator", name).Logger(),
		dataIn:   NewInputChannel[DataMsg](name+".in.data", bufferSize),
		punctIn:  NewInputChannel[*Punctuation](name+".in.punct", bufferSize),
		dataOut:  NewOutputChannel[DataMsg](name + ".out.data"),
		punctOut: NewOutputChannel[*Punctuation](name + ".out.punct"),
	}
}

func (u *unaryBase) DataInput() *InputChannel[DataMsg]          { return u.dataIn }
func (u *unaryBase) PunctuationInput() *InputChannel[*Punctuation] { return u.punctIn }
func (u *unaryBase) DataOutput() *OutputChannel[DataMsg]          { return u.dataOut }
func (u *unaryBase) PunctuationOutput() *OutputChannel[*Punctuation] { return u.punctOut }

// forwardPunctuation republishes p unchanged, the default behavior for any
// operator that doesn't specifically interpret a punctuation kind.
func (u *unaryBase) forwardPunctuation(p *Punctuation) {
	u.punctOut.Publish(p)
}

// binaryBase is the two-input analogue used by join operators: two data
// inputs (left/right), one punctuation input per side, a single merged
// data/punctuation output.
type binaryBase struct {
	Name string
	Log  zerolog.Logger

	leftDataIn   *InputChannel[DataMsg]
	leftPunctIn  *InputChannel[*Punctuation]
	rightDataIn  *InputChannel[DataMsg]
	rightPunctIn *InputChannel[*Punctuation]

	dataOut  *OutputChannel[DataMsg]
	punctOut *OutputChannel[*Punctuation]
}

func newBinaryBase(name string, bufferSize int) binaryBase {
	return binaryBase{
		Name:         name,
		Log:          log.With().Str("operator", name).Logger(),
		leftDataIn:   NewInputChannel[DataMsg](name+".left.data", bufferSize),
		leftPunctIn:  NewInputChannel[*Punctuation](name+".left.punct", bufferSize),
		rightDataIn:  NewInputChannel[DataMsg](name+".right.data", bufferSize),
		rightPunctIn: NewInputChannel[*Punctuation](name+".right.punct", bufferSize),
		dataOut:      NewOutputChannel[DataMsg](name + ".out.data"),
		punctOut:     NewOutputChannel[*Punctuation](name + ".out.punct"),
	}
}

func (b *binaryBase) LeftDataInput() *InputChannel[DataMsg]    { return b.leftDataIn }
func (b *binaryBase) LeftPunctuationInput() *InputChannel[*Punctuation] { return b.leftPunctIn }
func (b *binaryBase) RightDataInput() *InputChannel[DataMsg]   { return b.rightDataIn }
func (b *binaryBase) RightPunctuationInput() *InputChannel[*Punctuation] { return b.rightPunctIn }
func (b *binaryBase) DataOutput() *OutputChannel[DataMsg]          { return b.dataOut }
func (b *binaryBase) PunctuationOutput() *OutputChannel[*Punctuation] { return b.punctOut }
