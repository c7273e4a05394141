package process

// Block is one render callback's worth of work: the output buffers, the
// number of frames to produce and the parameter snapshot for the block.
type Block struct {
	Output   [][]float32
	Frames   int
	Snapshot *Snapshot
}

// NumChannels returns the number of output channels.
func (b *Block) NumChannels() int {
	return len(b.Output)
}

// Channel returns the first Frames samples of output channel ch.
func (b *Block) Channel(ch int) []float32 {
	return b.Output[ch][:b.Frames]
}

// Clear zeros the block's output frames.
func (b *Block) Clear() {
	for ch := range b.Output {
		out := b.Channel(ch)
		for i := range out {
			out[i] = 0
		}
	}
}
