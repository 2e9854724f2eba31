package mining

// Default block-size envelope knobs, named and valued identically to the
// teacher's mempool.DefaultBlockPrioritySize / original's
// DEFAULT_BLOCK_MAX_SIZE family.
const (
	DefaultBlockMaxSize      = 750_000
	DefaultBlockPrioritySize = 50_000
	DefaultBlockMinSize      = 0

	// NetworkMaxBlockSize bounds how large -blockmaxsize may push the
	// envelope; max_size is clamped to [1000, NetworkMaxBlockSize-1000].
	NetworkMaxBlockSize = 2_000_000
)

// Policy houses the block-generation-related settings resolved from
// configuration (spec.md section 4.B step 4 / section 6).
type Policy struct {
	// BlockMaxSize is the largest block this node is willing to build,
	// clamped to [1000, NetworkMaxBlockSize-1000].
	BlockMaxSize uint32

	// BlockPrioritySize is how much of the block is reserved for
	// high-priority transactions regardless of the fee they pay, clamped
	// to BlockMaxSize.
	BlockPrioritySize uint32

	// BlockMinSize is the minimum size this node will pad the block to
	// with low-fee/free transactions, clamped to BlockMaxSize.
	BlockMinSize uint32

	// PrintPriority, when true, logs each selected transaction's priority
	// and fee rate, then dumps the selected transaction set for debugging
	// (-printpriority).
	PrintPriority bool

	// BlockVersion overrides the block header version when non-zero and
	// chaincfg.Params.MineBlocksOnDemand is true (-blockversion,
	// regtest-only).
	BlockVersion int32
}

// ResolvePolicy clamps the configured max/priority/min sizes per spec.md
// section 4.B step 4, returning a Policy ready to drive a build.
func ResolvePolicy(maxSize, prioritySize, minSize uint32, printPriority bool, blockVersion int32) Policy {
	if maxSize < 1000 {
		maxSize = 1000
	}
	if ceiling := uint32(NetworkMaxBlockSize - 1000); maxSize > ceiling {
		maxSize = ceiling
	}
	if prioritySize > maxSize {
		prioritySize = maxSize
	}
	if minSize > maxSize {
		minSize = maxSize
	}
	return Policy{
		BlockMaxSize:      maxSize,
		BlockPrioritySize: prioritySize,
		BlockMinSize:      minSize,
		PrintPriority:     printPriority,
		BlockVersion:      blockVersion,
	}
}
