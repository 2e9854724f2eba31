package mining

import (
	"container/heap"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/prcycoin/blockforge/chaincfg"
	"github.com/prcycoin/blockforge/mempool"
	"github.com/prcycoin/blockforge/wire"
)

// MinHighPriority is the minimum priority value that allows a transaction to
// be considered high priority (and therefore selected in priority order,
// before the queue switches to fee order, as long as space remains in the
// priority region).
const MinHighPriority = chaincfg.COIN * 144.0 / 250

// txPrioItem houses a transaction along with the priority and fee-rate
// metadata used to order it. An item with a non-empty dependsOn is an orphan
// (spec.md section 3's COrphan): it spends the output of another tx still
// sitting in this same mempool snapshot, so it is held out of the heap until
// every hash in dependsOn has been committed into the block (spec.md section
// 4.B step 6). hash is the item's own tx hash, kept alongside the tx/entry so
// the select loop can resolve dependents without re-hashing.
type txPrioItem struct {
	tx        *wire.MsgTx
	entry     *mempool.Entry
	priority  float64
	feeRate   int64
	hash      chainhash.Hash
	dependsOn map[chainhash.Hash]struct{}
}

// txPriorityQueue implements container/heap.Interface over txPrioItem
// pointers, with a swappable less-func so the comparator mode can flip mid
// selection without discarding and rebuilding the item slice.
type txPriorityQueue struct {
	lessFunc func(pq *txPriorityQueue, i, j int) bool
	items    []*txPrioItem
}

func (pq *txPriorityQueue) Len() int { return len(pq.items) }

func (pq *txPriorityQueue) Less(i, j int) bool { return pq.lessFunc(pq, i, j) }

func (pq *txPriorityQueue) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *txPriorityQueue) Push(x interface{}) {
	pq.items = append(pq.items, x.(*txPrioItem))
}

func (pq *txPriorityQueue) Pop() interface{} {
	n := len(pq.items)
	item := pq.items[n-1]
	pq.items[n-1] = nil
	pq.items = pq.items[:n-1]
	return item
}

// byPriority sorts by priority descending, then fee-rate descending — the
// "priority mode" comparator (spec.md section 4.A).
func byPriority(pq *txPriorityQueue, i, j int) bool {
	if pq.items[i].priority == pq.items[j].priority {
		return pq.items[i].feeRate > pq.items[j].feeRate
	}
	return pq.items[i].priority > pq.items[j].priority
}

// byFee sorts by fee-rate descending, then priority descending — the
// "fee mode" comparator.
func byFee(pq *txPriorityQueue, i, j int) bool {
	if pq.items[i].feeRate == pq.items[j].feeRate {
		return pq.items[i].priority > pq.items[j].priority
	}
	return pq.items[i].feeRate > pq.items[j].feeRate
}

// newTxPriorityQueue returns an initialized queue using the priority-mode or
// fee-mode comparator depending on sortByFee.
func newTxPriorityQueue(reserve int, sortByFee bool) *txPriorityQueue {
	pq := &txPriorityQueue{items: make([]*txPrioItem, 0, reserve)}
	if sortByFee {
		pq.lessFunc = byFee
	} else {
		pq.lessFunc = byPriority
	}
	heap.Init(pq)
	return pq
}

// rebuild flips the comparator mode and re-heapifies in place, in O(n). This
// must be called exactly once per build, at the point the priority-phase
// budget is exhausted or the top of the queue no longer qualifies as
// high-priority (spec.md section 4.A).
func (pq *txPriorityQueue) rebuild(sortByFee bool) {
	if sortByFee {
		pq.lessFunc = byFee
	} else {
		pq.lessFunc = byPriority
	}
	heap.Init(pq)
}

func (pq *txPriorityQueue) push(item *txPrioItem) { heap.Push(pq, item) }

func (pq *txPriorityQueue) pop() *txPrioItem { return heap.Pop(pq).(*txPrioItem) }
